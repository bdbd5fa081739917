package server

import (
	"time"

	"github.com/spigell/jobgenius/internal/ai"
	"github.com/spigell/jobgenius/internal/jobs"
)

type createSkillRequest struct {
	UserID int64  `json:"userId" validate:"required,min=1"`
	Name   string `json:"name" validate:"required,max=100"`
	Level  *int   `json:"level" validate:"omitempty,min=1,max=5"`
}

func (r createSkillRequest) toSkill() jobs.Skill {
	return jobs.Skill{OwnerID: r.UserID, Name: r.Name, Level: r.Level}
}

type updateSkillRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Level *int    `json:"level" validate:"omitempty,min=1,max=5"`
}

func (r updateSkillRequest) toPatch() jobs.SkillPatch {
	return jobs.SkillPatch{Name: r.Name, Level: r.Level}
}

type createJobRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Company     string   `json:"company" validate:"required,max=200"`
	Location    string   `json:"location" validate:"max=200"`
	Description string   `json:"description"`
	Salary      string   `json:"salary" validate:"max=100"`
	JobType     string   `json:"jobType" validate:"max=50"`
	Source      string   `json:"source" validate:"max=100"`
	Link        string   `json:"link" validate:"omitempty,url"`
	Skills      []string `json:"skills" validate:"dive,required,max=100"`
}

func (r createJobRequest) toJob() jobs.JobPosting {
	return jobs.JobPosting{
		Title:       r.Title,
		Company:     r.Company,
		Location:    r.Location,
		Description: r.Description,
		Salary:      r.Salary,
		JobType:     r.JobType,
		Source:      r.Source,
		Link:        r.Link,
		Skills:      r.Skills,
	}
}

type createApplicationRequest struct {
	UserID        int64      `json:"userId" validate:"required,min=1"`
	JobID         int64      `json:"jobId" validate:"required,min=1"`
	Status        string     `json:"status" validate:"omitempty,oneof=applied interview offer rejected"`
	InterviewDate *time.Time `json:"interviewDate"`
	Notes         string     `json:"notes" validate:"max=2000"`
	AIOptimized   bool       `json:"aiOptimized"`
}

func (r createApplicationRequest) toApplication() jobs.Application {
	return jobs.Application{
		UserID:        r.UserID,
		JobID:         r.JobID,
		Status:        r.Status,
		InterviewDate: r.InterviewDate,
		Notes:         r.Notes,
		AIOptimized:   r.AIOptimized,
	}
}

type updateApplicationRequest struct {
	Status        *string    `json:"status" validate:"omitempty,oneof=applied interview offer rejected"`
	InterviewDate *time.Time `json:"interviewDate"`
	Notes         *string    `json:"notes" validate:"omitempty,max=2000"`
	AIOptimized   *bool      `json:"aiOptimized"`
}

func (r updateApplicationRequest) toPatch() jobs.ApplicationPatch {
	return jobs.ApplicationPatch{
		Status:        r.Status,
		InterviewDate: r.InterviewDate,
		Notes:         r.Notes,
		AIOptimized:   r.AIOptimized,
	}
}

type updateSettingsRequest struct {
	AutoApply        *bool `json:"autoApply"`
	MatchThreshold   *int  `json:"matchThreshold" validate:"omitempty,min=0,max=100"`
	CustomizeResumes *bool `json:"customizeResumes"`
	DailyAlerts      *bool `json:"dailyAlerts"`
}

func (r updateSettingsRequest) toPatch() jobs.AISettingsPatch {
	return jobs.AISettingsPatch{
		AutoApply:        r.AutoApply,
		MatchThreshold:   r.MatchThreshold,
		CustomizeResumes: r.CustomizeResumes,
		DailyAlerts:      r.DailyAlerts,
	}
}

type createResumeRequest struct {
	UserID    int64  `json:"userId" validate:"required,min=1"`
	Title     string `json:"title" validate:"required,max=200"`
	Content   string `json:"content" validate:"required"`
	IsDefault bool   `json:"isDefault"`
}

func (r createResumeRequest) toResume() jobs.Resume {
	return jobs.Resume{UserID: r.UserID, Title: r.Title, Content: r.Content, IsDefault: r.IsDefault}
}

type optimizeResumeRequest struct {
	UserID   int64 `json:"userId" validate:"required,min=1"`
	ResumeID int64 `json:"resumeId" validate:"required,min=1"`
}

// chatRequest is the body of POST /api/ai-chat. A blank Message is answered with the fixed prompt.
type chatRequest struct {
	Message          string    `json:"message" validate:"max=4000"`
	PreviousMessages []ai.Turn `json:"previousMessages" validate:"max=50,dive"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type healthResponse struct {
	Status string `json:"status"`
}
