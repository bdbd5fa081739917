// Package jobs holds the records exchanged between storage, job sources and the matching engine.
package jobs

import "time"

// Skill is a user-declared skill. Level is optional (1..5).
type Skill struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"userId"`
	Name    string `json:"name"`
	Level   *int   `json:"level,omitempty"`
}

// SkillNames returns the raw names in order.
func SkillNames(list []Skill) []string {
	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.Name)
	}
	return names
}

const (
	StatusApplied   = "applied"
	StatusInterview = "interview"
	StatusOffer     = "offer"
	StatusRejected  = "rejected"
)

type Application struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	JobID         int64      `json:"jobId"`
	Status        string     `json:"status"`
	AppliedAt     time.Time  `json:"appliedAt"`
	InterviewDate *time.Time `json:"interviewDate,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	AIOptimized   bool       `json:"aiOptimized"`
}

// ApplicationPatch carries optional updates; nil fields are left unchanged.
type ApplicationPatch struct {
	Status        *string
	InterviewDate *time.Time
	Notes         *string
	AIOptimized   *bool
}

type Resume struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsDefault bool   `json:"isDefault"`
}

type AISettings struct {
	UserID           int64 `json:"userId"`
	AutoApply        bool  `json:"autoApply"`
	MatchThreshold   int   `json:"matchThreshold"`
	CustomizeResumes bool  `json:"customizeResumes"`
	DailyAlerts      bool  `json:"dailyAlerts"`
}

// DefaultAISettings returns the settings a user gets before saving any.
func DefaultAISettings(userID int64) AISettings {
	return AISettings{
		UserID:           userID,
		AutoApply:        false,
		MatchThreshold:   80,
		CustomizeResumes: true,
		DailyAlerts:      true,
	}
}

// AISettingsPatch carries optional updates; nil fields are left unchanged.
type AISettingsPatch struct {
	AutoApply        *bool
	MatchThreshold   *int
	CustomizeResumes *bool
	DailyAlerts      *bool
}

func (s AISettings) Apply(p AISettingsPatch) AISettings {
	if p.AutoApply != nil {
		s.AutoApply = *p.AutoApply
	}
	if p.MatchThreshold != nil {
		s.MatchThreshold = *p.MatchThreshold
	}
	if p.CustomizeResumes != nil {
		s.CustomizeResumes = *p.CustomizeResumes
	}
	if p.DailyAlerts != nil {
		s.DailyAlerts = *p.DailyAlerts
	}
	return s
}

// SkillPatch carries optional updates; nil fields are left unchanged.
type SkillPatch struct {
	Name  *string
	Level *int
}

func (s Skill) Apply(p SkillPatch) Skill {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Level != nil {
		level := *p.Level
		s.Level = &level
	}
	return s
}

func (a Application) Apply(p ApplicationPatch) Application {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.InterviewDate != nil {
		d := *p.InterviewDate
		a.InterviewDate = &d
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.AIOptimized != nil {
		a.AIOptimized = *p.AIOptimized
	}
	return a
}
