package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/storage"
)

var applicationStatuses = []string{
	jobs.StatusApplied,
	jobs.StatusInterview,
	jobs.StatusOffer,
	jobs.StatusRejected,
}

func validLevel(level *int) bool {
	return level == nil || (*level >= 1 && *level <= 5)
}

func (s *Service) Skills(ctx context.Context, userID int64) ([]jobs.Skill, error) {
	list, err := s.store.ListSkills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list skills of user %d: %w", userID, err)
	}
	return list, nil
}

func (s *Service) CreateSkill(ctx context.Context, skill jobs.Skill) (jobs.Skill, error) {
	skill.Name = strings.TrimSpace(skill.Name)
	if skill.Name == "" {
		return jobs.Skill{}, invalid("skill name is required")
	}
	if !validLevel(skill.Level) {
		return jobs.Skill{}, invalid("skill level must be within [1, 5]")
	}
	return s.store.CreateSkill(ctx, skill)
}

func (s *Service) UpdateSkill(ctx context.Context, id int64, patch jobs.SkillPatch) (jobs.Skill, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return jobs.Skill{}, invalid("skill name must not be blank")
	}
	if !validLevel(patch.Level) {
		return jobs.Skill{}, invalid("skill level must be within [1, 5]")
	}
	return s.store.UpdateSkill(ctx, id, patch)
}

func (s *Service) DeleteSkill(ctx context.Context, id int64) error {
	return s.store.DeleteSkill(ctx, id)
}

func (s *Service) Job(ctx context.Context, id int64) (jobs.JobPosting, error) {
	return s.store.GetJob(ctx, id)
}

// CreateJob stores a posting. A client-supplied match score is discarded.
func (s *Service) CreateJob(ctx context.Context, job jobs.JobPosting) (jobs.JobPosting, error) {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	if job.Title == "" || job.Company == "" {
		return jobs.JobPosting{}, invalid("job title and company are required")
	}
	job.MatchScore = nil
	return s.store.CreateJob(ctx, job)
}

// ApplicationView is an application together with the job it was sent for.
type ApplicationView struct {
	jobs.Application
	Job *jobs.JobPosting `json:"job"`
}

// Applications lists the user's applications, optionally restricted to one status.
func (s *Service) Applications(ctx context.Context, userID int64, status string) ([]ApplicationView, error) {
	var (
		list []jobs.Application
		err  error
	)
	if status = strings.TrimSpace(status); status != "" {
		list, err = s.store.ListApplicationsByStatus(ctx, userID, status)
	} else {
		list, err = s.store.ListApplications(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list applications of user %d: %w", userID, err)
	}

	views := make([]ApplicationView, 0, len(list))
	for _, app := range list {
		view := ApplicationView{Application: app}
		job, err := s.store.GetJob(ctx, app.JobID)
		switch {
		case err == nil:
			view.Job = &job
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, fmt.Errorf("get job %d: %w", app.JobID, err)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) CreateApplication(ctx context.Context, app jobs.Application) (jobs.Application, error) {
	if app.Status != "" && !slices.Contains(applicationStatuses, app.Status) {
		return jobs.Application{}, invalid("unknown application status %q", app.Status)
	}
	if _, err := s.store.GetJob(ctx, app.JobID); err != nil {
		return jobs.Application{}, fmt.Errorf("get job %d: %w", app.JobID, err)
	}
	return s.store.CreateApplication(ctx, app)
}

func (s *Service) UpdateApplication(ctx context.Context, id int64, patch jobs.ApplicationPatch) (jobs.Application, error) {
	if patch.Status != nil && !slices.Contains(applicationStatuses, *patch.Status) {
		return jobs.Application{}, invalid("unknown application status %q", *patch.Status)
	}
	return s.store.UpdateApplication(ctx, id, patch)
}

func (s *Service) Resumes(ctx context.Context, userID int64) ([]jobs.Resume, error) {
	list, err := s.store.ListResumes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list resumes of user %d: %w", userID, err)
	}
	return list, nil
}

func (s *Service) DefaultResume(ctx context.Context, userID int64) (jobs.Resume, error) {
	return s.store.DefaultResume(ctx, userID)
}

func (s *Service) CreateResume(ctx context.Context, resume jobs.Resume) (jobs.Resume, error) {
	resume.Title = strings.TrimSpace(resume.Title)
	if resume.Title == "" || strings.TrimSpace(resume.Content) == "" {
		return jobs.Resume{}, invalid("resume title and content are required")
	}
	return s.store.CreateResume(ctx, resume)
}
