// Package service composes storage, job sources, filters and the matching engine into the
// use cases exposed over HTTP and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/ai"
	"github.com/spigell/jobgenius/internal/filtering"
	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/jobsource"
	"github.com/spigell/jobgenius/internal/matching"
	"github.com/spigell/jobgenius/internal/storage"
)

// ErrInvalidInput marks requests rejected before reaching storage or the engine.
var ErrInvalidInput = errors.New("invalid input")

// Query selects the job corpus for a request.
type Query struct {
	// External switches from locally stored jobs to the external source.
	External bool
	Text     string
}

// Responder answers chat messages. *chat.Responder implements it.
type Responder interface {
	Respond(ctx context.Context, message string, history []ai.Turn) string
}

// Optimizer tailors a resume for a job. *gemini.Optimizer implements it.
type Optimizer interface {
	Optimize(ctx context.Context, resume string, job jobs.JobPosting, userSkills []string) (*ai.ResumeOptimization, error)
}

// Deps lists collaborators of a Service. Store and Responder are required.
type Deps struct {
	Store     storage.Store
	Local     jobsource.Source
	External  jobsource.Source
	Responder Responder
	Optimizer Optimizer
	Filters   filtering.Config
	Logger    *zap.Logger
}

type Service struct {
	store     storage.Store
	local     jobsource.Source
	external  jobsource.Source
	responder Responder
	optimizer Optimizer
	filters   filtering.Config
	logger    *zap.Logger
}

func New(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Responder == nil {
		return nil, errors.New("chat responder is required")
	}

	s := &Service{
		store:     deps.Store,
		local:     deps.Local,
		external:  deps.External,
		responder: deps.Responder,
		optimizer: deps.Optimizer,
		filters:   deps.Filters,
		logger:    deps.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.local == nil {
		s.local = jobsource.NewStore(deps.Store, s.logger)
	}
	return s, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// usesExternal reports whether q is served by the external source.
func (s *Service) usesExternal(q Query) bool {
	return q.External && s.external != nil
}

// Jobs returns the raw corpus selected by q without filtering or scoring.
func (s *Service) Jobs(ctx context.Context, q Query) []jobs.JobPosting {
	source := s.local
	if s.usesExternal(q) {
		source = s.external
	}
	if q.External && s.external == nil {
		s.logger.Warn("external job source is not configured, serving local jobs")
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return source.FetchAll(ctx)
	}
	return source.Search(ctx, text)
}

// corpus returns the jobs for q after the user's filter pipeline.
// Applications reference stored jobs, so applied history only filters the local corpus.
func (s *Service) corpus(ctx context.Context, userID int64, q Query) ([]jobs.JobPosting, error) {
	cfg := s.filters
	deps := filtering.Deps{
		Logger:       s.logger,
		UserID:       userID,
		Applications: s.store,
	}

	steps := filtering.Default(&cfg)
	if s.usesExternal(q) {
		filtering.DisableByName(steps, filtering.AppliedHistoryName, "external jobs are not stored")
	}

	filtered, err := filtering.Run(ctx, &cfg, deps, steps, jobs.New(s.Jobs(ctx, q)))
	if err != nil {
		return nil, fmt.Errorf("filter jobs: %w", err)
	}
	return filtered.Postings(), nil
}

// UserSkillNames returns the raw skill names of the user in storage order.
func (s *Service) UserSkillNames(ctx context.Context, userID int64) ([]string, error) {
	list, err := s.store.ListSkills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list skills of user %d: %w", userID, err)
	}
	return jobs.SkillNames(list), nil
}

// MatchJobs ranks the selected corpus against the user's stored skills.
func (s *Service) MatchJobs(ctx context.Context, userID int64, q Query) ([]matching.Match, error) {
	userSkills, err := s.UserSkillNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.RankForSkills(ctx, userID, userSkills, q)
}

// RankForSkills ranks the corpus selected by q against explicit skills. The filters still act for userID.
func (s *Service) RankForSkills(ctx context.Context, userID int64, userSkills []string, q Query) ([]matching.Match, error) {
	corpus, err := s.corpus(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	ranked := matching.RankJobs(corpus, userSkills)
	s.logger.Debug("jobs ranked",
		zap.Int64("user_id", userID),
		zap.Bool("external", q.External),
		zap.Int("skills", len(userSkills)),
		zap.Int("jobs", len(ranked)),
	)
	return ranked, nil
}

// MatchJob scores a single stored job for the user.
func (s *Service) MatchJob(ctx context.Context, userID, jobID int64) (matching.Match, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return matching.Match{}, fmt.Errorf("get job %d: %w", jobID, err)
	}

	userSkills, err := s.UserSkillNames(ctx, userID)
	if err != nil {
		return matching.Match{}, err
	}

	return matching.Score(job, userSkills), nil
}

// Settings returns the stored AI settings or the defaults when the user has none.
func (s *Service) Settings(ctx context.Context, userID int64) (jobs.AISettings, error) {
	settings, err := s.store.GetAISettings(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return jobs.DefaultAISettings(userID), nil
	}
	if err != nil {
		return jobs.AISettings{}, fmt.Errorf("get ai settings of user %d: %w", userID, err)
	}
	return settings, nil
}

// UpdateSettings applies patch on top of the current settings and stores the result.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, patch jobs.AISettingsPatch) (jobs.AISettings, error) {
	if patch.MatchThreshold != nil && (*patch.MatchThreshold < 0 || *patch.MatchThreshold > 100) {
		return jobs.AISettings{}, invalid("match threshold must be within [0, 100]")
	}

	current, err := s.Settings(ctx, userID)
	if err != nil {
		return jobs.AISettings{}, err
	}

	saved, err := s.store.SaveAISettings(ctx, current.Apply(patch))
	if err != nil {
		return jobs.AISettings{}, fmt.Errorf("save ai settings of user %d: %w", userID, err)
	}
	return saved, nil
}

// Recommend returns local matches at or above the user's match threshold, best first.
// A non-positive limit returns all of them.
func (s *Service) Recommend(ctx context.Context, userID int64, limit int) ([]matching.Match, error) {
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked, err := s.MatchJobs(ctx, userID, Query{})
	if err != nil {
		return nil, err
	}

	return matching.TopMatches(matching.AboveThreshold(ranked, settings.MatchThreshold), limit), nil
}

// GapReport is the skills-gap answer for a user.
type GapReport struct {
	MissingSkills []matching.GapEntry `json:"missingSkills"`
}

// AnalyzeSkillsGap reports the most demanded skills of the selected corpus the user lacks.
func (s *Service) AnalyzeSkillsGap(ctx context.Context, userID int64, q Query) (GapReport, error) {
	userSkills, err := s.UserSkillNames(ctx, userID)
	if err != nil {
		return GapReport{}, err
	}

	missing, err := s.GapForSkills(ctx, userID, userSkills, q, matching.DefaultGapLimit)
	if err != nil {
		return GapReport{}, err
	}
	return GapReport{MissingSkills: missing}, nil
}

// GapForSkills is the gap analysis for explicit skills over the unfiltered corpus selected by q.
// A non-positive limit reports every gap skill.
func (s *Service) GapForSkills(ctx context.Context, userID int64, userSkills []string, q Query, limit int) ([]matching.GapEntry, error) {
	corpus := s.Jobs(ctx, q)
	s.logger.Debug("skills gap analyzed",
		zap.Int64("user_id", userID),
		zap.Bool("external", q.External),
		zap.Int("jobs", len(corpus)),
	)
	return matching.AnalyzeGapN(corpus, userSkills, limit), nil
}

// Chat returns one assistant reply. It never fails.
func (s *Service) Chat(ctx context.Context, message string, history []ai.Turn) string {
	return s.responder.Respond(ctx, message, history)
}

// OptimizeResume tailors one of the user's resumes to a stored job. When no optimizer is
// configured or it fails, a templated cover letter is returned instead.
func (s *Service) OptimizeResume(ctx context.Context, userID, resumeID, jobID int64) (*ai.ResumeOptimization, error) {
	if userID <= 0 || resumeID <= 0 {
		return nil, invalid("userId and resumeId are required")
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", jobID, err)
	}

	resume, err := s.store.GetResume(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("get resume %d: %w", resumeID, err)
	}
	if resume.UserID != userID {
		return nil, fmt.Errorf("resume %d of user %d: %w", resumeID, userID, storage.ErrNotFound)
	}

	userSkills, err := s.UserSkillNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.optimizer != nil {
		result, err := s.optimizer.Optimize(ctx, resume.Content, job, userSkills)
		if err == nil {
			return result, nil
		}
		s.logger.Warn("resume optimization failed, using template",
			zap.Int64("job_id", jobID),
			zap.Int64("resume_id", resumeID),
			zap.Error(err),
		)
	}

	fallback := ai.TemplateOptimization(resume.Content, job.Title, job.Company)
	return &fallback, nil
}
