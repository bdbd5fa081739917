package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/skills"
)

// idAllocator hands out per-table sequential IDs starting at 1.
type idAllocator struct {
	next map[string]int64
}

func newIDAllocator() *idAllocator {
	return &idAllocator{next: make(map[string]int64)}
}

func (a *idAllocator) allocate(table string) int64 {
	a.next[table]++
	return a.next[table]
}

const (
	tableSkills       = "skills"
	tableJobs         = "jobs"
	tableApplications = "applications"
	tableResumes      = "resumes"
)

// Memory is a Store kept in process memory. Listings are ordered by ID.
type Memory struct {
	mu  sync.RWMutex
	ids *idAllocator
	now func() time.Time

	skills       map[int64]jobs.Skill
	jobs         map[int64]jobs.JobPosting
	applications map[int64]jobs.Application
	settings     map[int64]jobs.AISettings
	resumes      map[int64]jobs.Resume

	logger *zap.Logger
}

var _ Store = (*Memory)(nil)

func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		ids:          newIDAllocator(),
		now:          time.Now,
		skills:       make(map[int64]jobs.Skill),
		jobs:         make(map[int64]jobs.JobPosting),
		applications: make(map[int64]jobs.Application),
		settings:     make(map[int64]jobs.AISettings),
		resumes:      make(map[int64]jobs.Resume),
		logger:       logger,
	}
}

// Seed stores the given jobs. It is used to load the sample corpus.
func (m *Memory) Seed(ctx context.Context, postings []jobs.JobPosting) error {
	for _, job := range postings {
		if _, err := m.CreateJob(ctx, job); err != nil {
			return err
		}
	}
	m.logger.Debug("memory store seeded", zap.Int("jobs", len(postings)))
	return nil
}

func (m *Memory) Close() {}

func sortedByID[T any](items map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(items))
	for id, item := range items {
		if keep == nil || keep(item) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, items[id])
	}
	return out
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

func (m *Memory) ListSkills(_ context.Context, ownerID int64) ([]jobs.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedByID(m.skills, func(s jobs.Skill) bool { return s.OwnerID == ownerID }), nil
}

func (m *Memory) GetSkill(_ context.Context, id int64) (jobs.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.skills[id]
	if !ok {
		return jobs.Skill{}, notFound("skill", id)
	}
	return s, nil
}

// hasSkillLocked reports whether owner already has a skill with the same normalized name, ignoring exceptID.
func (m *Memory) hasSkillLocked(ownerID int64, name string, exceptID int64) bool {
	normalized := skills.Normalize(name)
	for id, s := range m.skills {
		if id != exceptID && s.OwnerID == ownerID && skills.Normalize(s.Name) == normalized {
			return true
		}
	}
	return false
}

func (m *Memory) CreateSkill(_ context.Context, skill jobs.Skill) (jobs.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	skill.Name = strings.TrimSpace(skill.Name)
	if m.hasSkillLocked(skill.OwnerID, skill.Name, 0) {
		return jobs.Skill{}, fmt.Errorf("skill %q: %w", skill.Name, ErrDuplicate)
	}
	skill.ID = m.ids.allocate(tableSkills)
	m.skills[skill.ID] = skill
	return skill, nil
}

func (m *Memory) UpdateSkill(_ context.Context, id int64, patch jobs.SkillPatch) (jobs.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.skills[id]
	if !ok {
		return jobs.Skill{}, notFound("skill", id)
	}
	updated := current.Apply(patch)
	updated.Name = strings.TrimSpace(updated.Name)
	if m.hasSkillLocked(updated.OwnerID, updated.Name, id) {
		return jobs.Skill{}, fmt.Errorf("skill %q: %w", updated.Name, ErrDuplicate)
	}
	m.skills[id] = updated
	return updated, nil
}

func (m *Memory) DeleteSkill(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.skills[id]; !ok {
		return notFound("skill", id)
	}
	delete(m.skills, id)
	return nil
}

func (m *Memory) ListJobs(_ context.Context) ([]jobs.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := sortedByID(m.jobs, nil)
	for i := range list {
		list[i] = list[i].Clone()
	}
	return list, nil
}

func (m *Memory) GetJob(_ context.Context, id int64) (jobs.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return jobs.JobPosting{}, notFound("job", id)
	}
	return job.Clone(), nil
}

func (m *Memory) CreateJob(_ context.Context, job jobs.JobPosting) (jobs.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job = job.Clone()
	if job.Skills == nil {
		job.Skills = []string{}
	}
	job.ID = m.ids.allocate(tableJobs)
	m.jobs[job.ID] = job
	return job.Clone(), nil
}

func (m *Memory) ListApplications(_ context.Context, userID int64) ([]jobs.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedByID(m.applications, func(a jobs.Application) bool { return a.UserID == userID }), nil
}

func (m *Memory) ListApplicationsByStatus(_ context.Context, userID int64, status string) ([]jobs.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedByID(m.applications, func(a jobs.Application) bool {
		return a.UserID == userID && a.Status == status
	}), nil
}

func (m *Memory) CreateApplication(_ context.Context, app jobs.Application) (jobs.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app.ID = m.ids.allocate(tableApplications)
	if app.Status == "" {
		app.Status = jobs.StatusApplied
	}
	app.AppliedAt = m.now().UTC()
	m.applications[app.ID] = app
	return app, nil
}

func (m *Memory) UpdateApplication(_ context.Context, id int64, patch jobs.ApplicationPatch) (jobs.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.applications[id]
	if !ok {
		return jobs.Application{}, notFound("application", id)
	}
	updated := current.Apply(patch)
	m.applications[id] = updated
	return updated, nil
}

func (m *Memory) GetAISettings(_ context.Context, userID int64) (jobs.AISettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[userID]
	if !ok {
		return jobs.AISettings{}, fmt.Errorf("ai settings for user %d: %w", userID, ErrNotFound)
	}
	return s, nil
}

func (m *Memory) SaveAISettings(_ context.Context, settings jobs.AISettings) (jobs.AISettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = settings
	return settings, nil
}

func (m *Memory) ListResumes(_ context.Context, userID int64) ([]jobs.Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedByID(m.resumes, func(r jobs.Resume) bool { return r.UserID == userID }), nil
}

func (m *Memory) GetResume(_ context.Context, id int64) (jobs.Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resumes[id]
	if !ok {
		return jobs.Resume{}, notFound("resume", id)
	}
	return r, nil
}

func (m *Memory) DefaultResume(_ context.Context, userID int64) (jobs.Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	defaults := sortedByID(m.resumes, func(r jobs.Resume) bool { return r.UserID == userID && r.IsDefault })
	if len(defaults) > 0 {
		return defaults[0], nil
	}
	return jobs.Resume{}, fmt.Errorf("default resume for user %d: %w", userID, ErrNotFound)
}

// CreateResume stores resume. A new default resume clears the flag on the user's other resumes.
func (m *Memory) CreateResume(_ context.Context, resume jobs.Resume) (jobs.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if resume.IsDefault {
		for id, existing := range m.resumes {
			if existing.UserID == resume.UserID && existing.IsDefault {
				existing.IsDefault = false
				m.resumes[id] = existing
			}
		}
	}
	resume.ID = m.ids.allocate(tableResumes)
	m.resumes[resume.ID] = resume
	return resume, nil
}
