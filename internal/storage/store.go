// Package storage persists users' skills, jobs, applications, resumes and AI settings.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/jobgenius/internal/jobs"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver     string         `mapstructure:"driver"`
	SampleData bool           `mapstructure:"sample-data"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	URL               string        `mapstructure:"url"`
	MaxConns          int32         `mapstructure:"max-conns"`
	MinConns          int32         `mapstructure:"min-conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max-conn-lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max-conn-idle-time"`
	HealthCheckPeriod time.Duration `mapstructure:"health-check-period"`
	ConnectTimeout    time.Duration `mapstructure:"connect-timeout"`
}

type Store interface {
	ListSkills(ctx context.Context, ownerID int64) ([]jobs.Skill, error)
	GetSkill(ctx context.Context, id int64) (jobs.Skill, error)
	CreateSkill(ctx context.Context, skill jobs.Skill) (jobs.Skill, error)
	UpdateSkill(ctx context.Context, id int64, patch jobs.SkillPatch) (jobs.Skill, error)
	DeleteSkill(ctx context.Context, id int64) error

	ListJobs(ctx context.Context) ([]jobs.JobPosting, error)
	GetJob(ctx context.Context, id int64) (jobs.JobPosting, error)
	CreateJob(ctx context.Context, job jobs.JobPosting) (jobs.JobPosting, error)

	ListApplications(ctx context.Context, userID int64) ([]jobs.Application, error)
	ListApplicationsByStatus(ctx context.Context, userID int64, status string) ([]jobs.Application, error)
	CreateApplication(ctx context.Context, app jobs.Application) (jobs.Application, error)
	UpdateApplication(ctx context.Context, id int64, patch jobs.ApplicationPatch) (jobs.Application, error)

	GetAISettings(ctx context.Context, userID int64) (jobs.AISettings, error)
	SaveAISettings(ctx context.Context, settings jobs.AISettings) (jobs.AISettings, error)

	ListResumes(ctx context.Context, userID int64) ([]jobs.Resume, error)
	GetResume(ctx context.Context, id int64) (jobs.Resume, error)
	DefaultResume(ctx context.Context, userID int64) (jobs.Resume, error)
	CreateResume(ctx context.Context, resume jobs.Resume) (jobs.Resume, error)

	Close()
}
