package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
)

const (
	defaultPingTimeout = 5 * time.Second
	uniqueViolation    = "23505"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS skills (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		level INT CHECK (level BETWEEN 1 AND 5)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS skills_owner_name_idx ON skills (user_id, lower(btrim(name)))`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '',
		job_type TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		skills JSONB NOT NULL DEFAULT '[]'::jsonb,
		match_score INT
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		job_id BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'applied',
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		interview_date TIMESTAMPTZ,
		notes TEXT NOT NULL DEFAULT '',
		ai_optimized BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE INDEX IF NOT EXISTS applications_user_idx ON applications (user_id, status)`,
	`CREATE TABLE IF NOT EXISTS ai_settings (
		user_id BIGINT PRIMARY KEY,
		auto_apply BOOLEAN NOT NULL DEFAULT false,
		match_threshold INT NOT NULL DEFAULT 80,
		customize_resumes BOOLEAN NOT NULL DEFAULT true,
		daily_alerts BOOLEAN NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS resumes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT false
	)`,
}

const (
	skillColumns       = `id, user_id, name, level`
	jobColumns         = `id, title, company, location, description, salary, job_type, source, link, skills, match_score`
	applicationColumns = `id, user_id, job_id, status, applied_at, interview_date, notes, ai_optimized`
	settingsColumns    = `user_id, auto_apply, match_threshold, customize_resumes, daily_alerts`
	resumeColumns      = `id, user_id, title, content, is_default`
)

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ Store = (*Postgres)(nil)

func NewPostgres(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("postgres url is required")
	}

	pcfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("postgres connected", zap.String("host", pcfg.ConnConfig.Host), zap.String("database", pcfg.ConnConfig.Database))
	return &Postgres{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	p.logger.Debug("postgres schema ensured", zap.Int("statements", len(schema)))
	return nil
}

func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// translate maps driver errors onto the package sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func collect[T any](rows pgx.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanSkill(row rowScanner) (jobs.Skill, error) {
	var s jobs.Skill
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Level)
	return s, err
}

func (p *Postgres) ListSkills(ctx context.Context, ownerID int64) ([]jobs.Skill, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+skillColumns+` FROM skills WHERE user_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, translate(err, "list skills")
	}
	list, err := collect(rows, scanSkill)
	return list, translate(err, "list skills")
}

func (p *Postgres) GetSkill(ctx context.Context, id int64) (jobs.Skill, error) {
	s, err := scanSkill(p.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id))
	return s, translate(err, fmt.Sprintf("skill %d", id))
}

func (p *Postgres) CreateSkill(ctx context.Context, skill jobs.Skill) (jobs.Skill, error) {
	s, err := scanSkill(p.pool.QueryRow(ctx,
		`INSERT INTO skills (user_id, name, level) VALUES ($1, $2, $3) RETURNING `+skillColumns,
		skill.OwnerID, strings.TrimSpace(skill.Name), skill.Level,
	))
	return s, translate(err, fmt.Sprintf("skill %q", skill.Name))
}

func (p *Postgres) UpdateSkill(ctx context.Context, id int64, patch jobs.SkillPatch) (jobs.Skill, error) {
	var name *string
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		name = &trimmed
	}
	s, err := scanSkill(p.pool.QueryRow(ctx,
		`UPDATE skills SET name = COALESCE($2, name), level = COALESCE($3, level) WHERE id = $1 RETURNING `+skillColumns,
		id, name, patch.Level,
	))
	return s, translate(err, fmt.Sprintf("skill %d", id))
}

func (p *Postgres) DeleteSkill(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM skills WHERE id = $1`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("skill %d", id))
	}
	if tag.RowsAffected() == 0 {
		return notFound("skill", id)
	}
	return nil
}

func scanJob(row rowScanner) (jobs.JobPosting, error) {
	var (
		j      jobs.JobPosting
		skills []byte
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Description, &j.Salary,
		&j.JobType, &j.Source, &j.Link, &skills, &j.MatchScore); err != nil {
		return j, err
	}
	j.Skills = []string{}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &j.Skills); err != nil {
			return j, fmt.Errorf("decode skills of job %d: %w", j.ID, err)
		}
	}
	return j, nil
}

func (p *Postgres) ListJobs(ctx context.Context) ([]jobs.JobPosting, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, translate(err, "list jobs")
	}
	list, err := collect(rows, scanJob)
	return list, translate(err, "list jobs")
}

func (p *Postgres) GetJob(ctx context.Context, id int64) (jobs.JobPosting, error) {
	j, err := scanJob(p.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	return j, translate(err, fmt.Sprintf("job %d", id))
}

func (p *Postgres) CreateJob(ctx context.Context, job jobs.JobPosting) (jobs.JobPosting, error) {
	tags := job.Skills
	if tags == nil {
		tags = []string{}
	}
	skills, err := json.Marshal(tags)
	if err != nil {
		return jobs.JobPosting{}, fmt.Errorf("encode skills: %w", err)
	}

	j, err := scanJob(p.pool.QueryRow(ctx,
		`INSERT INTO jobs (title, company, location, description, salary, job_type, source, link, skills, match_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+jobColumns,
		job.Title, job.Company, job.Location, job.Description, job.Salary, job.JobType, job.Source, job.Link,
		string(skills), job.MatchScore,
	))
	return j, translate(err, fmt.Sprintf("job %q", job.Title))
}

// Seed inserts the given jobs when the jobs table is empty.
func (p *Postgres) Seed(ctx context.Context, postings []jobs.JobPosting) error {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM jobs`).Scan(&count); err != nil {
		return translate(err, "count jobs")
	}
	if count > 0 {
		return nil
	}
	for _, job := range postings {
		if _, err := p.CreateJob(ctx, job); err != nil {
			return err
		}
	}
	p.logger.Info("postgres seeded", zap.Int("jobs", len(postings)))
	return nil
}

func scanApplication(row rowScanner) (jobs.Application, error) {
	var a jobs.Application
	err := row.Scan(&a.ID, &a.UserID, &a.JobID, &a.Status, &a.AppliedAt, &a.InterviewDate, &a.Notes, &a.AIOptimized)
	return a, err
}

func (p *Postgres) ListApplications(ctx context.Context, userID int64) ([]jobs.Application, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, translate(err, "list applications")
	}
	list, err := collect(rows, scanApplication)
	return list, translate(err, "list applications")
}

func (p *Postgres) ListApplicationsByStatus(ctx context.Context, userID int64, status string) ([]jobs.Application, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 AND status = $2 ORDER BY id`,
		userID, status,
	)
	if err != nil {
		return nil, translate(err, "list applications")
	}
	list, err := collect(rows, scanApplication)
	return list, translate(err, "list applications")
}

func (p *Postgres) CreateApplication(ctx context.Context, app jobs.Application) (jobs.Application, error) {
	status := app.Status
	if status == "" {
		status = jobs.StatusApplied
	}
	a, err := scanApplication(p.pool.QueryRow(ctx,
		`INSERT INTO applications (user_id, job_id, status, interview_date, notes, ai_optimized)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+applicationColumns,
		app.UserID, app.JobID, status, app.InterviewDate, app.Notes, app.AIOptimized,
	))
	return a, translate(err, "create application")
}

func (p *Postgres) UpdateApplication(ctx context.Context, id int64, patch jobs.ApplicationPatch) (jobs.Application, error) {
	a, err := scanApplication(p.pool.QueryRow(ctx,
		`UPDATE applications SET
			status = COALESCE($2, status),
			interview_date = COALESCE($3, interview_date),
			notes = COALESCE($4, notes),
			ai_optimized = COALESCE($5, ai_optimized)
		 WHERE id = $1
		 RETURNING `+applicationColumns,
		id, patch.Status, patch.InterviewDate, patch.Notes, patch.AIOptimized,
	))
	return a, translate(err, fmt.Sprintf("application %d", id))
}

func scanSettings(row rowScanner) (jobs.AISettings, error) {
	var s jobs.AISettings
	err := row.Scan(&s.UserID, &s.AutoApply, &s.MatchThreshold, &s.CustomizeResumes, &s.DailyAlerts)
	return s, err
}

func (p *Postgres) GetAISettings(ctx context.Context, userID int64) (jobs.AISettings, error) {
	s, err := scanSettings(p.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM ai_settings WHERE user_id = $1`, userID))
	return s, translate(err, fmt.Sprintf("ai settings for user %d", userID))
}

func (p *Postgres) SaveAISettings(ctx context.Context, settings jobs.AISettings) (jobs.AISettings, error) {
	s, err := scanSettings(p.pool.QueryRow(ctx,
		`INSERT INTO ai_settings (`+settingsColumns+`) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
			auto_apply = EXCLUDED.auto_apply,
			match_threshold = EXCLUDED.match_threshold,
			customize_resumes = EXCLUDED.customize_resumes,
			daily_alerts = EXCLUDED.daily_alerts
		 RETURNING `+settingsColumns,
		settings.UserID, settings.AutoApply, settings.MatchThreshold, settings.CustomizeResumes, settings.DailyAlerts,
	))
	return s, translate(err, fmt.Sprintf("ai settings for user %d", settings.UserID))
}

func scanResume(row rowScanner) (jobs.Resume, error) {
	var r jobs.Resume
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Content, &r.IsDefault)
	return r, err
}

func (p *Postgres) ListResumes(ctx context.Context, userID int64) ([]jobs.Resume, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, translate(err, "list resumes")
	}
	list, err := collect(rows, scanResume)
	return list, translate(err, "list resumes")
}

func (p *Postgres) GetResume(ctx context.Context, id int64) (jobs.Resume, error) {
	r, err := scanResume(p.pool.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id))
	return r, translate(err, fmt.Sprintf("resume %d", id))
}

func (p *Postgres) DefaultResume(ctx context.Context, userID int64) (jobs.Resume, error) {
	r, err := scanResume(p.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 AND is_default ORDER BY id LIMIT 1`, userID))
	return r, translate(err, fmt.Sprintf("default resume for user %d", userID))
}

func (p *Postgres) CreateResume(ctx context.Context, resume jobs.Resume) (jobs.Resume, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return jobs.Resume{}, translate(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if resume.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE resumes SET is_default = false WHERE user_id = $1 AND is_default`, resume.UserID); err != nil {
			return jobs.Resume{}, translate(err, "clear default resume")
		}
	}

	r, err := scanResume(tx.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, content, is_default) VALUES ($1, $2, $3, $4) RETURNING `+resumeColumns,
		resume.UserID, resume.Title, resume.Content, resume.IsDefault,
	))
	if err != nil {
		return jobs.Resume{}, translate(err, "create resume")
	}

	if err := tx.Commit(ctx); err != nil {
		return jobs.Resume{}, translate(err, "commit resume")
	}
	return r, nil
}
