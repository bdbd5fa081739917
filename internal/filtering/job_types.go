package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
)

type jobTypesFilter struct {
	toggle
	types []string
}

// NewJobTypes creates a filter that keeps only jobs of the configured types (Remote, Hybrid, ...).
func NewJobTypes() Filter {
	return &jobTypesFilter{}
}

func (f *jobTypesFilter) Name() string { return "job_types" }

func (f *jobTypesFilter) Validate(cfg *Config) error {
	f.types = f.types[:0]
	for _, t := range cfg.JobTypes {
		if t = strings.TrimSpace(t); t != "" {
			f.types = append(f.types, t)
		}
	}
	return nil
}

func (f *jobTypesFilter) Apply(_ context.Context, deps Deps, v *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := v.Len()
	if len(f.types) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	dropped := v.KeepFold(jobs.JobTypeField, f.types)
	if len(dropped) > 0 {
		deps.Logger.Info("excluding jobs by job type",
			zap.Strings("wanted_types", f.types),
			zap.Strings("excluded_jobs", dropped),
			zap.Int("jobs_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *jobTypesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"job_types": strings.Join(f.types, ", ")},
	}
}
