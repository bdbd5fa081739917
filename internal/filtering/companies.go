package filtering

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
)

type companiesFilter struct {
	toggle
	companies []string
}

// NewCompanies creates a filter that removes jobs posted by configured companies.
func NewCompanies() Filter {
	return &companiesFilter{}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Validate(cfg *Config) error {
	for _, c := range cfg.Companies {
		if strings.TrimSpace(c) == "" {
			return errors.New("company names must not be blank")
		}
	}
	f.companies = cfg.Companies
	return nil
}

func (f *companiesFilter) Apply(_ context.Context, deps Deps, v *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := v.Len()
	if len(f.companies) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: v.Len()}, nil
	}

	excluded := v.ExcludeFold(jobs.JobCompanyField, f.companies)
	if len(excluded) > 0 {
		deps.Logger.Info("excluding jobs by company",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"companies": strings.Join(f.companies, ", ")},
	}
}
