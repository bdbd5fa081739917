package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
)

// AppliedHistoryName names the step that drops jobs the user applied to.
const AppliedHistoryName = "applied_history"

type appliedHistoryFilter struct {
	toggle
}

// NewAppliedHistory creates a filter that removes jobs the user already applied to.
func NewAppliedHistory() Filter {
	return &appliedHistoryFilter{}
}

func (f *appliedHistoryFilter) Name() string { return AppliedHistoryName }

func (f *appliedHistoryFilter) Validate(*Config) error { return nil }

func (f *appliedHistoryFilter) Apply(ctx context.Context, deps Deps, v *jobs.Jobs) (*jobs.Jobs, Step, error) {
	initial := v.Len()

	if deps.Applications == nil {
		return v, Step{}, errors.New("application storage is required")
	}

	applications, err := deps.Applications.ListApplications(ctx, deps.UserID)
	if err != nil {
		return v, Step{}, fmt.Errorf("get applications of user %d: %w", deps.UserID, err)
	}

	ids := make([]string, 0, len(applications))
	for _, app := range applications {
		ids = append(ids, strconv.FormatInt(app.JobID, 10))
	}

	excluded := v.Exclude(jobs.JobIDField, ids)
	if len(excluded) > 0 {
		deps.Logger.Info("excluding jobs the user already applied to",
			zap.Int64("user_id", deps.UserID),
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *appliedHistoryFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"exclude_applied": strconv.FormatBool(f.IsEnabled())},
	}
}
