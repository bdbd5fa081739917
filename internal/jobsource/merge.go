package jobsource

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobgenius/internal/jobs"
)

const MergedName = "Merged"

// Merged queries several sources concurrently and concatenates their results in source order.
type Merged struct {
	sources []Source
	logger  *zap.Logger
}

func Merge(logger *zap.Logger, sources ...Source) *Merged {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merged{sources: sources, logger: logger}
}

func (m *Merged) Name() string { return MergedName }

func (m *Merged) Sources() []Source { return m.sources }

func (m *Merged) FetchAll(ctx context.Context) []jobs.JobPosting {
	return m.collect(ctx, func(ctx context.Context, s Source) []jobs.JobPosting {
		return s.FetchAll(ctx)
	})
}

func (m *Merged) Search(ctx context.Context, query string) []jobs.JobPosting {
	return m.collect(ctx, func(ctx context.Context, s Source) []jobs.JobPosting {
		return s.Search(ctx, query)
	})
}

func (m *Merged) collect(ctx context.Context, call func(context.Context, Source) []jobs.JobPosting) []jobs.JobPosting {
	results := make([][]jobs.JobPosting, len(m.sources))

	g, gCtx := errgroup.WithContext(ctx)
	for i, source := range m.sources {
		g.Go(func() error {
			// each goroutine owns results[i]
			results[i] = call(gCtx, source)
			return nil
		})
	}
	_ = g.Wait()

	out := []jobs.JobPosting{}
	for i, postings := range results {
		m.logger.Debug("source results", zap.String("job_source", m.sources[i].Name()), zap.Int("jobs", len(postings)))
		out = append(out, postings...)
	}
	return out
}
