package jobsource

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/logger"
)

const StoreName = "Store"

// JobLister is the part of the storage layer a Store source reads from.
type JobLister interface {
	ListJobs(ctx context.Context) ([]jobs.JobPosting, error)
}

// Store serves the jobs kept in local storage.
type Store struct {
	lister JobLister
	logger *zap.Logger
}

func NewStore(lister JobLister, log *zap.Logger) *Store {
	return &Store{lister: lister, logger: logger.WithSource(log, StoreName)}
}

func (s *Store) Name() string { return StoreName }

func (s *Store) FetchAll(ctx context.Context) []jobs.JobPosting {
	postings, err := s.lister.ListJobs(ctx)
	if err != nil {
		s.logger.Warn("list stored jobs", zap.Error(err))
		return []jobs.JobPosting{}
	}
	return emptyIfNil(postings)
}

func (s *Store) Search(ctx context.Context, query string) []jobs.JobPosting {
	return Filter(s.FetchAll(ctx), query)
}
