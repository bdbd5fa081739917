package jobsource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/logger"
)

// JSONCache is satisfied by cache.Redis.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Cached memoizes another source. Empty results are not cached so a failing upstream is retried.
type Cached struct {
	source Source
	cache  JSONCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(source Source, cache JSONCache, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger.WithSource(log, source.Name()),
	}
}

func (c *Cached) Name() string { return c.source.Name() }

func (c *Cached) FetchAll(ctx context.Context) []jobs.JobPosting {
	return c.load(ctx, AllKey(c.source.Name()), func() []jobs.JobPosting {
		return c.source.FetchAll(ctx)
	})
}

func (c *Cached) Search(ctx context.Context, query string) []jobs.JobPosting {
	return c.load(ctx, SearchKey(c.source.Name(), query), func() []jobs.JobPosting {
		return c.source.Search(ctx, query)
	})
}

func (c *Cached) load(ctx context.Context, key string, fetch func() []jobs.JobPosting) []jobs.JobPosting {
	var cached []jobs.JobPosting
	found, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		c.logger.Debug("cache hit", zap.String("key", key), zap.Int("jobs", len(cached)))
		return emptyIfNil(cached)
	}

	postings := emptyIfNil(fetch())
	if len(postings) == 0 {
		return postings
	}

	if err := c.cache.SetJSON(ctx, key, postings, c.ttl); err != nil {
		c.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return postings
}

// KeysPattern matches every cached corpus of every source.
const KeysPattern = "jobs:*"

func AllKey(source string) string {
	return fmt.Sprintf("jobs:%s:all", keyPart(source))
}

func SearchKey(source, query string) string {
	return fmt.Sprintf("jobs:%s:search:%s", keyPart(source), keyPart(query))
}

func keyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}
