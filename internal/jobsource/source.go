// Package jobsource provides job corpora from storage and third-party boards.
// Sources never fail outward: transport errors are logged and yield an empty corpus.
package jobsource

import (
	"context"
	"strings"

	"github.com/spigell/jobgenius/internal/jobs"
)

type Source interface {
	Name() string
	FetchAll(ctx context.Context) []jobs.JobPosting
	Search(ctx context.Context, query string) []jobs.JobPosting
}

// Filter keeps postings whose title, company, description, location or any tag contains query.
// An empty query keeps everything.
func Filter(postings []jobs.JobPosting, query string) []jobs.JobPosting {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return postings
	}

	out := make([]jobs.JobPosting, 0, len(postings))
	for _, job := range postings {
		if matchesQuery(job, query) {
			out = append(out, job)
		}
	}
	return out
}

func matchesQuery(job jobs.JobPosting, query string) bool {
	for _, field := range []string{job.Title, job.Company, job.Description, job.Location} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	for _, tag := range job.Skills {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func emptyIfNil(postings []jobs.JobPosting) []jobs.JobPosting {
	if postings == nil {
		return []jobs.JobPosting{}
	}
	return postings
}
