package matching

import (
	"sort"

	"github.com/spigell/jobgenius/internal/jobs"
)

// RankJobs scores every job and orders the results by descending score.
// Jobs with equal scores keep their input order.
func RankJobs(corpus []jobs.JobPosting, userSkills []string) []Match {
	matches := make([]Match, 0, len(corpus))
	for _, job := range corpus {
		matches = append(matches, Score(job, userSkills))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	return matches
}

// TopMatches returns at most limit matches. A non-positive limit returns all of them.
func TopMatches(matches []Match, limit int) []Match {
	if limit <= 0 || limit >= len(matches) {
		return matches
	}
	return matches[:limit]
}

// AboveThreshold keeps matches scoring at least minScore, preserving order.
func AboveThreshold(matches []Match, minScore int) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.MatchScore >= minScore {
			out = append(out, m)
		}
	}
	return out
}
