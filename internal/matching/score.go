// Package matching scores job postings against a skill set, ranks them and reports skill gaps.
//
// Scoring policy. Every distinct, non-blank user skill can earn credit against a job:
//
//	exact match with a job skill tag        2
//	partial match (substring either way)    1   only when no exact match exists
//	mentioned in the job title             +1
//	mentioned in the job description       +0.5
//
// The total is divided by 2 × (number of user skills), expressed as a percentage, rounded
// and clamped to [0, 100]. Jobs without skill tags are scored on title and description
// mentions only, with the same denominator. An empty skill set scores 0.
//
// All functions are pure: inputs are never mutated and results are freshly allocated.
package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/skills"
)

const (
	exactWeight       = 2.0
	partialWeight     = 1.0
	titleWeight       = 1.0
	descriptionWeight = 0.5

	// maxSkillWeight is the per-skill ceiling used for the denominator.
	maxSkillWeight = 2.0

	minScore = 0
	maxScore = 100
)

// Match is a scored job. Job is a copy carrying MatchScore.
type Match struct {
	Job          jobs.JobPosting `json:"job"`
	MatchScore   int             `json:"matchScore"`
	MatchReasons []string        `json:"matchReasons"`
}

// breakdown records which user skills earned which kind of credit.
type breakdown struct {
	credit      float64
	exactTags   int
	totalTags   int
	partial     []string
	inTitle     []string
	description int
}

// Score computes the match score and reasons for one job.
func Score(job jobs.JobPosting, userSkills []string) Match {
	user := skills.NewSet(userSkills...)
	b := evaluate(job, user)

	score := 0
	if user.Len() > 0 {
		pct := b.credit / (maxSkillWeight * float64(user.Len())) * 100
		score = clampInt(int(math.Round(pct)), minScore, maxScore)
	}

	return Match{
		Job:          job.WithMatchScore(score),
		MatchScore:   score,
		MatchReasons: reasons(job, b),
	}
}

func evaluate(job jobs.JobPosting, user *skills.Set) breakdown {
	// nil tags are treated as an empty list
	tags := skills.NewSet(job.Skills...)
	title := skills.Normalize(job.Title)
	description := skills.Normalize(job.Description)

	b := breakdown{totalTags: tags.Len()}

	for _, tag := range tags.Names() {
		if user.Has(tag) {
			b.exactTags++
		}
	}

	for _, skill := range user.Names() {
		switch {
		case tags.Has(skill):
			b.credit += exactWeight
		case partialMatch(skill, tags.Names()):
			b.credit += partialWeight
			b.partial = append(b.partial, skill)
		}

		if strings.Contains(title, skill) {
			b.credit += titleWeight
			b.inTitle = append(b.inTitle, skill)
		}

		if strings.Contains(description, skill) {
			b.credit += descriptionWeight
			b.description++
		}
	}

	return b
}

func partialMatch(skill string, tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, skill) || strings.Contains(skill, tag) {
			return true
		}
	}
	return false
}

// reasons always starts with the skill overlap sentence.
func reasons(job jobs.JobPosting, b breakdown) []string {
	out := []string{fmt.Sprintf("You have %d of %d required skills", b.exactTags, b.totalTags)}

	if len(b.partial) > 0 {
		out = append(out, "Related experience: "+strings.Join(b.partial, ", "))
	}
	if len(b.inTitle) > 0 {
		out = append(out, "Your skills appear in the job title: "+strings.Join(b.inTitle, ", "))
	}
	if b.description > 0 {
		out = append(out, fmt.Sprintf("%d of your skills are mentioned in the description", b.description))
	}
	if loc := strings.TrimSpace(job.Location); loc != "" {
		out = append(out, "Location: "+loc)
	}
	if salary := strings.TrimSpace(job.Salary); salary != "" {
		out = append(out, "Salary: "+salary)
	}
	if jobType := strings.TrimSpace(job.JobType); jobType != "" {
		out = append(out, "Job type: "+jobType)
	}

	return out
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
