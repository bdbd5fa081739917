package matching

import (
	"math"
	"sort"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/skills"
)

// DefaultGapLimit is the number of gap entries reported by AnalyzeGap.
const DefaultGapLimit = 5

// GapEntry is an in-demand skill the user lacks. ImpactPercent is the share of jobs asking for it.
type GapEntry struct {
	Name          string `json:"name"`
	ImpactPercent int    `json:"impact"`
}

// AnalyzeGap reports the DefaultGapLimit most demanded skills missing from userSkills.
func AnalyzeGap(corpus []jobs.JobPosting, userSkills []string) []GapEntry {
	return AnalyzeGapN(corpus, userSkills, DefaultGapLimit)
}

// AnalyzeGapN is AnalyzeGap with an explicit limit. A non-positive limit returns every gap skill.
func AnalyzeGapN(corpus []jobs.JobPosting, userSkills []string, limit int) []GapEntry {
	if len(corpus) == 0 {
		return []GapEntry{}
	}

	user := skills.NewSet(userSkills...)
	freq := newFrequencyTable()

	for _, job := range corpus {
		// a tag counts once per job
		for _, tag := range skills.NewSet(job.Skills...).Names() {
			freq.inc(tag)
		}
	}

	entries := make([]GapEntry, 0, len(freq.keys))
	for _, key := range freq.keys {
		if user.Has(key) {
			continue
		}
		impact := math.Round(100 * float64(freq.counts[key]) / float64(len(corpus)))
		entries = append(entries, GapEntry{
			Name:          key,
			ImpactPercent: clampInt(int(impact), minScore, maxScore),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ImpactPercent > entries[j].ImpactPercent
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries
}

// frequencyTable counts keys and remembers the order they were first seen in.
type frequencyTable struct {
	keys   []string
	counts map[string]int
}

func newFrequencyTable() *frequencyTable {
	return &frequencyTable{counts: make(map[string]int)}
}

func (f *frequencyTable) inc(key string) {
	if _, ok := f.counts[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.counts[key]++
}
