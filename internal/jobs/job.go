package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	JobIDField      = "ID"
	JobCompanyField = "Company"
	JobTypeField    = "JobType"
)

// Jobs is an ordered job corpus.
type Jobs struct {
	Items []*JobPosting
}

// JobPosting is a single listing. MatchScore is an output attribute and is never trusted as input.
type JobPosting struct {
	ID          int64    `json:"id" mapstructure:"id"`
	Title       string   `json:"title" mapstructure:"title"`
	Company     string   `json:"company" mapstructure:"company"`
	Location    string   `json:"location" mapstructure:"location"`
	Description string   `json:"description" mapstructure:"description"`
	Salary      string   `json:"salary,omitempty" mapstructure:"salary"`
	JobType     string   `json:"jobType,omitempty" mapstructure:"job_type"`
	Source      string   `json:"source,omitempty" mapstructure:"source"`
	Link        string   `json:"link,omitempty" mapstructure:"link"`
	Skills      []string `json:"skills" mapstructure:"skills"`
	MatchScore  *int     `json:"matchScore,omitempty" mapstructure:"-"`
}

// Clone returns a deep copy so callers can annotate it without touching the original.
func (j JobPosting) Clone() JobPosting {
	out := j
	if j.Skills != nil {
		out.Skills = make([]string, len(j.Skills))
		copy(out.Skills, j.Skills)
	}
	if j.MatchScore != nil {
		score := *j.MatchScore
		out.MatchScore = &score
	}
	return out
}

// WithMatchScore returns a copy carrying the given score.
func (j JobPosting) WithMatchScore(score int) JobPosting {
	out := j.Clone()
	out.MatchScore = &score
	return out
}

// GetStringField returns a field by name for exclusion rules.
func (j *JobPosting) GetStringField(name string) string {
	switch name {
	case JobIDField:
		return strconv.FormatInt(j.ID, 10)
	case JobCompanyField:
		return j.Company
	case JobTypeField:
		return j.JobType
	default:
		return ""
	}
}

// New wraps plain postings into a corpus. Postings are copied.
func New(items []JobPosting) *Jobs {
	out := &Jobs{Items: make([]*JobPosting, 0, len(items))}
	for _, item := range items {
		cp := item.Clone()
		out.Items = append(out.Items, &cp)
	}
	return out
}

// Postings returns value copies of the corpus in order.
func (v *Jobs) Postings() []JobPosting {
	out := make([]JobPosting, 0, v.Len())
	if v == nil {
		return out
	}
	for _, item := range v.Items {
		if item == nil {
			continue
		}
		out = append(out, item.Clone())
	}
	return out
}

func (v *Jobs) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Items)
}

// Exclude drops every job whose field matches one of targets and returns the dropped IDs.
// Remaining jobs keep their relative order.
func (v *Jobs) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[target] = struct{}{}
	}

	return v.removeIf(func(job *JobPosting) bool {
		_, ok := set[job.GetStringField(name)]
		return ok
	})
}

// ExcludeFold is Exclude with case-insensitive, whitespace-trimmed comparison.
func (v *Jobs) ExcludeFold(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	return v.removeIf(func(job *JobPosting) bool {
		return containsFold(targets, job.GetStringField(name))
	})
}

// KeepFold drops every job whose field is not one of targets, ignoring case and surrounding spaces.
func (v *Jobs) KeepFold(name string, targets []string) []string {
	return v.removeIf(func(job *JobPosting) bool {
		return !containsFold(targets, job.GetStringField(name))
	})
}

func containsFold(targets []string, value string) bool {
	value = strings.TrimSpace(value)
	for _, target := range targets {
		if strings.EqualFold(strings.TrimSpace(target), value) {
			return true
		}
	}
	return false
}

func (v *Jobs) removeIf(drop func(*JobPosting) bool) []string {
	var excluded []string
	kept := v.Items[:0]
	for _, job := range v.Items {
		if drop(job) {
			excluded = append(excluded, strconv.FormatInt(job.ID, 10))
			continue
		}
		kept = append(kept, job)
	}
	for i := len(kept); i < len(v.Items); i++ {
		v.Items[i] = nil
	}
	v.Items = kept
	return excluded
}

// ReportByCompany groups a short summary of each job under its company.
func (v *Jobs) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range v.Items {
		key := job.Company
		if key == "" {
			key = "unknown"
		}
		entry := map[string]string{
			"title":    job.Title,
			"link":     job.Link,
			"location": job.Location,
			"salary":   job.Salary,
			"source":   job.Source,
		}
		if job.MatchScore != nil {
			entry["match_score"] = strconv.Itoa(*job.MatchScore)
		}
		report[key] = append(report[key], entry)
	}
	return report
}

// DumpToTmpFile writes the payload as indented JSON into a temp file and returns its name.
func DumpToTmpFile(pattern string, payload any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ExcludedJobs is the on-disk list of jobs the user never wants to see again.
type ExcludedJobs struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	ID         int64
	Link       string
	Company    string
	ExcludedAt time.Time
}

func (v *Jobs) ToExcluded() *ExcludedJobs {
	excluded := &ExcludedJobs{}
	for _, job := range v.Items {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			ID:         job.ID,
			Link:       job.Link,
			Company:    job.Company,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

func GetExcludedJobsFromFile(path string) (*ExcludedJobs, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedJobs{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &excluded, nil
}

func (v *ExcludedJobs) Append(s *ExcludedJobs) {
	v.Items = append(v.Items, s.Items...)
}

func (v *ExcludedJobs) JobIDs() []string {
	ids := make([]string, 0, len(v.Items))
	for _, job := range v.Items {
		ids = append(ids, strconv.FormatInt(job.ID, 10))
	}
	return ids
}

func (v *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
