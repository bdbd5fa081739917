package jobsource

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/logger"
)

const (
	ArbeitnowName = "Arbeitnow"

	arbeitnowURL         = "https://arbeitnow.com/api/job-board-api"
	defaultArbeitnowPage = 1
	defaultPageInterval  = time.Second

	defaultLocation = "Remote"
	remoteJobType   = "Remote"
	defaultJobType  = "Full-time"
)

type ArbeitnowConfig struct {
	URL          string        `mapstructure:"url"`
	MaxPages     int           `mapstructure:"max-pages"`
	PageInterval time.Duration `mapstructure:"page-interval"`
}

type arbeitnowResponse struct {
	Data  []map[string]any `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"`
}

// Arbeitnow reads the public Arbeitnow job board API.
type Arbeitnow struct {
	client   httpClient
	url      string
	maxPages int
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewArbeitnow(cfg ArbeitnowConfig, client *http.Client, log *zap.Logger) *Arbeitnow {
	log = logger.WithSource(log, ArbeitnowName)

	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = arbeitnowURL
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultArbeitnowPage
	}
	interval := cfg.PageInterval
	if interval <= 0 {
		interval = defaultPageInterval
	}

	return &Arbeitnow{
		client:   newHTTPClient(client, log),
		url:      url,
		maxPages: maxPages,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   log,
	}
}

func (a *Arbeitnow) Name() string { return ArbeitnowName }

func (a *Arbeitnow) FetchAll(ctx context.Context) []jobs.JobPosting {
	var items []map[string]any

	next := a.url
	for page := 1; page <= a.maxPages && next != ""; page++ {
		if err := a.limiter.Wait(ctx); err != nil {
			a.logger.Warn("arbeitnow fetch interrupted", zap.Int("page", page), zap.Error(err))
			break
		}

		resp, err := a.fetchPage(ctx, next)
		if err != nil {
			a.logger.Warn("arbeitnow fetch failed", zap.Int("page", page), zap.Error(err))
			break
		}

		a.logger.Debug("got arbeitnow page", zap.Int("page", page), zap.Int("items", len(resp.Data)))
		items = append(items, resp.Data...)
		next = resp.Links.Next
	}

	var decoded []arbeitnowJob
	cfg := &mapstructure.DecoderConfig{
		Result:           &decoded,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		a.logger.Error("build arbeitnow decoder", zap.Error(err))
		return []jobs.JobPosting{}
	}
	if err := decoder.Decode(items); err != nil {
		a.logger.Warn("decode arbeitnow items", zap.Error(err))
		return []jobs.JobPosting{}
	}

	postings := make([]jobs.JobPosting, 0, len(decoded))
	for _, item := range decoded {
		postings = append(postings, a.toPosting(item))
	}
	return postings
}

func (a *Arbeitnow) Search(ctx context.Context, query string) []jobs.JobPosting {
	return Filter(a.FetchAll(ctx), query)
}

func (a *Arbeitnow) fetchPage(ctx context.Context, url string) (*arbeitnowResponse, error) {
	data, err := a.client.get(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}

	var resp arbeitnowResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *Arbeitnow) toPosting(item arbeitnowJob) jobs.JobPosting {
	location := strings.TrimSpace(item.Location)
	if location == "" {
		location = defaultLocation
	}

	jobType := defaultJobType
	switch {
	case item.Remote:
		jobType = remoteJobType
	case len(item.JobTypes) > 0:
		jobType = item.JobTypes[0]
	}

	description := item.Description
	if md, err := htmltomarkdown.ConvertString(item.Description); err == nil {
		description = strings.TrimSpace(md)
	} else {
		a.logger.Debug("keep html description", zap.String("slug", item.Slug), zap.Error(err))
	}

	skills := item.Tags
	if skills == nil {
		skills = []string{}
	}

	return jobs.JobPosting{
		ID:          slugID(item.Slug),
		Title:       item.Title,
		Company:     item.CompanyName,
		Location:    location,
		Description: description,
		JobType:     jobType,
		Source:      ArbeitnowName,
		Link:        item.URL,
		Skills:      skills,
	}
}

// slugID takes the digits of a slug as the job ID, or a stable hash when there are none.
func slugID(slug string) int64 {
	var digits strings.Builder
	for _, r := range slug {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if id, err := strconv.ParseInt(digits.String(), 10, 64); err == nil && id > 0 {
		return id
	}

	return linkID(slug)
}
