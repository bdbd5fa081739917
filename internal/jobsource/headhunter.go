package jobsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/logger"
)

const (
	HeadHunterName = "HeadHunter"

	headHunterURL       = "https://api.hh.ru"
	headHunterSearch    = "/vacancies"
	defaultHHPerPage    = 100
	defaultHHMaxPages   = 1
	defaultHHDetails    = 4
	defaultHHQuery      = "developer"
	headHunterRemoteID  = "remote"
	headHunterFullDayID = "fullDay"
)

// HeadHunterConfig configures the public hh.ru vacancy search. No token is needed.
type HeadHunterConfig struct {
	URL          string   `mapstructure:"url"`
	DefaultQuery string   `mapstructure:"default-query"`
	Areas        []int    `mapstructure:"areas"`
	Schedules    []string `mapstructure:"schedules"`
	Period       uint     `mapstructure:"period"`
	PerPage      int      `mapstructure:"per-page"`
	MaxPages     int      `mapstructure:"max-pages"`
	// Details fetches every vacancy to get key skills and the full description.
	Details        bool `mapstructure:"details"`
	DetailsWorkers int  `mapstructure:"details-workers"`
}

// headHunterParams is encoded into the search query string.
type headHunterParams struct {
	Text string `hhparam:"text"`
	// hhparam may repeat for slices.
	Areas     []int    `hhparam:"area"`
	Schedules []string `hhparam:"schedule"`
	Period    uint     `hhparam:"period"`
	PerPage   int      `hhparam:"per_page"`
	Page      int      `hhparam:"page"`
}

type headHunterPage struct {
	Items   []map[string]any `json:"items"`
	Found   int              `json:"found"`
	Pages   int              `json:"pages"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

type headHunterVacancy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Schedule struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"schedule"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Salary *struct {
		From     int    `json:"from"`
		To       int    `json:"to"`
		Currency string `json:"currency"`
	} `json:"salary"`
	AlternateURL string `json:"alternate_url"`
	Description  string `json:"description"`
	KeySkills    []struct {
		Name string `json:"name"`
	} `json:"key_skills"`
	Snippet struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
}

// HeadHunter reads vacancies from the hh.ru API.
type HeadHunter struct {
	client httpClient
	cfg    HeadHunterConfig
	logger *zap.Logger
}

func NewHeadHunter(cfg HeadHunterConfig, client *http.Client, log *zap.Logger) *HeadHunter {
	log = logger.WithSource(log, HeadHunterName)

	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		cfg.URL = headHunterURL
	}
	if strings.TrimSpace(cfg.DefaultQuery) == "" {
		cfg.DefaultQuery = defaultHHQuery
	}
	if cfg.PerPage <= 0 || cfg.PerPage > defaultHHPerPage {
		cfg.PerPage = defaultHHPerPage
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultHHMaxPages
	}
	if cfg.DetailsWorkers <= 0 {
		cfg.DetailsWorkers = defaultHHDetails
	}

	return &HeadHunter{
		client: newHTTPClient(client, log),
		cfg:    cfg,
		logger: log,
	}
}

func (h *HeadHunter) Name() string { return HeadHunterName }

// FetchAll searches for the configured default query.
func (h *HeadHunter) FetchAll(ctx context.Context) []jobs.JobPosting {
	return h.Search(ctx, "")
}

func (h *HeadHunter) Search(ctx context.Context, query string) []jobs.JobPosting {
	query = strings.TrimSpace(query)
	if query == "" {
		query = h.cfg.DefaultQuery
	}

	items, err := h.getItems(ctx, &headHunterParams{
		Text:      query,
		Areas:     h.cfg.Areas,
		Schedules: h.cfg.Schedules,
		Period:    h.cfg.Period,
		PerPage:   h.cfg.PerPage,
	})
	if err != nil {
		h.logger.Warn("headhunter search failed", zap.String("query", query), zap.Error(err))
	}

	var vacancies []headHunterVacancy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &vacancies,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		h.logger.Error("build headhunter decoder", zap.Error(err))
		return []jobs.JobPosting{}
	}
	if err := decoder.Decode(items); err != nil {
		h.logger.Warn("decode headhunter items", zap.Error(err))
		return []jobs.JobPosting{}
	}

	if h.cfg.Details {
		h.loadDetails(ctx, vacancies)
	}

	postings := make([]jobs.JobPosting, 0, len(vacancies))
	for _, v := range vacancies {
		postings = append(postings, h.toPosting(v))
	}
	return postings
}

// getItems collects items from every page up to MaxPages. Items read before a failure are kept.
func (h *HeadHunter) getItems(ctx context.Context, params *headHunterParams) ([]map[string]any, error) {
	var items []map[string]any

	for page := 0; page < h.cfg.MaxPages; page++ {
		params.Page = page
		resp, err := h.fetchPage(ctx, params)
		if err != nil {
			return items, err
		}

		h.logger.Debug("got response from hh.ru",
			zap.Int("page", resp.Page+1),
			zap.Int("pages", resp.Pages),
			zap.Int("found", resp.Found),
		)
		items = append(items, resp.Items...)

		if resp.Page >= resp.Pages-1 {
			break
		}
	}

	return items, nil
}

func (h *HeadHunter) fetchPage(ctx context.Context, params *headHunterParams) (*headHunterPage, error) {
	rawURL := fmt.Sprintf("%s%s?%s", h.cfg.URL, headHunterSearch, buildParams(params).Encode())
	data, err := h.client.get(ctx, rawURL, "application/json")
	if err != nil {
		return nil, err
	}

	var resp headHunterPage
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// loadDetails replaces search snippets with full vacancies. A failed lookup keeps the snippet.
func (h *HeadHunter) loadDetails(ctx context.Context, vacancies []headHunterVacancy) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.DetailsWorkers)

	for i := range vacancies {
		g.Go(func() error {
			rawURL := fmt.Sprintf("%s%s/%s", h.cfg.URL, headHunterSearch, url.PathEscape(vacancies[i].ID))
			data, err := h.client.get(ctx, rawURL, "application/json")
			if err != nil {
				h.logger.Debug("headhunter vacancy details failed", zap.String("id", vacancies[i].ID), zap.Error(err))
				return nil
			}

			var detailed headHunterVacancy
			if err := json.Unmarshal(data, &detailed); err != nil {
				h.logger.Debug("decode headhunter vacancy", zap.String("id", vacancies[i].ID), zap.Error(err))
				return nil
			}
			vacancies[i].Description = detailed.Description
			vacancies[i].KeySkills = detailed.KeySkills
			return nil
		})
	}

	_ = g.Wait()
}

func (h *HeadHunter) toPosting(v headHunterVacancy) jobs.JobPosting {
	location := strings.TrimSpace(v.Area.Name)
	if location == "" {
		location = defaultLocation
	}

	jobType := defaultJobType
	switch v.Schedule.ID {
	case headHunterRemoteID:
		jobType = remoteJobType
	case headHunterFullDayID, "":
	default:
		jobType = v.Schedule.Name
	}

	description := v.Description
	if description == "" {
		description = strings.TrimSpace(v.Snippet.Responsibility + " " + v.Snippet.Requirement)
	}
	if md, err := htmltomarkdown.ConvertString(description); err == nil {
		description = strings.TrimSpace(md)
	}

	skills := make([]string, 0, len(v.KeySkills))
	for _, s := range v.KeySkills {
		if name := strings.TrimSpace(s.Name); name != "" {
			skills = append(skills, name)
		}
	}

	id, err := strconv.ParseInt(v.ID, 10, 64)
	if err != nil || id <= 0 {
		id = linkID(v.AlternateURL)
	}

	posting := jobs.JobPosting{
		ID:          id,
		Title:       v.Name,
		Company:     v.Employer.Name,
		Location:    location,
		Description: description,
		JobType:     jobType,
		Source:      HeadHunterName,
		Link:        v.AlternateURL,
		Skills:      skills,
	}
	if v.Salary != nil {
		posting.Salary = formatSalary(v.Salary.From, v.Salary.To, v.Salary.Currency)
	}
	return posting
}

func formatSalary(from, to int, currency string) string {
	currency = strings.TrimSpace(currency)
	var s string
	switch {
	case from > 0 && to > 0:
		s = fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		s = fmt.Sprintf("from %d", from)
	case to > 0:
		s = fmt.Sprintf("up to %d", to)
	default:
		return ""
	}
	if currency != "" {
		s += " " + currency
	}
	return s
}

// buildParams encodes fields by their hhparam tag. Slices repeat the key, zero values are skipped.
func buildParams(params *headHunterParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("hhparam")
		if key == "" {
			continue
		}

		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case []int:
			for _, item := range v {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range v {
				if item = strings.TrimSpace(item); item != "" {
					q.Add(key, item)
				}
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}
	return q
}
