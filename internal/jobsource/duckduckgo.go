package jobsource

import (
	"bytes"
	"context"
	"hash/fnv"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/logger"
)

const (
	DuckDuckGoName = "DuckDuckGo"

	duckDuckGoLiteURL  = "https://lite.duckduckgo.com/lite"
	defaultDDGQuery    = "software developer"
	defaultDDGCompany  = "Company via DuckDuckGo"
	defaultDescription = "Click to view full job details"
)

var jobKeywords = []string{
	"job", "career", "position", "hiring", "employment", "work", "opportunity",
	"full-time", "part-time", "remote", "hybrid", "onsite", "salary",
}

var (
	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:at|by|from|via)\s+([A-Za-z0-9 ]+)[\s-]`),
		regexp.MustCompile(`^([A-Za-z0-9 ]+)\s+[-–]\s+`),
	}
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s+in\s+([A-Za-z0-9 ,]+)`),
		regexp.MustCompile(`([A-Za-z]+,\s*[A-Z]{2})`),
	}
)

type DuckDuckGoConfig struct {
	URL          string `mapstructure:"url"`
	DefaultQuery string `mapstructure:"default-query"`
	Location     string `mapstructure:"location"`
}

// DuckDuckGo scrapes job-like results from the DuckDuckGo lite HTML endpoint.
type DuckDuckGo struct {
	client       httpClient
	url          string
	defaultQuery string
	location     string
	logger       *zap.Logger
}

func NewDuckDuckGo(cfg DuckDuckGoConfig, client *http.Client, log *zap.Logger) *DuckDuckGo {
	log = logger.WithSource(log, DuckDuckGoName)

	d := &DuckDuckGo{
		client:       newHTTPClient(client, log),
		url:          strings.TrimSpace(cfg.URL),
		defaultQuery: strings.TrimSpace(cfg.DefaultQuery),
		location:     strings.TrimSpace(cfg.Location),
		logger:       log,
	}
	if d.url == "" {
		d.url = duckDuckGoLiteURL
	}
	if d.defaultQuery == "" {
		d.defaultQuery = defaultDDGQuery
	}
	return d
}

func (d *DuckDuckGo) Name() string { return DuckDuckGoName }

// FetchAll searches for the configured default query.
func (d *DuckDuckGo) FetchAll(ctx context.Context) []jobs.JobPosting {
	return d.Search(ctx, d.defaultQuery)
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) []jobs.JobPosting {
	query = strings.TrimSpace(query)
	if query == "" {
		query = d.defaultQuery
	}

	search := query + " jobs"
	if d.location != "" {
		search = query + " jobs in " + d.location
	}

	u, err := url.Parse(d.url)
	if err != nil {
		d.logger.Error("invalid duckduckgo url", zap.String("url", d.url), zap.Error(err))
		return []jobs.JobPosting{}
	}
	q := u.Query()
	q.Set("q", search)
	u.RawQuery = q.Encode()

	data, err := d.client.get(ctx, u.String(), "text/html")
	if err != nil {
		d.logger.Warn("duckduckgo search failed", zap.String("query", search), zap.Error(err))
		return []jobs.JobPosting{}
	}

	postings, err := d.parse(data)
	if err != nil {
		d.logger.Warn("parse duckduckgo results", zap.Error(err))
		return []jobs.JobPosting{}
	}

	d.logger.Debug("duckduckgo results", zap.String("query", search), zap.Int("jobs", len(postings)))
	return postings
}

func (d *DuckDuckGo) parse(data []byte) ([]jobs.JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	snippets := doc.Find(".result-snippet").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})

	postings := []jobs.JobPosting{}
	doc.Find("a.result-link").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Text())
		href, ok := s.Attr("href")
		if !ok || title == "" {
			return
		}
		link := unwrapDDGURL(href)
		if link == "" {
			return
		}

		var snippet string
		if i < len(snippets) {
			snippet = snippets[i]
		}
		if !looksLikeJob(title, snippet) {
			return
		}

		postings = append(postings, d.toPosting(title, snippet, link))
	})

	return postings, nil
}

func (d *DuckDuckGo) toPosting(title, snippet, link string) jobs.JobPosting {
	company := firstSubmatch(companyPatterns, snippet)
	if company == "" {
		company = defaultDDGCompany
	}

	location := firstSubmatch(locationPatterns, snippet)
	if location == "" {
		location = d.location
	}
	if location == "" {
		location = defaultLocation
	}

	description := snippet
	if description == "" {
		description = defaultDescription
	}

	return jobs.JobPosting{
		ID:          linkID(link),
		Title:       title,
		Company:     company,
		Location:    location,
		Description: description,
		Source:      DuckDuckGoName,
		Link:        link,
		Skills:      []string{},
	}
}

func looksLikeJob(title, snippet string) bool {
	text := strings.ToLower(title + " " + snippet)
	for _, kw := range jobKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

// unwrapDDGURL resolves DuckDuckGo redirect links like //duckduckgo.com/l/?uddg=<target>.
func unwrapDDGURL(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") || strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if target := u.Query().Get("uddg"); target != "" {
				return target
			}
		}
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}

func linkID(link string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(link))
	return int64(h.Sum64() >> 1)
}
