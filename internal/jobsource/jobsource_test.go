package jobsource

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobgenius/internal/jobs"
)

func arbeitnowServer(t *testing.T, gzipped bool) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		body := map[string]any{}
		switch page {
		case "", "1":
			body["data"] = []map[string]any{{
				"slug":         "senior-go-developer-acme-123",
				"company_name": "Acme",
				"title":        "Senior Go Developer",
				"description":  "<p>Build <strong>Go</strong> services</p>",
				"remote":       true,
				"url":          "https://arbeitnow.com/jobs/123",
				"tags":         []string{"Go", "Kubernetes"},
				"job_types":    []string{"full time"},
				"location":     "Berlin",
				"created_at":   1700000000,
			}}
			body["links"] = map[string]any{"next": srv.URL + "/api?page=2"}
		case "2":
			body["data"] = []map[string]any{{
				"slug":         "designer-studio",
				"company_name": "Studio",
				"title":        "Designer",
				"description":  "Figma work",
				"remote":       false,
				"url":          "https://arbeitnow.com/jobs/designer",
				"tags":         nil,
				"job_types":    []string{"Part-time"},
				"location":     "",
			}}
			body["links"] = map[string]any{"next": nil}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if gzipped && r.Header.Get("Accept-Encoding") == acceptEncoding {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			defer gz.Close()
			_ = json.NewEncoder(gz).Encode(body)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestArbeitnowFetchAllFollowsPages(t *testing.T) {
	for _, gzipped := range []bool{false, true} {
		t.Run(fmt.Sprintf("gzip=%v", gzipped), func(t *testing.T) {
			srv := arbeitnowServer(t, gzipped)
			src := NewArbeitnow(ArbeitnowConfig{URL: srv.URL + "/api", MaxPages: 5, PageInterval: time.Millisecond}, srv.Client(), nil)

			postings := src.FetchAll(context.Background())
			require.Len(t, postings, 2)

			first := postings[0]
			assert.Equal(t, int64(123), first.ID)
			assert.Equal(t, "Senior Go Developer", first.Title)
			assert.Equal(t, "Acme", first.Company)
			assert.Equal(t, "Berlin", first.Location)
			assert.Equal(t, "Remote", first.JobType)
			assert.Equal(t, ArbeitnowName, first.Source)
			assert.Equal(t, []string{"Go", "Kubernetes"}, first.Skills)
			assert.Equal(t, "Build **Go** services", first.Description)

			second := postings[1]
			assert.Equal(t, "Remote", second.Location)
			assert.Equal(t, "Part-time", second.JobType)
			assert.NotNil(t, second.Skills)
			assert.Empty(t, second.Skills)
			assert.Positive(t, second.ID)
		})
	}
}

func TestArbeitnowRespectsMaxPages(t *testing.T) {
	srv := arbeitnowServer(t, false)
	src := NewArbeitnow(ArbeitnowConfig{URL: srv.URL + "/api", MaxPages: 1, PageInterval: time.Millisecond}, srv.Client(), nil)

	assert.Len(t, src.FetchAll(context.Background()), 1)
}

func TestArbeitnowFailureYieldsEmptyCorpus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewArbeitnow(ArbeitnowConfig{URL: srv.URL}, srv.Client(), nil)

	postings := src.FetchAll(context.Background())
	require.NotNil(t, postings)
	assert.Empty(t, postings)
	assert.Empty(t, src.Search(context.Background(), "go"))
}

func TestArbeitnowSearchFilters(t *testing.T) {
	srv := arbeitnowServer(t, false)
	src := NewArbeitnow(ArbeitnowConfig{URL: srv.URL + "/api", MaxPages: 2, PageInterval: time.Millisecond}, srv.Client(), nil)

	postings := src.Search(context.Background(), "kubernetes")
	require.Len(t, postings, 1)
	assert.Equal(t, "Acme", postings[0].Company)
}

func TestSlugID(t *testing.T) {
	assert.Equal(t, int64(42), slugID("job-4-2"))
	assert.Equal(t, slugID("no-digits"), slugID("no-digits"))
	assert.NotEqual(t, slugID("no-digits"), slugID("other"))
	assert.Positive(t, slugID("99999999999999999999999"))
}

const ddgPage = `<html><body><table>
<tr><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fjobs.example.com%2F1&rut=x" class="result-link">Go Developer Job - Remote</a></td></tr>
<tr><td class="result-snippet">Hiring at Acme Corp - Go engineers wanted in Austin, TX</td></tr>
<tr><td><a rel="nofollow" href="https://example.com/recipes" class="result-link">Best pancakes</a></td></tr>
<tr><td class="result-snippet">Fluffy and quick.</td></tr>
<tr><td><a rel="nofollow" href="https://careers.example.org/42" class="result-link">Backend Careers</a></td></tr>
<tr><td class="result-snippet"></td></tr>
</table></body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(ddgPage))
	}))
	defer srv.Close()

	src := NewDuckDuckGo(DuckDuckGoConfig{URL: srv.URL + "/lite", Location: "Texas"}, srv.Client(), nil)

	postings := src.Search(context.Background(), "golang")
	assert.Equal(t, "golang jobs in Texas", gotQuery)
	require.Len(t, postings, 2)

	first := postings[0]
	assert.Equal(t, "Go Developer Job - Remote", first.Title)
	assert.Equal(t, "https://jobs.example.com/1", first.Link)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "Austin, TX", first.Location)
	assert.Equal(t, DuckDuckGoName, first.Source)
	assert.NotNil(t, first.Skills)

	second := postings[1]
	assert.Equal(t, "https://careers.example.org/42", second.Link)
	assert.Equal(t, defaultDDGCompany, second.Company)
	assert.Equal(t, "Texas", second.Location)
	assert.Equal(t, defaultDescription, second.Description)
}

func TestDuckDuckGoFetchAllUsesDefaultQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	src := NewDuckDuckGo(DuckDuckGoConfig{URL: srv.URL}, srv.Client(), nil)

	postings := src.FetchAll(context.Background())
	assert.Equal(t, defaultDDGQuery+" jobs", gotQuery)
	require.NotNil(t, postings)
	assert.Empty(t, postings)
}

func TestFilter(t *testing.T) {
	corpus := []jobs.JobPosting{
		{ID: 1, Title: "Go Developer", Company: "Acme"},
		{ID: 2, Title: "Designer", Location: "Berlin"},
		{ID: 3, Title: "Analyst", Skills: []string{"SQL"}},
		{ID: 4, Title: "Writer", Description: "Write about golang"},
	}

	ids := func(postings []jobs.JobPosting) []int64 {
		out := []int64{}
		for _, p := range postings {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 4}, ids(Filter(corpus, " GO ")))
	assert.Equal(t, []int64{2}, ids(Filter(corpus, "berlin")))
	assert.Equal(t, []int64{3}, ids(Filter(corpus, "sql")))
	assert.Equal(t, []int64{1}, ids(Filter(corpus, "acme")))
	assert.Len(t, Filter(corpus, ""), 4)
	assert.Empty(t, Filter(corpus, "rust"))
}

type staticSource struct {
	name     string
	postings []jobs.JobPosting
	delay    time.Duration
	mu       sync.Mutex
	calls    int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) FetchAll(ctx context.Context) []jobs.JobPosting {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.postings
}

func (s *staticSource) Search(ctx context.Context, query string) []jobs.JobPosting {
	return Filter(s.FetchAll(ctx), query)
}

type memoryCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	if m.failGet {
		return false, errors.New("connection refused")
	}
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttls[key] = ttl
	return nil
}

func TestCachedServesSecondCallFromCache(t *testing.T) {
	upstream := &staticSource{name: "Arbeitnow", postings: []jobs.JobPosting{{ID: 1, Title: "Go Developer", Skills: []string{"Go"}}}}
	store := newMemoryCache()
	cached := NewCached(upstream, store, time.Minute, nil)

	first := cached.FetchAll(context.Background())
	second := cached.FetchAll(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, time.Minute, store.ttls["jobs:arbeitnow:all"])
	assert.Equal(t, "Arbeitnow", cached.Name())

	assert.Len(t, cached.Search(context.Background(), "Go Developer"), 1)
	_, ok := store.data["jobs:arbeitnow:search:go_developer"]
	assert.True(t, ok)
}

func TestCachedSkipsEmptyResultsAndReadErrors(t *testing.T) {
	upstream := &staticSource{name: "DuckDuckGo"}
	store := newMemoryCache()
	cached := NewCached(upstream, store, 0, nil)

	assert.Empty(t, cached.FetchAll(context.Background()))
	assert.Empty(t, cached.FetchAll(context.Background()))
	assert.Equal(t, 2, upstream.calls)
	assert.Empty(t, store.data)

	store.failGet = true
	upstream.postings = []jobs.JobPosting{{ID: 9}}
	assert.Len(t, cached.FetchAll(context.Background()), 1)
}

func TestMergeKeepsSourceOrder(t *testing.T) {
	slow := &staticSource{name: "slow", postings: []jobs.JobPosting{{ID: 1}, {ID: 2}}, delay: 20 * time.Millisecond}
	fast := &staticSource{name: "fast", postings: []jobs.JobPosting{{ID: 3}}}
	empty := &staticSource{name: "empty"}

	merged := Merge(nil, slow, empty, fast)

	postings := merged.FetchAll(context.Background())
	require.Len(t, postings, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{postings[0].ID, postings[1].ID, postings[2].ID})
	assert.Len(t, merged.Sources(), 3)

	assert.NotNil(t, Merge(nil).FetchAll(context.Background()))
}

type failingLister struct{ err error }

func (f failingLister) ListJobs(context.Context) ([]jobs.JobPosting, error) {
	return nil, f.err
}

type sliceLister []jobs.JobPosting

func (s sliceLister) ListJobs(context.Context) ([]jobs.JobPosting, error) {
	return s, nil
}

func TestStoreSource(t *testing.T) {
	src := NewStore(sliceLister{{ID: 1, Title: "Frontend Developer"}, {ID: 2, Title: "UX Researcher"}}, nil)
	assert.Len(t, src.FetchAll(context.Background()), 2)
	assert.Len(t, src.Search(context.Background(), "frontend"), 1)

	broken := NewStore(failingLister{err: errors.New("db down")}, nil)
	postings := broken.FetchAll(context.Background())
	require.NotNil(t, postings)
	assert.Empty(t, postings)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "jobs:arbeitnow:all", AllKey("Arbeitnow"))
	assert.True(t, strings.HasPrefix(AllKey("HeadHunter"), strings.TrimSuffix(KeysPattern, "*")))
	assert.Equal(t, "jobs:duckduckgo:search:senior_go", SearchKey("DuckDuckGo", "  Senior   Go "))
	assert.True(t, strings.HasPrefix(SearchKey("x", ""), "jobs:x:search:"))
}
