package jobsource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headHunterServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if id, ok := strings.CutPrefix(r.URL.Path, "/vacancies/"); ok {
			if id != "101" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":          "101",
				"description": "<p>Write <b>Go</b></p>",
				"key_skills":  []map[string]any{{"name": "Go"}, {"name": " "}, {"name": "PostgreSQL"}},
			})
			return
		}

		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()

		page := r.URL.Query().Get("page")
		body := map[string]any{"pages": 2, "found": 2, "per_page": 1}
		switch page {
		case "", "0":
			body["page"] = 0
			body["items"] = []map[string]any{{
				"id":            "101",
				"name":          "Go Developer",
				"area":          map[string]any{"name": "Moscow"},
				"schedule":      map[string]any{"id": "remote", "name": "Remote work"},
				"employer":      map[string]any{"name": "Acme"},
				"salary":        map[string]any{"from": 1000, "to": nil, "currency": "USD"},
				"alternate_url": "https://hh.ru/vacancy/101",
				"snippet":       map[string]any{"requirement": "Go", "responsibility": "Services"},
			}}
		case "1":
			body["page"] = 1
			body["items"] = []map[string]any{{
				"id":            "202",
				"name":          "Analyst",
				"area":          map[string]any{"name": ""},
				"schedule":      map[string]any{"id": "shift", "name": "Shift"},
				"employer":      map[string]any{"name": "DataCo"},
				"salary":        nil,
				"alternate_url": "https://hh.ru/vacancy/202",
				"snippet":       map[string]any{"requirement": "SQL", "responsibility": "Reports"},
			}}
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	return srv, &queries
}

func TestHeadHunterSearchFollowsPages(t *testing.T) {
	srv, queries := headHunterServer(t)
	src := NewHeadHunter(HeadHunterConfig{URL: srv.URL + "/", MaxPages: 3, Areas: []int{1, 2}}, srv.Client(), nil)

	postings := src.Search(context.Background(), "golang")
	require.Len(t, postings, 2)
	require.Len(t, *queries, 2)
	assert.Contains(t, (*queries)[0], "area=1&area=2")
	assert.Contains(t, (*queries)[0], "text=golang")

	first := postings[0]
	assert.Equal(t, int64(101), first.ID)
	assert.Equal(t, "Go Developer", first.Title)
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, "Moscow", first.Location)
	assert.Equal(t, remoteJobType, first.JobType)
	assert.Equal(t, "from 1000 USD", first.Salary)
	assert.Equal(t, HeadHunterName, first.Source)
	assert.Equal(t, "Services Go", first.Description)
	assert.Empty(t, first.Skills)

	second := postings[1]
	assert.Equal(t, defaultLocation, second.Location)
	assert.Equal(t, "Shift", second.JobType)
	assert.Empty(t, second.Salary)
}

func TestHeadHunterDetailsAddSkills(t *testing.T) {
	srv, _ := headHunterServer(t)
	src := NewHeadHunter(HeadHunterConfig{URL: srv.URL, MaxPages: 2, Details: true}, srv.Client(), nil)

	postings := src.FetchAll(context.Background())
	require.Len(t, postings, 2)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, postings[0].Skills)
	assert.Equal(t, "Write **Go**", postings[0].Description)
	// the second vacancy has no details and keeps its snippet
	assert.Equal(t, "Reports SQL", postings[1].Description)
}

func TestHeadHunterMaxPagesAndFailures(t *testing.T) {
	srv, queries := headHunterServer(t)
	src := NewHeadHunter(HeadHunterConfig{URL: srv.URL}, srv.Client(), nil)

	assert.Len(t, src.FetchAll(context.Background()), 1)
	assert.Contains(t, (*queries)[0], "text="+defaultHHQuery)

	down := NewHeadHunter(HeadHunterConfig{URL: "http://127.0.0.1:1"}, nil, nil)
	postings := down.Search(context.Background(), "go")
	require.NotNil(t, postings)
	assert.Empty(t, postings)
}

func TestBuildParams(t *testing.T) {
	q := buildParams(&headHunterParams{
		Text:      "go",
		Schedules: []string{"remote", " "},
		PerPage:   50,
	})

	assert.Equal(t, "go", q.Get("text"))
	assert.Equal(t, []string{"remote"}, q["schedule"])
	assert.Equal(t, "50", q.Get("per_page"))
	assert.False(t, q.Has("period"))
	assert.False(t, q.Has("page"))
	assert.False(t, q.Has("area"))
}

func TestFormatSalary(t *testing.T) {
	assert.Equal(t, "100-200 EUR", formatSalary(100, 200, "EUR"))
	assert.Equal(t, "up to 300", formatSalary(0, 300, ""))
	assert.Empty(t, formatSalary(0, 0, "RUB"))
}
