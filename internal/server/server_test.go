package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobgenius/internal/ai"
	"github.com/spigell/jobgenius/internal/chat"
	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/service"
	"github.com/spigell/jobgenius/internal/storage"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type downService struct{}

func (downService) Complete(context.Context, string, []ai.Turn, string) (string, error) {
	return "", errors.New("unavailable")
}

func newTestApp(t *testing.T, log *zap.Logger) *fiber.App {
	t.Helper()

	store := storage.NewMemory(zap.NewNop())
	require.NoError(t, store.Seed(context.Background(), []jobs.JobPosting{
		{Title: "React Developer", Company: "TechCorp", Skills: []string{"React", "TypeScript"}},
		{Title: "DevOps Engineer", Company: "CloudSys", Skills: []string{"Docker", "Kubernetes"}},
	}))

	svc, err := service.New(service.Deps{
		Store:     store,
		Responder: chat.NewResponder(downService{}),
	})
	require.NoError(t, err)

	srv, err := New(Config{}, svc, log)
	require.NoError(t, err)
	return srv.App()
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != fiber.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)

	resp, env := call(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, MessageOK, env.Message)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
}

func TestSkillLifecycle(t *testing.T) {
	app := newTestApp(t, nil)

	resp, env := call(t, app, http.MethodPost, "/api/skills", map[string]any{"userId": 1, "name": "React", "level": 4})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[jobs.Skill](t, env)
	assert.Equal(t, "React", created.Name)

	resp, env = call(t, app, http.MethodPost, "/api/skills", map[string]any{"userId": 1, "name": " react "})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, fiber.StatusConflict, env.Status)

	resp, _ = call(t, app, http.MethodPost, "/api/skills", map[string]any{"userId": 1, "name": "Go", "level": 9})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = call(t, app, http.MethodPut, "/api/skills/1", map[string]any{"level": 5})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[jobs.Skill](t, env)
	require.NotNil(t, updated.Level)
	assert.Equal(t, 5, *updated.Level)

	resp, env = call(t, app, http.MethodGet, "/api/users/1/skills", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]jobs.Skill](t, env), 1)

	resp, _ = call(t, app, http.MethodDelete, "/api/skills/1", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, env = call(t, app, http.MethodDelete, "/api/skills/1", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", env.Message)
}

func TestInvalidIDs(t *testing.T) {
	app := newTestApp(t, nil)

	for _, path := range []string{"/api/users/abc/skills", "/api/jobs/0", "/api/users/-1/ai-settings"} {
		resp, env := call(t, app, http.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
		assert.Contains(t, env.Message, "Invalid", path)
	}
}

func TestMatchEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	call(t, app, http.MethodPost, "/api/skills", map[string]any{"userId": 1, "name": "react"})

	resp, env := call(t, app, http.MethodPost, "/api/users/1/jobs/match", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var matches []struct {
		Job          jobs.JobPosting `json:"job"`
		MatchScore   int             `json:"matchScore"`
		MatchReasons []string        `json:"matchReasons"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, 100, matches[0].MatchScore)
	assert.Equal(t, "You have 1 of 2 required skills", matches[0].MatchReasons[0])
	require.NotNil(t, matches[0].Job.MatchScore)
	assert.Equal(t, 100, *matches[0].Job.MatchScore)

	resp, _ = call(t, app, http.MethodGet, "/api/users/1/jobs/2/match", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/users/1/jobs/99/match", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, env = call(t, app, http.MethodGet, "/api/users/1/jobs?limit=5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &matches))
	assert.Len(t, matches, 1)

	resp, _ = call(t, app, http.MethodGet, "/api/users/1/jobs?limit=x", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeSkillsGapEndpoint(t *testing.T) {
	app := newTestApp(t, nil)

	resp, env := call(t, app, http.MethodPost, "/api/users/1/analyze-skills-gap", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	report := decode[service.GapReport](t, env)
	require.Len(t, report.MissingSkills, 4)
	assert.Equal(t, "react", report.MissingSkills[0].Name)
	assert.Equal(t, 50, report.MissingSkills[0].ImpactPercent)
}

func TestChatEndpoint(t *testing.T) {
	app := newTestApp(t, nil)

	resp, env := call(t, app, http.MethodPost, "/api/ai-chat", map[string]any{
		"message": "Any interview tips?",
		"previousMessages": []map[string]string{
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	reply := decode[chatResponse](t, env)
	assert.Equal(t, chat.Fallback(chat.DefaultRules, "any interview tips?"), reply.Response)

	_, env = call(t, app, http.MethodPost, "/api/ai-chat", map[string]any{"message": "   "})
	assert.Equal(t, chat.EmptyMessageReply, decode[chatResponse](t, env).Response)

	resp, _ = call(t, app, http.MethodPost, "/api/ai-chat", map[string]any{
		"message":          "hi",
		"previousMessages": []map[string]string{{"role": "system", "content": "x"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSettingsEndpoints(t *testing.T) {
	app := newTestApp(t, nil)

	resp, env := call(t, app, http.MethodGet, "/api/users/3/ai-settings", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, jobs.DefaultAISettings(3), decode[jobs.AISettings](t, env))

	resp, env = call(t, app, http.MethodPut, "/api/users/3/ai-settings", map[string]any{"matchThreshold": 60})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 60, decode[jobs.AISettings](t, env).MatchThreshold)

	resp, _ = call(t, app, http.MethodPut, "/api/users/3/ai-settings", map[string]any{"matchThreshold": 120})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestApplicationsAndResumes(t *testing.T) {
	app := newTestApp(t, nil)

	resp, env := call(t, app, http.MethodPost, "/api/applications", map[string]any{"userId": 1, "jobId": 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[jobs.Application](t, env)
	assert.Equal(t, jobs.StatusApplied, created.Status)

	resp, _ = call(t, app, http.MethodPost, "/api/applications", map[string]any{"userId": 1, "jobId": 1, "status": "ghosted"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPut, "/api/applications/1", map[string]any{"status": "interview"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = call(t, app, http.MethodGet, "/api/users/1/applications?status=interview", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	views := decode[[]service.ApplicationView](t, env)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Job)
	assert.Equal(t, "React Developer", views[0].Job.Title)

	resp, _ = call(t, app, http.MethodGet, "/api/users/1/resumes/default", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/resumes", map[string]any{"userId": 1, "title": "Main", "content": "My CV", "isDefault": true})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, env = call(t, app, http.MethodGet, "/api/users/1/resumes", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]jobs.Resume](t, env), 1)

	resp, env = call(t, app, http.MethodPost, "/api/jobs/1/optimize-resume", map[string]any{"userId": 1, "resumeId": 1})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	optimized := decode[ai.ResumeOptimization](t, env)
	assert.Equal(t, "My CV", optimized.ResumeContent)
	assert.Contains(t, optimized.CoverLetterContent, "React Developer position at TechCorp")

	resp, _ = call(t, app, http.MethodPost, "/api/jobs/1/optimize-resume", map[string]any{"userId": 1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestJobsEndpoints(t *testing.T) {
	app := newTestApp(t, nil)

	resp, env := call(t, app, http.MethodPost, "/api/jobs", map[string]any{
		"title": "Go Developer", "company": "Gophers", "skills": []string{"Go"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, int64(3), decode[jobs.JobPosting](t, env).ID)

	resp, _ = call(t, app, http.MethodPost, "/api/jobs", map[string]any{"title": "No company"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = call(t, app, http.MethodGet, "/api/jobs?query=kubernetes", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	found := decode[[]jobs.JobPosting](t, env)
	require.Len(t, found, 1)
	assert.Equal(t, "DevOps Engineer", found[0].Title)

	resp, _ = call(t, app, http.MethodGet, "/api/jobs/42", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUnknownRouteAndAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := newTestApp(t, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/api/users/5/skills", nil)
	req.Header.Set(headerRequestID, "rid-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "rid-1", resp.Header.Get(headerRequestID))

	entries := logs.FilterMessage("http access").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.Equal(t, "5", fields["user_id"])
	assert.EqualValues(t, fiber.StatusOK, fields["status"])

	resp, env := call(t, app, http.MethodGet, "/nope", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, env.Status)
}

func TestNormalizeHidesInternalErrors(t *testing.T) {
	status, message, data := normalize(errors.New("db password leaked"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, MessageInternalServerError, message)
	assert.Nil(t, data)

	status, message, _ = normalize(NewAppError(fiber.StatusBadRequest, "bad", nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "bad", message)
}
