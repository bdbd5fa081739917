package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobgenius/internal/ai"
	"github.com/spigell/jobgenius/internal/logger"
	"github.com/spigell/jobgenius/internal/utils"
)

const (
	defaultModel           = "gemini-2.5-flash"
	defaultMaxRetries      = 3
	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 800
	defaultMaxLogLength    = 200

	baseBackoff = 500 * time.Millisecond
	// maxBackoff caps waits between attempts. Quota delays above it are not retried.
	maxBackoff = 8 * time.Second
)

// Content roles used by the Gemini chat history.
const (
	roleUser  = "user"
	roleModel = "model"
)

var sleep = time.Sleep

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.chats.Create(ctx, model, config, history)
}

// Options tune a Generator. Zero values fall back to defaults.
type Options struct {
	Model           string
	MaxRetries      int
	Temperature     float32
	MaxOutputTokens int32
	MaxLogLength    int
}

// Generator implements ai.Service on top of Gemini chat sessions.
type Generator struct {
	chats           chatCreator
	model           string
	maxRetries      int
	temperature     float32
	maxOutputTokens int32
	maxLogLen       int
	logger          *zap.Logger
}

var _ ai.Service = (*Generator)(nil)

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, opts Options, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	g := &Generator{
		chats:           genaiChats{chats: client.Chats},
		model:           strings.TrimSpace(opts.Model),
		maxRetries:      opts.MaxRetries,
		temperature:     opts.Temperature,
		maxOutputTokens: opts.MaxOutputTokens,
		maxLogLen:       opts.MaxLogLength,
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.maxRetries <= 0 {
		g.maxRetries = defaultMaxRetries
	}
	if g.temperature <= 0 {
		g.temperature = defaultTemperature
	}
	if g.maxOutputTokens <= 0 {
		g.maxOutputTokens = defaultMaxOutputTokens
	}
	if g.maxLogLen <= 0 {
		g.maxLogLen = defaultMaxLogLength
	}
	g.logger = logger.WithCommonFields(log, "gemini", g.model)

	return g, nil
}

// Complete sends message to a chat seeded with history and returns the joined text reply.
func (g *Generator) Complete(ctx context.Context, systemPrompt string, history []ai.Turn, message string) (string, error) {
	return g.send(ctx, systemPrompt, toContents(history), message)
}

// GenerateContent sends a single prompt with a system instruction.
func (g *Generator) GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return g.send(ctx, systemPrompt, nil, prompt)
}

func (g *Generator) send(ctx context.Context, systemPrompt string, history []*genai.Content, message string) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	log := g.log()
	config := g.config(systemPrompt)
	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		log.Debug("gemini send message",
			zap.Int("attempt", attempt),
			zap.Int("history", len(history)),
			zap.String("message_preview", utils.TruncateForLog(message, g.maxLogLen)),
		)

		text, err := g.sendOnce(ctx, config, history, message)
		if err == nil {
			log.Debug("gemini response",
				zap.Int("attempt", attempt),
				zap.String("response_preview", utils.TruncateForLog(text, g.maxLogLen)),
			)
			return text, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == attempts {
			break
		}

		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func (g *Generator) sendOnce(ctx context.Context, config *genai.GenerateContentConfig, history []*genai.Content, message string) (string, error) {
	chat, err := g.chats.Create(ctx, g.model, config, history)
	if err != nil {
		return "", err
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", err
	}

	return responseText(resp)
}

func (g *Generator) config(systemPrompt string) *genai.GenerateContentConfig {
	temperature := g.temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	maxTokens := g.maxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	return cfg
}

func (g *Generator) log() *zap.Logger {
	if g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func toContents(history []ai.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		text := strings.TrimSpace(turn.Content)
		if text == "" {
			continue
		}
		content := &genai.Content{
			Role:  roleUser,
			Parts: []*genai.Part{{Text: text}},
		}
		if turn.Role == ai.RoleAssistant {
			content.Role = roleModel
		}
		contents = append(contents, content)
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

// retryDelay reports whether err is worth another attempt and how long to wait first.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return 0, false
		}
		apiErr = *apiErrPtr
	}

	backoff := baseBackoff << (attempt - 1)
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if d, ok := parseRetryAfter(apiErr.Message); ok {
			if d > maxBackoff {
				return 0, false
			}
			return d, true
		}
		return backoff, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	default:
		return 0, false
	}
}

func parseRetryAfter(message string) (time.Duration, bool) {
	m := retryAfterPattern.FindStringSubmatch(message)
	if len(m) != 2 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
