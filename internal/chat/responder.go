// Package chat turns a user message and the conversation so far into one assistant reply.
package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/ai"
	"github.com/spigell/jobgenius/internal/utils"
)

const DefaultTimeout = 5 * time.Second

const SystemPrompt = `You are JobGenius AI, an AI assistant for job seekers.
Your capabilities include:
- Finding relevant job opportunities
- Optimizing resumes and cover letters for specific positions
- Preparing for job interviews
- Analyzing skills gaps and suggesting improvements
- Providing career advice and industry insights

Be helpful, encouraging, and professional in your responses.
Focus on providing actionable advice for job seekers.`

type Option func(*Responder)

func WithTimeout(d time.Duration) Option {
	return func(r *Responder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Responder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(r *Responder) {
		if strings.TrimSpace(prompt) != "" {
			r.systemPrompt = prompt
		}
	}
}

func WithRules(rules []FallbackRule) Option {
	return func(r *Responder) {
		if len(rules) > 0 {
			r.rules = rules
		}
	}
}

// Responder is safe for concurrent use.
type Responder struct {
	service      ai.Service
	timeout      time.Duration
	systemPrompt string
	rules        []FallbackRule
	logger       *zap.Logger
}

// NewResponder builds a Responder. A nil service always answers from the fallback rules.
func NewResponder(service ai.Service, opts ...Option) *Responder {
	r := &Responder{
		service:      service,
		timeout:      DefaultTimeout,
		systemPrompt: SystemPrompt,
		rules:        DefaultRules,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond always returns a non-empty reply.
func (r *Responder) Respond(ctx context.Context, message string, history []ai.Turn) string {
	if strings.TrimSpace(message) == "" {
		return EmptyMessageReply
	}

	if r.service == nil {
		return Fallback(r.rules, message)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.service.Complete(callCtx, r.systemPrompt, history, message)
	if err != nil {
		r.logger.Warn("generative service failed, using fallback reply",
			zap.Error(err),
			zap.String("message_preview", utils.TruncateForLog(message, 80)),
		)
		return Fallback(r.rules, message)
	}

	if strings.TrimSpace(reply) == "" {
		r.logger.Warn("generative service returned empty reply, using fallback reply")
		return Fallback(r.rules, message)
	}

	return reply
}

// Append records the exchange as two new turns and returns the extended history.
func Append(history []ai.Turn, message, reply string) []ai.Turn {
	out := make([]ai.Turn, 0, len(history)+2)
	out = append(out, history...)
	return append(out,
		ai.Turn{Role: ai.RoleUser, Content: message},
		ai.Turn{Role: ai.RoleAssistant, Content: reply},
	)
}
