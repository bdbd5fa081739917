package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobgenius/internal/ai"
)

type fakeService struct {
	reply   string
	err     error
	block   bool
	calls   int
	system  string
	history []ai.Turn
	message string
}

func (f *fakeService) Complete(ctx context.Context, systemPrompt string, history []ai.Turn, message string) (string, error) {
	f.calls++
	f.system = systemPrompt
	f.history = history
	f.message = message
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func TestRespondEmptyMessageSkipsService(t *testing.T) {
	svc := &fakeService{reply: "should not be used"}
	r := NewResponder(svc)

	for _, msg := range []string{"", "   ", "\n\t"} {
		assert.Equal(t, EmptyMessageReply, r.Respond(context.Background(), msg, nil))
	}
	assert.Zero(t, svc.calls)
}

func TestRespondReturnsServiceReplyVerbatim(t *testing.T) {
	svc := &fakeService{reply: "  Here are three tips.  "}
	history := []ai.Turn{{Role: ai.RoleUser, Content: "hi"}, {Role: ai.RoleAssistant, Content: "hello"}}
	r := NewResponder(svc)

	reply := r.Respond(context.Background(), "How do I negotiate?", history)

	assert.Equal(t, "  Here are three tips.  ", reply)
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, SystemPrompt, svc.system)
	assert.Equal(t, history, svc.history)
	assert.Equal(t, "How do I negotiate?", svc.message)
}

func TestRespondFallbackRules(t *testing.T) {
	tests := []struct {
		message string
		topic   string
	}{
		{message: "Can you HELP me?", topic: "help"},
		{message: "how does this work", topic: "help"},
		// help outranks resume
		{message: "how to fix my resume", topic: "help"},
		{message: "Can you help me with my resume?", topic: "help"},
		{message: "Update my CV please", topic: "resume"},
		{message: "interview tomorrow", topic: "interview"},
		{message: "new job postings?", topic: "jobs"},
		{message: "search for roles", topic: "jobs"},
		{message: "asdf", topic: ""},
	}

	replies := map[string]string{"": DefaultReply}
	for _, rule := range DefaultRules {
		replies[rule.Topic] = rule.Reply
	}

	svc := &fakeService{err: errors.New("service unavailable")}
	r := NewResponder(svc)

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, replies[tt.topic], r.Respond(context.Background(), tt.message, nil))
		})
	}
}

func TestRespondWithoutServiceUsesFallback(t *testing.T) {
	r := NewResponder(nil)
	assert.Equal(t, DefaultReply, r.Respond(context.Background(), "asdf", nil))
}

func TestRespondEmptyServiceReplyFallsBack(t *testing.T) {
	r := NewResponder(&fakeService{reply: "   "})
	assert.Equal(t, DefaultRules[2].Reply, r.Respond(context.Background(), "interview prep", nil))
}

func TestRespondTimeoutFallsBackAndLogs(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	svc := &fakeService{block: true}
	r := NewResponder(svc, WithTimeout(20*time.Millisecond), WithLogger(zap.New(core)))

	start := time.Now()
	reply := r.Respond(context.Background(), "asdf", nil)

	assert.Equal(t, DefaultReply, reply)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, 1, observed.Len())
	assert.Equal(t, "generative service failed, using fallback reply", observed.All()[0].Message)
}

func TestRespondCallerCancellation(t *testing.T) {
	svc := &fakeService{block: true}
	r := NewResponder(svc, WithTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, DefaultRules[1].Reply, r.Respond(ctx, "my resume", nil))
}

func TestOptionsIgnoreZeroValues(t *testing.T) {
	r := NewResponder(nil, WithTimeout(0), WithSystemPrompt("  "), WithLogger(nil), WithRules(nil))

	assert.Equal(t, DefaultTimeout, r.timeout)
	assert.Equal(t, SystemPrompt, r.systemPrompt)
	assert.NotNil(t, r.logger)
	assert.Len(t, r.rules, len(DefaultRules))

	custom := []FallbackRule{{Topic: "salary", Keywords: []string{"salary"}, Reply: "Let's talk numbers."}}
	r = NewResponder(nil, WithRules(custom), WithSystemPrompt("be brief"))
	assert.Equal(t, "Let's talk numbers.", r.Respond(context.Background(), "Salary range?", nil))
	assert.Equal(t, DefaultReply, r.Respond(context.Background(), "help", nil))
	assert.Equal(t, "be brief", r.systemPrompt)
}

func TestAppendDoesNotAliasHistory(t *testing.T) {
	history := make([]ai.Turn, 1, 4)
	history[0] = ai.Turn{Role: ai.RoleUser, Content: "first"}

	next := Append(history, "second", "reply")

	require.Len(t, next, 3)
	assert.Equal(t, ai.RoleAssistant, next[2].Role)
	assert.Len(t, history, 1)
	next[0].Content = "changed"
	assert.Equal(t, "first", history[0].Content)
}
