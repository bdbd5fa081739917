package ai

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// Service generates text for a conversation. Implementations may fail or time out;
// callers are expected to degrade on error.
type Service interface {
	Complete(ctx context.Context, systemPrompt string, history []Turn, message string) (string, error)
}

// ResumeOptimization is a resume tailored to a single job.
type ResumeOptimization struct {
	ResumeContent      string   `json:"resumeContent"`
	CoverLetterContent string   `json:"coverLetterContent"`
	OptimizationNotes  []string `json:"optimizationNotes"`
}
