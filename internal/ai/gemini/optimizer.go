package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/ai"
	"github.com/spigell/jobgenius/internal/jobs"
	"github.com/spigell/jobgenius/internal/utils"
)

const optimizerSystemPrompt = "You are JobGenius AI, a resume writer. Answer with JSON only."

type contentGenerator interface {
	GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Optimizer rewrites a resume for a job posting.
type Optimizer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed optimize_prompt.md
var optimizePromptTemplate string

func NewOptimizer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Optimizer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Optimizer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (o *Optimizer) Optimize(ctx context.Context, resume string, job jobs.JobPosting, userSkills []string) (*ai.ResumeOptimization, error) {
	if strings.TrimSpace(resume) == "" {
		return nil, errors.New("resume content is required")
	}

	jobJSON, err := json.MarshalIndent(jobPayload(job), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	prompt := buildOptimizePrompt(resume, string(jobJSON), userSkills)

	o.logger.Debug("gemini optimize request",
		zap.Int64("job_id", job.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, o.maxLogLen)),
	)

	raw, err := o.generator.GenerateContent(ctx, optimizerSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("gemini optimize response",
		zap.Int64("job_id", job.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	result, err := parseOptimization(raw)
	if err != nil {
		return nil, err
	}
	if result.ResumeContent == "" {
		result.ResumeContent = resume
	}

	return result, nil
}

func jobPayload(job jobs.JobPosting) map[string]any {
	return map[string]any{
		"title":       job.Title,
		"company":     job.Company,
		"location":    job.Location,
		"jobType":     job.JobType,
		"description": job.Description,
		"skills":      job.Skills,
	}
}

func buildOptimizePrompt(resume, jobJSON string, userSkills []string) string {
	template := optimizePromptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Skills:\n{{SKILLS}}\n\nJob:\n{{JOB_JSON}}\n\nResume:\n{{RESUME}}\n\nJSON Response:"
	}

	skillsBlock := "- none"
	if len(userSkills) > 0 {
		lines := make([]string, 0, len(userSkills))
		for _, s := range userSkills {
			if s = strings.TrimSpace(s); s != "" {
				lines = append(lines, "- "+s)
			}
		}
		if len(lines) > 0 {
			skillsBlock = strings.Join(lines, "\n")
		}
	}

	prompt := strings.ReplaceAll(template, "{{SKILLS}}", skillsBlock)
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", jobJSON)
	prompt = strings.ReplaceAll(prompt, "{{RESUME}}", strings.TrimSpace(resume))
	return prompt
}

func parseOptimization(raw string) (*ai.ResumeOptimization, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	result := &ai.ResumeOptimization{
		ResumeContent:      coerceString(data["resumeContent"]),
		CoverLetterContent: coerceString(data["coverLetterContent"]),
		OptimizationNotes:  coerceStrings(data["optimizationNotes"]),
	}
	if result.CoverLetterContent == "" {
		return nil, errors.New("gemini response has no cover letter")
	}

	return result, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings accepts a JSON array or a single string. Blank entries are dropped.
func coerceStrings(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}
