package ai

import "fmt"

// TemplateOptimization returns the canned optimization used when no generator is available.
// The resume is passed through unchanged.
func TemplateOptimization(resumeContent, jobTitle, company string) ResumeOptimization {
	return ResumeOptimization{
		ResumeContent:      resumeContent,
		CoverLetterContent: fmt.Sprintf("Dear Hiring Manager,\n\nI am excited to apply for the %s position at %s...", jobTitle, company),
		OptimizationNotes: []string{
			"Added keywords from job description",
			"Highlighted relevant experience",
			"Customized skills section",
		},
	}
}
