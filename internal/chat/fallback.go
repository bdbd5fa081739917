package chat

import "strings"

// EmptyMessageReply is returned for blank messages without contacting the generator.
const EmptyMessageReply = "Please enter a message to continue."

// DefaultReply is used when no fallback rule matches.
const DefaultReply = "I'm here to help with your job search. I can find relevant jobs, optimize your resume, or help prepare for interviews. What would you like assistance with?"

// FallbackRule maps topic keywords to a canned reply.
type FallbackRule struct {
	Topic    string
	Keywords []string
	Reply    string
}

// Matches reports whether the lower-cased message contains any of the rule keywords.
func (r FallbackRule) Matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// DefaultRules are evaluated top to bottom; the first match wins.
var DefaultRules = []FallbackRule{
	{
		Topic:    "help",
		Keywords: []string{"help", "how"},
		Reply:    "I can help you with your job search by finding relevant positions, optimizing your resume, and preparing for interviews. What specifically would you like help with?",
	},
	{
		Topic:    "resume",
		Keywords: []string{"resume", "cv"},
		Reply:    "I can optimize your resume for specific job applications. Would you like me to analyze your current resume and suggest improvements?",
	},
	{
		Topic:    "interview",
		Keywords: []string{"interview"},
		Reply:    "I can help you prepare for interviews by providing common questions and suggested answers based on your experience. Would you like to start interview preparation?",
	},
	{
		Topic:    "jobs",
		Keywords: []string{"job", "search"},
		Reply:    "I found several new job postings that match your profile. Would you like me to prepare applications for these positions?",
	},
}

// Fallback picks the reply of the first matching rule, or DefaultReply.
func Fallback(rules []FallbackRule, message string) string {
	lowered := strings.ToLower(message)
	for _, rule := range rules {
		if rule.Matches(lowered) {
			return rule.Reply
		}
	}
	return DefaultReply
}
