package storage

import "github.com/spigell/jobgenius/internal/jobs"

func intPtr(v int) *int { return &v }

// SampleJobs is the demo corpus loaded when sample data is enabled.
// The stored match scores are stale on purpose; the matcher recomputes them.
func SampleJobs() []jobs.JobPosting {
	return []jobs.JobPosting{
		{
			Title:       "Senior Frontend Developer",
			Company:     "Aurora Consulting",
			Location:    "San Francisco, CA",
			Description: "We're looking for a senior frontend developer with React and TypeScript experience to join our growing team.",
			Salary:      "$130K - $150K",
			JobType:     "Remote",
			Source:      "LinkedIn",
			Link:        "https://example.com/job1",
			Skills:      []string{"React.js", "TypeScript", "Redux", "CSS-in-JS"},
			MatchScore:  intPtr(92),
		},
		{
			Title:       "UI/UX Designer",
			Company:     "TechFlow Inc.",
			Location:    "New York, NY",
			Description: "Design beautiful, intuitive interfaces for our enterprise clients.",
			Salary:      "$110K - $130K",
			JobType:     "Hybrid",
			Source:      "Indeed",
			Link:        "https://example.com/job2",
			Skills:      []string{"Figma", "UI Design", "User Research", "Prototyping"},
			MatchScore:  intPtr(85),
		},
		{
			Title:       "Frontend Developer",
			Company:     "Quantum Systems",
			Location:    "Boston, MA",
			Description: "Work on cutting-edge web applications with modern JavaScript frameworks.",
			Salary:      "$100K - $120K",
			JobType:     "Remote",
			Source:      "Glassdoor",
			Link:        "https://example.com/job3",
			Skills:      []string{"React.js", "JavaScript", "HTML", "CSS"},
			MatchScore:  intPtr(78),
		},
		{
			Title:       "Product Designer",
			Company:     "Nova Creative",
			Location:    "Seattle, WA",
			Description: "Join our product team to create amazing user experiences.",
			Salary:      "$120K - $140K",
			JobType:     "On-site",
			Source:      "LinkedIn",
			Link:        "https://example.com/job4",
			Skills:      []string{"Product Design", "UI/UX", "Design Systems", "Wireframing"},
			MatchScore:  intPtr(88),
		},
		{
			Title:       "UX Researcher",
			Company:     "Insight Partners",
			Location:    "Chicago, IL",
			Description: "Conduct user research to improve our products and services.",
			Salary:      "$90K - $110K",
			JobType:     "Remote",
			Source:      "Indeed",
			Link:        "https://example.com/job5",
			Skills:      []string{"User Research", "Usability Testing", "Data Analysis", "Interviewing"},
			MatchScore:  intPtr(82),
		},
		{
			Title:       "Senior UI Designer",
			Company:     "Stellar Digital",
			Location:    "Austin, TX",
			Description: "Lead UI design initiatives for our flagship products.",
			Salary:      "$125K - $145K",
			JobType:     "Remote",
			Source:      "Glassdoor",
			Link:        "https://example.com/job6",
			Skills:      []string{"UI Design", "Design Systems", "Figma", "Adobe Creative Suite"},
			MatchScore:  intPtr(95),
		},
	}
}
