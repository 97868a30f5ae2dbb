package synthetic

import (
	"strconv"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// SampleSource is the Posting.Source value of the bundled sample list.
const SampleSource = "sample"

type sample struct {
	title, company, location, description, color string
	age                                           time.Duration
}

var bundled = []sample{
	{"Senior React Developer", "Techno Solutions", "Hyderabad, Telangana",
		"Looking for an experienced React developer to join our growing team. Must have 3+ years of experience with React and TypeScript.",
		"0D8ABC", 30 * time.Minute},
	{"Frontend Engineer", "Global Systems", "Bengaluru, Karnataka",
		"Join our team to build beautiful and responsive web interfaces. Experience with React, Redux, and CSS-in-JS is required.",
		"2563EB", 60 * time.Minute},
	{"Full Stack Developer", "Innovative Tech", "Chennai, Tamil Nadu",
		"We need a full stack developer who can work with React, Node.js, and MongoDB. Must be able to handle both frontend and backend tasks.",
		"DC2626", 90 * time.Minute},
	{"React Native Developer", "Mobile Apps Inc", "Remote",
		"Seeking a React Native developer to build cross-platform mobile applications. Experience with iOS and Android development is a plus.",
		"10B981", 120 * time.Minute},
	{"UI/UX Designer", "Creative Studios", "Hyderabad, Telangana",
		"Looking for a UI/UX designer with experience in creating user interfaces for web and mobile applications. Figma proficiency required.",
		"8B5CF6", 150 * time.Minute},
	{"DevOps Engineer", "Cloud Systems", "Mumbai, Maharashtra",
		"Join our team to manage cloud infrastructure and CI/CD pipelines. Experience with AWS, Docker, and Kubernetes is required.",
		"EC4899", 180 * time.Minute},
}

// Samples returns the bundled listings used to seed a feed before its first
// refresh, with PostedAt relative to now.
func Samples(now time.Time) []model.Posting {
	postings := make([]model.Posting, len(bundled))
	for i, s := range bundled {
		id := strconv.Itoa(i + 1)
		postings[i] = model.Posting{
			ID:          "sample-" + id,
			Title:       s.title,
			Company:     s.company,
			Location:    s.location,
			Description: s.description,
			PostedAt:    now.Add(-s.age),
			LogoURL:     model.AvatarURL(s.company, s.color),
			ApplyURL:    "https://example.com/apply/" + id,
			Source:      SampleSource,
		}
	}
	return postings
}
