package admission

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNoRounds is returned when admission details carry no rounds at all.
// The dashboard cannot render such a result, so it is treated as a failure.
var ErrNoRounds = errors.New("admission details contain no rounds")

// ExamScore is one exam component and its weight (e.g. "TGAT", "20%").
type ExamScore struct {
	Subject string `json:"subject"`
	Weight  string `json:"weight"`
}

// Round is a TCAS admission round for a faculty at a university.
type Round struct {
	RoundName      string      `json:"round_name"`
	IsOpen         bool        `json:"isOpen"`
	Eligibility    string      `json:"eligibility"`
	GPARequirement string      `json:"gpa_requirement,omitempty"`
	ExamScores     []ExamScore `json:"exam_scores"`
	Link           string      `json:"link,omitempty"`
}

// HasGPA reports whether the round states a minimum GPAX.
func (r Round) HasGPA() bool { return r.GPARequirement != "" }

// HasLink reports whether the round links to an official announcement.
func (r Round) HasLink() bool { return r.Link != "" }

// Tutor is a recommended tutoring school or teacher.
type Tutor struct {
	Name          string `json:"name"`
	Highlight     string `json:"highlight"`
	TeachingStyle string `json:"teaching_style"`
}

// TutorGroup lists tutors for one exam subject.
type TutorGroup struct {
	Subject string  `json:"subject"`
	Tutors  []Tutor `json:"tutors"`
}

// UniversityData is the admission detail shown on the dashboard.
type UniversityData struct {
	Rounds            []Round      `json:"rounds"`
	RecommendedTutors []TutorGroup `json:"recommended_tutors"`
	TuitionEstimate   string       `json:"tuition_estimate,omitempty"`
}

// Validate normalizes the data in place and rejects results without rounds.
// Strings are trimmed, exam scores without a subject and tutors without a
// name are dropped, and tutor groups left empty are removed. Nil slices
// become empty so the JSON encoding is always an array.
func (d *UniversityData) Validate() error {
	rounds := make([]Round, 0, len(d.Rounds))
	for _, r := range d.Rounds {
		r.RoundName = strings.TrimSpace(r.RoundName)
		r.Eligibility = strings.TrimSpace(r.Eligibility)
		r.GPARequirement = strings.TrimSpace(r.GPARequirement)
		r.Link = webLink(r.Link)
		if r.RoundName == "" {
			continue
		}

		scores := make([]ExamScore, 0, len(r.ExamScores))
		for _, s := range r.ExamScores {
			s.Subject = strings.TrimSpace(s.Subject)
			s.Weight = strings.TrimSpace(s.Weight)
			if s.Subject != "" {
				scores = append(scores, s)
			}
		}
		r.ExamScores = scores
		rounds = append(rounds, r)
	}
	d.Rounds = rounds

	groups := make([]TutorGroup, 0, len(d.RecommendedTutors))
	for _, g := range d.RecommendedTutors {
		g.Subject = strings.TrimSpace(g.Subject)
		tutors := make([]Tutor, 0, len(g.Tutors))
		for _, t := range g.Tutors {
			t.Name = strings.TrimSpace(t.Name)
			t.Highlight = strings.TrimSpace(t.Highlight)
			t.TeachingStyle = strings.TrimSpace(t.TeachingStyle)
			if t.Name != "" {
				tutors = append(tutors, t)
			}
		}
		if g.Subject == "" || len(tutors) == 0 {
			continue
		}
		g.Tutors = tutors
		groups = append(groups, g)
	}
	d.RecommendedTutors = groups
	d.TuitionEstimate = strings.TrimSpace(d.TuitionEstimate)

	if len(d.Rounds) == 0 {
		return ErrNoRounds
	}
	return nil
}

// webLink returns s if it is an absolute http(s) URL, else "". Links come
// from the model and are rendered as anchors for every visitor of the cached
// result.
func webLink(s string) string {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return s
	default:
		return ""
	}
}

// OpenRounds counts rounds currently accepting applications.
func (d *UniversityData) OpenRounds() int {
	n := 0
	for _, r := range d.Rounds {
		if r.IsOpen {
			n++
		}
	}
	return n
}
