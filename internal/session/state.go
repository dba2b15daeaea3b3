// Package session holds the server-side UI state of one visitor: which of the
// four views is shown, the search results, the selected university, and the
// advisor chat transcript.
package session

import (
	"strings"
	"time"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
)

// View is one screen of the application.
type View string

// Views in flow order.
const (
	ViewHome         View = "home"
	ViewSearch       View = "search"
	ViewUniversities View = "universities"
	ViewDashboard    View = "dashboard"
)

// ParseView returns the view named s.
func ParseView(s string) (View, bool) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewHome, ViewSearch, ViewUniversities, ViewDashboard:
		return v, true
	default:
		return "", false
	}
}

// StaleChatAfter is how long an unfinished chat reply blocks new questions.
// A reply interrupted by a restart would otherwise lock the chat forever.
const StaleChatAfter = 3 * time.Minute

// State is the UI state of one session.
type State struct {
	ID                 string                    `json:"id"`
	Lang               admission.Lang            `json:"lang"`
	View               View                      `json:"view"`
	Faculty            string                    `json:"faculty"`
	Universities       []string                  `json:"universities"`
	SelectedUniversity string                    `json:"selected_university"`
	Details            *admission.UniversityData `json:"details,omitempty"`
	Chat               admission.Transcript      `json:"chat"`
	ChatOpen           bool                      `json:"chat_open"`
	ChatSending        bool                      `json:"chat_sending"`
	ChatStartedAt      time.Time                 `json:"chat_started_at,omitzero"`
	Loading            bool                      `json:"loading"`
	Error              string                    `json:"error,omitempty"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// NewState returns the initial home state.
func NewState(id string, lang admission.Lang) *State {
	if !lang.Valid() {
		lang = admission.DefaultLang
	}
	return &State{
		ID:   id,
		Lang: lang,
		View: ViewHome,
		Chat: admission.Transcript{},
	}
}

// GoHome returns to the landing view and forgets the current search.
func (s *State) GoHome() {
	s.View = ViewHome
	s.Faculty = ""
	s.SelectedUniversity = ""
	s.Error = ""
	s.Details = nil
	s.Loading = false
}

// GoSearch shows the faculty search view.
func (s *State) GoSearch() {
	s.View = ViewSearch
	s.Error = ""
	s.Loading = false
}

// BackToUniversities returns to the result list of the last search.
func (s *State) BackToUniversities() error {
	if s.Faculty == "" || s.Universities == nil {
		return apperrors.ErrInvalidTransition
	}
	s.View = ViewUniversities
	s.Error = ""
	return nil
}

// Navigate switches to v following the same rules as the buttons of each view.
// The dashboard can only be entered by selecting a university.
func (s *State) Navigate(v View) error {
	switch v {
	case ViewHome:
		s.GoHome()
	case ViewSearch:
		s.GoSearch()
	case ViewUniversities:
		return s.BackToUniversities()
	case ViewDashboard:
		if s.Details == nil {
			return apperrors.ErrInvalidTransition
		}
		s.View = ViewDashboard
	default:
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// BeginSearch starts a search for faculty. Blank input is ignored and
// reported as false. The previous selection is forgotten, so details still
// loading for it are dropped when they arrive.
func (s *State) BeginSearch(faculty string) bool {
	faculty = strings.TrimSpace(faculty)
	if faculty == "" {
		return false
	}
	s.Faculty = faculty
	s.SelectedUniversity = ""
	s.Details = nil
	s.Loading = true
	s.Error = ""
	return true
}

// CompleteSearch shows the universities found for faculty. A result for a
// faculty other than the current one is stale and is dropped.
func (s *State) CompleteSearch(faculty string, universities []string) bool {
	if s.Faculty != faculty {
		return false
	}
	if universities == nil {
		universities = []string{}
	}
	s.Universities = universities
	s.View = ViewUniversities
	s.Loading = false
	return true
}

// BeginSelect starts loading details for university.
func (s *State) BeginSelect(university string) error {
	university = strings.TrimSpace(university)
	if university == "" {
		return apperrors.NewValidationError("university", "must not be blank")
	}
	if s.Faculty == "" {
		return apperrors.ErrInvalidTransition
	}
	s.SelectedUniversity = university
	s.Loading = true
	s.Error = ""
	return nil
}

// CompleteSelect opens the dashboard for university of faculty. The chat
// restarts with intro and is opened. A result for a selection that is no
// longer current is stale and is dropped.
func (s *State) CompleteSelect(faculty, university string, details *admission.UniversityData, intro string) bool {
	if !s.Selecting(faculty, university) || details == nil {
		return false
	}
	s.Details = details
	s.Chat = admission.Transcript{{Role: admission.RoleAI, Text: intro}}
	s.ChatOpen = true
	s.ChatSending = false
	s.View = ViewDashboard
	s.Loading = false
	return true
}

// Selecting reports whether university of faculty is still the current
// selection.
func (s *State) Selecting(faculty, university string) bool {
	return s.Faculty == faculty && s.SelectedUniversity == university
}

// Fail records a user-facing error. The view is unchanged.
func (s *State) Fail(message string) {
	s.Error = message
	s.Loading = false
}

// OpenContact opens the chat with a greeting from the team.
func (s *State) OpenContact(greeting string) {
	s.ChatOpen = true
	s.Chat.Append(admission.RoleAI, greeting)
}

// SetChatOpen shows or hides the chat panel.
func (s *State) SetChatOpen(open bool) {
	s.ChatOpen = open
}

// ToggleLang switches between Thai and English.
func (s *State) ToggleLang() {
	s.Lang = s.Lang.Toggle()
}

// BeginChat appends question and an empty reply to fill. It reports false
// for blank input or while another reply is still being written.
func (s *State) BeginChat(question string, now time.Time) bool {
	question = strings.TrimSpace(question)
	if question == "" {
		return false
	}
	if s.ChatSending && now.Sub(s.ChatStartedAt) < StaleChatAfter {
		return false
	}
	s.Chat.Append(admission.RoleUser, question)
	s.Chat.Append(admission.RoleAI, "")
	s.ChatOpen = true
	s.ChatSending = true
	s.ChatStartedAt = now
	return true
}

// AppendChunk extends the reply being written.
func (s *State) AppendChunk(text string) bool {
	return s.Chat.AppendToLast(text)
}

// FinishChat marks the reply as complete.
func (s *State) FinishChat() {
	s.ChatSending = false
	s.ChatStartedAt = time.Time{}
}

// FailChat replaces the reply being written with apology.
func (s *State) FailChat(apology string) {
	s.Chat.ReplaceLast(apology)
	s.FinishChat()
}
