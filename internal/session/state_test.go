package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
)

func sampleDetails() *admission.UniversityData {
	return &admission.UniversityData{Rounds: []admission.Round{{RoundName: "Portfolio", IsOpen: true}}}
}

func TestNewState(t *testing.T) {
	t.Parallel()
	s := NewState("id", admission.Lang("fr"))
	assert.Equal(t, admission.LangTH, s.Lang)
	assert.Equal(t, ViewHome, s.View)
	assert.NotNil(t, s.Chat)
}

func TestParseView(t *testing.T) {
	t.Parallel()
	v, ok := ParseView(" Dashboard ")
	assert.True(t, ok)
	assert.Equal(t, ViewDashboard, v)

	_, ok = ParseView("settings")
	assert.False(t, ok)
}

func TestSearchFlow(t *testing.T) {
	t.Parallel()
	s := NewState("id", admission.LangTH)
	s.GoSearch()
	assert.Equal(t, ViewSearch, s.View)

	assert.False(t, s.BeginSearch("   "))
	assert.Empty(t, s.Faculty)

	s.Error = "old"
	require.True(t, s.BeginSearch(" แพทยศาสตร์ "))
	assert.Equal(t, "แพทยศาสตร์", s.Faculty)
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)

	assert.False(t, s.CompleteSearch("วิศวกรรมศาสตร์", []string{"X"}), "stale result must be dropped")
	require.True(t, s.CompleteSearch("แพทยศาสตร์", nil))
	assert.Equal(t, ViewUniversities, s.View)
	assert.NotNil(t, s.Universities)
	assert.False(t, s.Loading)
}

func TestSelectFlow(t *testing.T) {
	t.Parallel()
	s := NewState("id", admission.LangEN)

	assert.ErrorIs(t, s.BeginSelect("Mahidol University"), apperrors.ErrInvalidTransition)

	s.BeginSearch("Medicine")
	s.CompleteSearch("Medicine", []string{"Mahidol University"})
	s.OpenContact("hello")

	assert.ErrorIs(t, s.BeginSelect(" "), apperrors.ErrInvalidInput)
	require.NoError(t, s.BeginSelect("Mahidol University"))
	assert.True(t, s.Loading)

	assert.False(t, s.CompleteSelect("Medicine", "Chulalongkorn University", sampleDetails(), "intro"))
	require.True(t, s.CompleteSelect("Medicine", "Mahidol University", sampleDetails(), "intro"))
	assert.Equal(t, ViewDashboard, s.View)
	assert.True(t, s.ChatOpen)
	require.Len(t, s.Chat, 1, "transcript restarts with the intro")
	assert.Equal(t, admission.ChatMessage{Role: admission.RoleAI, Text: "intro"}, s.Chat[0])

	require.NoError(t, s.Navigate(ViewUniversities))
	assert.Equal(t, ViewUniversities, s.View)
	require.NoError(t, s.Navigate(ViewDashboard))
}

func TestFailKeepsView(t *testing.T) {
	t.Parallel()
	s := NewState("id", admission.LangTH)
	s.GoSearch()
	s.BeginSearch("Law")
	s.Fail("error")
	assert.Equal(t, ViewSearch, s.View)
	assert.Equal(t, "error", s.Error)
	assert.False(t, s.Loading)

	s.GoSearch()
	assert.Empty(t, s.Error)
}

func TestGoHome(t *testing.T) {
	t.Parallel()
	s := NewState("id", admission.LangTH)
	s.BeginSearch("Law")
	s.CompleteSearch("Law", []string{"A"})
	require.NoError(t, s.BeginSelect("A"))
	require.True(t, s.CompleteSelect("Law", "A", sampleDetails(), "intro"))
	s.Fail("x")

	s.GoHome()
	assert.Equal(t, ViewHome, s.View)
	assert.Empty(t, s.Faculty)
	assert.Empty(t, s.Error)
	assert.Nil(t, s.Details)
	assert.Empty(t, s.SelectedUniversity)

	assert.ErrorIs(t, s.Navigate(ViewUniversities), apperrors.ErrInvalidTransition)
	assert.ErrorIs(t, s.Navigate(ViewDashboard), apperrors.ErrInvalidTransition)
	assert.ErrorIs(t, s.Navigate(View("x")), apperrors.ErrInvalidTransition)
}

func TestCompleteSelect_DropsResultAfterLeaving(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		leave func(s *State)
		view  View
	}{
		{
			name:  "went home",
			leave: func(s *State) { s.GoHome() },
			view:  ViewHome,
		},
		{
			name:  "started another search",
			leave: func(s *State) { s.BeginSearch("Law") },
			view:  ViewUniversities,
		},
		{
			name:  "searched the same faculty again",
			leave: func(s *State) { s.BeginSearch("Medicine") },
			view:  ViewUniversities,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewState("id", admission.LangEN)
			s.BeginSearch("Medicine")
			s.CompleteSearch("Medicine", []string{"A"})
			require.NoError(t, s.BeginSelect("A"))

			tt.leave(s)
			loading := s.Loading

			assert.False(t, s.CompleteSelect("Medicine", "A", sampleDetails(), "intro"))
			assert.Equal(t, tt.view, s.View)
			assert.Nil(t, s.Details)
			assert.Equal(t, loading, s.Loading)
		})
	}
}

func TestBeginSearch_ForgetsSelection(t *testing.T) {
	t.Parallel()
	s := NewState("id", admission.LangEN)
	s.BeginSearch("Medicine")
	s.CompleteSearch("Medicine", []string{"A"})
	require.NoError(t, s.BeginSelect("A"))
	require.True(t, s.CompleteSelect("Medicine", "A", sampleDetails(), "intro"))

	s.GoSearch()
	require.True(t, s.BeginSearch("Law"))
	assert.Empty(t, s.SelectedUniversity)
	assert.Nil(t, s.Details)
	assert.ErrorIs(t, s.Navigate(ViewDashboard), apperrors.ErrInvalidTransition)
	assert.False(t, s.Selecting("Medicine", "A"))
}

func TestChatFlow(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := NewState("id", admission.LangTH)

	assert.False(t, s.BeginChat("  ", now))
	require.True(t, s.BeginChat("สอบอะไรบ้าง", now))
	assert.True(t, s.ChatOpen)
	assert.False(t, s.BeginChat("again", now), "one reply at a time")

	assert.True(t, s.AppendChunk("TGAT "))
	assert.True(t, s.AppendChunk("และ TPAT"))
	s.FinishChat()

	require.Len(t, s.Chat, 2)
	assert.Equal(t, admission.RoleUser, s.Chat[0].Role)
	assert.Equal(t, "TGAT และ TPAT", s.Chat[1].Text)

	require.True(t, s.BeginChat("next", now))
	s.AppendChunk("partial")
	s.FailChat("sorry")
	last, _ := s.Chat.Last()
	assert.Equal(t, "sorry", last.Text)
	assert.False(t, s.ChatSending)
}

func TestChatStaleReplyUnblocks(t *testing.T) {
	t.Parallel()
	start := time.Now()
	s := NewState("id", admission.LangTH)
	require.True(t, s.BeginChat("first", start))
	assert.True(t, s.BeginChat("second", start.Add(StaleChatAfter+time.Second)))
}

func TestToggleLang(t *testing.T) {
	t.Parallel()
	s := NewState("id", admission.LangTH)
	s.ToggleLang()
	assert.Equal(t, admission.LangEN, s.Lang)
	s.ToggleLang()
	assert.Equal(t, admission.LangTH, s.Lang)
}
