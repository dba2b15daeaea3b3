package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
)

func TestSuggestFaculties(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "blank", query: "   ", want: []string{}},
		{name: "thai substring", query: "แพทย", want: []string{
			"แพทยศาสตร์ (Medicine)",
			"ทันตแพทยศาสตร์ (Dentistry)",
			"สัตวแพทยศาสตร์ (Veterinary Medicine)",
			"เทคนิคการแพทย์ (Medical Technology)",
		}},
		{name: "english case-insensitive", query: "LAW", want: []string{"นิติศาสตร์ (Law)"}},
		{name: "no match", query: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestFaculties(tt.query))
		})
	}
}

func TestSuggest_CapsAtSix(t *testing.T) {
	t.Parallel()
	got := SuggestFaculties("วิศวกรรม")
	assert.Len(t, got, MaxSuggestions)
	assert.Equal(t, "วิศวกรรมศาสตร์ (Engineering)", got[0])
}

func TestSuggestUniversities_NormalizesInput(t *testing.T) {
	t.Parallel()
	decomposed := norm.NFD.String("มหิดล")
	assert.Equal(t, []string{"มหาวิทยาลัยมหิดล"}, SuggestUniversities(decomposed))
	assert.Empty(t, SuggestUniversities(""))
}

func TestMyTCASSearchURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://www.mytcas.com/search?q=Mahidol+University", MyTCASSearchURL(" Mahidol University "))
}

func TestMessages(t *testing.T) {
	t.Parallel()
	th := For(admission.LangTH)
	en := For(admission.LangEN)
	assert.Same(t, th, For("xx"))
	assert.NotEqual(t, th.ErrorGeneric, en.ErrorGeneric)
	assert.Equal(t,
		"I've found the Medicine criteria for Mahidol University! (Please re-verify with official announcements)",
		en.ChatIntro("Medicine", "Mahidol University"))
	assert.Contains(t, th.ChatIntro("แพทยศาสตร์", "มหาวิทยาลัยมหิดล"), "แพทยศาสตร์ ของ มหาวิทยาลัยมหิดล")
}

func TestMatchLang(t *testing.T) {
	t.Parallel()
	assert.Equal(t, admission.LangTH, MatchLang(""))
	assert.Equal(t, admission.LangEN, MatchLang("en-US,en;q=0.9"))
	assert.Equal(t, admission.LangTH, MatchLang("th-TH,th;q=0.9,en;q=0.5"))
	assert.Equal(t, admission.LangTH, MatchLang("fr-FR"))
}
