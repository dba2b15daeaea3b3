package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
)

// quote renders user text as a JSON string literal so that quotes and
// newlines cannot break out of the prompt.
func quote(s string) string {
	b, err := json.Marshal(strings.TrimSpace(s))
	if err != nil {
		return `""`
	}
	return string(b)
}

// UniversityListPrompt asks for universities offering faculty.
func UniversityListPrompt(faculty string, lang admission.Lang) string {
	return fmt.Sprintf(`List reputable Thai universities offering %s.
Accuracy is key: include only institutions that actually admit students to this field through TCAS.
Do not list Rajabhat universities for Medicine.
Use official university names in %s.
Return JSON {"universities": string[]}.`, quote(faculty), lang.Name())
}

// UniversityDetailsPrompt asks for admission rounds and tutor recommendations.
func UniversityDetailsPrompt(faculty, university string, lang admission.Lang) string {
	return fmt.Sprintf(`You are an expert on Thai TCAS admission criteria.
Give the TCAS 2025 admission rounds for %s at %s.
STRICT: Phramongkutklao College of Medicine admits Medicine students through Round 3 only.
For every round give eligibility, the minimum GPAX when one is stated, whether the faculty admits in that round, and the exam score weights (TGAT/TPAT/A-Level).
Add the official announcement link only when you are sure of it.
Recommend 5-6 tutors or tutoring schools for each exam subject, with a highlight and their teaching style.
Include an approximate tuition estimate when known.
Response language: %s.
Return JSON.`, quote(faculty), quote(university), lang.Name())
}

// ChatPrompt frames a student question for the "Pee AI" advisor persona.
func ChatPrompt(faculty, university, question string, lang admission.Lang) string {
	return fmt.Sprintf(`Role: "Pee AI" (Elder Brother AI), an admission advisor for Thai high-school students. Friendly, polite, caring. Use "พี่ AI", "ครับผม", "สู้ๆ นะ".
Context: Dev: Achira Saiwaree. Admins: Narongsak, Phoorithat, Weerachot. Target: %s at %s.
Answer in %s, concisely.
Question: %s`, quote(faculty), quote(university), lang.Name(), quote(question))
}
