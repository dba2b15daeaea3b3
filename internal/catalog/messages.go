package catalog

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
)

// Messages is the localized string table for one language.
type Messages struct {
	AppTitle             string `json:"app_title"`
	Tagline              string `json:"tagline"`
	StartButton          string `json:"start_button"`
	ContactButton        string `json:"contact_button"`
	SearchPlaceholder    string `json:"search_placeholder"`
	SearchButton         string `json:"search_button"`
	PopularLabel         string `json:"popular_label"`
	UniversitiesTitle    string `json:"universities_title"`
	CustomUniPlaceholder string `json:"custom_uni_placeholder"`
	Loading              string `json:"loading"`
	Back                 string `json:"back"`
	Home                 string `json:"home"`
	RoundsTitle          string `json:"rounds_title"`
	RoundOpen            string `json:"round_open"`
	RoundClosed          string `json:"round_closed"`
	EligibilityLabel     string `json:"eligibility_label"`
	GPALabel             string `json:"gpa_label"`
	ExamWeightsLabel     string `json:"exam_weights_label"`
	OfficialLink         string `json:"official_link"`
	TuitionLabel         string `json:"tuition_label"`
	TutorsTitle          string `json:"tutors_title"`
	MyTCASLink           string `json:"mytcas_link"`
	ChatTitle            string `json:"chat_title"`
	ChatPlaceholder      string `json:"chat_placeholder"`
	ChatSend             string `json:"chat_send"`
	ErrorGeneric         string `json:"error_generic"`
	ErrorRateLimited     string `json:"error_rate_limited"`
	ErrorInvalidInput    string `json:"error_invalid_input"`
	ErrorNotFound        string `json:"error_not_found"`
	ContactGreeting      string `json:"contact_greeting"`
	ChatApology          string `json:"chat_apology"`

	introFormat string
}

var messages = map[admission.Lang]*Messages{
	admission.LangTH: {
		AppTitle:             "TCAS Genius",
		Tagline:              "ค้นหาเกณฑ์ TCAS ทุกรอบ พร้อมติวเตอร์แนะนำ ด้วยพลัง AI",
		StartButton:          "เริ่มค้นหาคณะ",
		ContactButton:        "ติดต่อทีมงาน",
		SearchPlaceholder:    "อยากเรียนคณะอะไร เช่น แพทยศาสตร์",
		SearchButton:         "ค้นหา",
		PopularLabel:         "คณะยอดฮิต",
		UniversitiesTitle:    "มหาวิทยาลัยที่เปิดสอน",
		CustomUniPlaceholder: "ไม่เจอมหาวิทยาลัยที่ต้องการ? พิมพ์ชื่อเองได้เลย",
		Loading:              "พี่ AI กำลังค้นหาข้อมูล...",
		Back:                 "ย้อนกลับ",
		Home:                 "หน้าแรก",
		RoundsTitle:          "รอบการรับสมัคร",
		RoundOpen:            "เปิดรับ",
		RoundClosed:          "ไม่เปิดรับ",
		EligibilityLabel:     "คุณสมบัติ",
		GPALabel:             "GPAX ขั้นต่ำ",
		ExamWeightsLabel:     "สัดส่วนคะแนน",
		OfficialLink:         "ประกาศทางการ",
		TuitionLabel:         "ค่าเทอมโดยประมาณ",
		TutorsTitle:          "ติวเตอร์แนะนำ",
		MyTCASLink:           "ดูข้อมูลบน MyTCAS",
		ChatTitle:            "ถามพี่ AI",
		ChatPlaceholder:      "พิมพ์คำถามถึงพี่ AI...",
		ChatSend:             "ส่ง",
		ErrorGeneric:         "ขออภัย ระบบขัดข้องชั่วคราว กรุณาลองใหม่อีกครั้ง",
		ErrorRateLimited:     "มีการใช้งานถี่เกินไป กรุณารอสักครู่แล้วลองใหม่",
		ErrorInvalidInput:    "กรุณากรอกข้อมูลให้ถูกต้อง",
		ErrorNotFound:        "ไม่พบข้อมูลที่ต้องการ",
		ContactGreeting:      "สวัสดีครับน้อง พี่ AI และทีมงานยินดีให้บริการครับ มีเรื่องสอบถามตรงไหนแจ้งได้เลย!",
		ChatApology:          "ขออภัยครับน้อง พี่ AI ขัดข้องนิดหน่อย ลองใหม่อีกครั้งนะครับ",
		introFormat:          "พี่ AI ค้นหาข้อมูล %s ของ %s มาให้แล้วครับ! (ตรวจสอบความถูกต้องจากประกาศทางการอีกครั้งนะครับ)",
	},
	admission.LangEN: {
		AppTitle:             "TCAS Genius",
		Tagline:              "Every TCAS round and recommended tutors, powered by AI",
		StartButton:          "Find your faculty",
		ContactButton:        "Contact us",
		SearchPlaceholder:    "What do you want to study? e.g. Medicine",
		SearchButton:         "Search",
		PopularLabel:         "Popular",
		UniversitiesTitle:    "Universities offering this field",
		CustomUniPlaceholder: "Not listed? Type a university name",
		Loading:              "Pee AI is looking this up...",
		Back:                 "Back",
		Home:                 "Home",
		RoundsTitle:          "Admission rounds",
		RoundOpen:            "Open",
		RoundClosed:          "Closed",
		EligibilityLabel:     "Eligibility",
		GPALabel:             "Minimum GPAX",
		ExamWeightsLabel:     "Score weights",
		OfficialLink:         "Official announcement",
		TuitionLabel:         "Estimated tuition",
		TutorsTitle:          "Recommended tutors",
		MyTCASLink:           "View on MyTCAS",
		ChatTitle:            "Ask Pee AI",
		ChatPlaceholder:      "Ask Pee AI anything...",
		ChatSend:             "Send",
		ErrorGeneric:         "Sorry, something went wrong. Please try again.",
		ErrorRateLimited:     "Too many requests. Please wait a moment and try again.",
		ErrorInvalidInput:    "Please check your input.",
		ErrorNotFound:        "Not found.",
		ContactGreeting:      "Hello! Pee AI and the team are here to help.",
		ChatApology:          "Sorry, Pee AI hit a small problem. Please try again.",
		introFormat:          "I've found the %s criteria for %s! (Please re-verify with official announcements)",
	},
}

// For returns the string table for lang, defaulting to Thai.
func For(lang admission.Lang) *Messages {
	if m, ok := messages[lang]; ok {
		return m
	}
	return messages[admission.DefaultLang]
}

// ChatIntro is the first AI message shown when the dashboard opens.
func (m *Messages) ChatIntro(faculty, university string) string {
	return fmt.Sprintf(m.introFormat, faculty, university)
}

var langMatcher = language.NewMatcher([]language.Tag{language.Thai, language.English})

// MatchLang picks th or en from an Accept-Language header, defaulting to th.
func MatchLang(acceptLanguage string) admission.Lang {
	if acceptLanguage == "" {
		return admission.DefaultLang
	}
	tag, _ := language.MatchStrings(langMatcher, acceptLanguage)
	base, _ := tag.Base()
	return admission.ParseLang(base.String())
}
