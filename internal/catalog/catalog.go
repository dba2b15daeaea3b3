// Package catalog holds the static faculty and university lists used for
// autocomplete, the popular search tags, and the localized interface strings.
package catalog

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxSuggestions caps the number of autocomplete entries returned.
const MaxSuggestions = 6

// MyTCASSearchBase is the official TCAS search page.
const MyTCASSearchBase = "https://www.mytcas.com/search?q="

// Faculties lists fields of study. Entries carry both the Thai and English
// names so either language matches.
var Faculties = []string{
	"แพทยศาสตร์ (Medicine)",
	"ทันตแพทยศาสตร์ (Dentistry)",
	"เภสัชศาสตร์ (Pharmacy)",
	"สัตวแพทยศาสตร์ (Veterinary Medicine)",
	"พยาบาลศาสตร์ (Nursing)",
	"สหเวชศาสตร์ (Allied Health Sciences)",
	"กายภาพบำบัด (Physical Therapy)",
	"เทคนิคการแพทย์ (Medical Technology)",
	"สาธารณสุขศาสตร์ (Public Health)",
	"วิศวกรรมศาสตร์ (Engineering)",
	"วิศวกรรมคอมพิวเตอร์ (Computer Engineering)",
	"วิศวกรรมไฟฟ้า (Electrical Engineering)",
	"วิศวกรรมเครื่องกล (Mechanical Engineering)",
	"วิศวกรรมโยธา (Civil Engineering)",
	"วิศวกรรมเคมี (Chemical Engineering)",
	"วิทยาการคอมพิวเตอร์ (Computer Science)",
	"เทคโนโลยีสารสนเทศ (Information Technology)",
	"วิทยาศาสตร์ (Science)",
	"สถาปัตยกรรมศาสตร์ (Architecture)",
	"บัญชี (Accounting)",
	"บริหารธุรกิจ (Business Administration)",
	"เศรษฐศาสตร์ (Economics)",
	"นิติศาสตร์ (Law)",
	"รัฐศาสตร์ (Political Science)",
	"นิเทศศาสตร์ (Communication Arts)",
	"วารสารศาสตร์ (Journalism)",
	"อักษรศาสตร์ (Arts)",
	"มนุษยศาสตร์ (Humanities)",
	"ครุศาสตร์ (Education)",
	"ศึกษาศาสตร์ (Education Studies)",
	"จิตวิทยา (Psychology)",
	"สังคมวิทยาและมานุษยวิทยา (Sociology and Anthropology)",
	"ศิลปกรรมศาสตร์ (Fine and Applied Arts)",
	"ดุริยางคศาสตร์ (Music)",
	"เกษตรศาสตร์ (Agriculture)",
	"ประมง (Fisheries)",
	"วนศาสตร์ (Forestry)",
	"อุตสาหกรรมเกษตร (Agro-Industry)",
	"การบิน (Aviation)",
	"โลจิสติกส์ (Logistics)",
	"การท่องเที่ยวและการโรงแรม (Tourism and Hospitality)",
	"วิทยาศาสตร์การกีฬา (Sports Science)",
}

// Universities lists Thai universities that take part in TCAS.
var Universities = []string{
	"จุฬาลงกรณ์มหาวิทยาลัย",
	"มหาวิทยาลัยมหิดล",
	"มหาวิทยาลัยธรรมศาสตร์",
	"มหาวิทยาลัยเกษตรศาสตร์",
	"มหาวิทยาลัยเชียงใหม่",
	"มหาวิทยาลัยขอนแก่น",
	"มหาวิทยาลัยสงขลานครินทร์",
	"มหาวิทยาลัยศรีนครินทรวิโรฒ",
	"มหาวิทยาลัยศิลปากร",
	"มหาวิทยาลัยนเรศวร",
	"มหาวิทยาลัยบูรพา",
	"มหาวิทยาลัยมหาสารคาม",
	"มหาวิทยาลัยแม่ฟ้าหลวง",
	"มหาวิทยาลัยวลัยลักษณ์",
	"มหาวิทยาลัยพะเยา",
	"มหาวิทยาลัยอุบลราชธานี",
	"มหาวิทยาลัยเทคโนโลยีสุรนารี",
	"สถาบันเทคโนโลยีพระจอมเกล้าเจ้าคุณทหารลาดกระบัง",
	"มหาวิทยาลัยเทคโนโลยีพระจอมเกล้าธนบุรี",
	"มหาวิทยาลัยเทคโนโลยีพระจอมเกล้าพระนครเหนือ",
	"สถาบันเทคโนโลยีนานาชาติสิรินธร",
	"วิทยาลัยแพทยศาสตร์พระมงกุฎเกล้า",
	"มหาวิทยาลัยนวมินทราธิราช",
	"มหาวิทยาลัยรามคำแหง",
	"มหาวิทยาลัยแม่โจ้",
	"มหาวิทยาลัยทักษิณ",
	"มหาวิทยาลัยกรุงเทพ",
	"มหาวิทยาลัยรังสิต",
	"มหาวิทยาลัยอัสสัมชัญ",
	"มหาวิทยาลัยหอการค้าไทย",
}

// PopularTags are quick-pick faculties shown on the home and search views.
// They are also the default warmup set.
var PopularTags = []string{
	"แพทยศาสตร์",
	"วิศวกรรมศาสตร์",
	"วิทยาการคอมพิวเตอร์",
	"นิติศาสตร์",
	"บัญชี",
	"สถาปัตยกรรมศาสตร์",
}

// Normalize returns s in NFC form, trimmed and case-folded. Thai input from
// different keyboards can arrive decomposed, so matching must not depend on
// the composition form. Casers are stateful, so one is built per call.
func Normalize(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// SuggestFaculties returns faculties containing query, in catalog order.
func SuggestFaculties(query string) []string {
	return suggest(Faculties, query)
}

// SuggestUniversities returns universities containing query, in catalog order.
func SuggestUniversities(query string) []string {
	return suggest(Universities, query)
}

func suggest(entries []string, query string) []string {
	q := Normalize(query)
	if q == "" {
		return []string{}
	}
	out := make([]string, 0, MaxSuggestions)
	for _, entry := range entries {
		if strings.Contains(Normalize(entry), q) {
			out = append(out, entry)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}

// MyTCASSearchURL links to the official TCAS search for a university.
func MyTCASSearchURL(university string) string {
	return MyTCASSearchBase + url.QueryEscape(strings.TrimSpace(university))
}
