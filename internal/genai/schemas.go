package genai

import "google.golang.org/genai"

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

// UniversityListSchema constrains the university list response to
// {"universities": string[]}.
var UniversityListSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"universities": {
			Type:        genai.TypeArray,
			Description: "Official names of Thai universities offering the field of study",
			Items:       stringSchema(""),
		},
	},
	Required: []string{"universities"},
}

// UniversityDetailsSchema constrains the admission details response.
var UniversityDetailsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"rounds": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"round_name":      stringSchema("TCAS round name, e.g. TCAS1 Portfolio"),
					"isOpen":          {Type: genai.TypeBoolean, Description: "Whether this faculty admits students in this round"},
					"eligibility":     stringSchema("Who may apply"),
					"gpa_requirement": stringSchema("Minimum GPAX, if any"),
					"exam_scores": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"subject": stringSchema("Exam or component, e.g. TGAT, TPAT1, A-Level Math 1"),
								"weight":  stringSchema("Weight, e.g. 20%"),
							},
							Required: []string{"subject", "weight"},
						},
					},
					"link": stringSchema("Official announcement URL, if known"),
				},
				Required: []string{"round_name", "isOpen", "eligibility", "exam_scores"},
			},
		},
		"recommended_tutors": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"subject": stringSchema("Exam subject"),
					"tutors": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"name":           stringSchema("Tutor or tutoring school"),
								"highlight":      stringSchema("What they are known for"),
								"teaching_style": stringSchema("How they teach"),
							},
							Required: []string{"name", "highlight", "teaching_style"},
						},
					},
				},
				Required: []string{"subject", "tutors"},
			},
		},
		"tuition_estimate": stringSchema("Approximate tuition per semester, if known"),
	},
	Required: []string{"rounds", "recommended_tutors"},
}
