package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/genai"
)

// ParseUniversityList extracts the "universities" array from a model
// response. Blank and repeated names are dropped, order is kept.
func ParseUniversityList(text string) ([]string, error) {
	text = stripCodeFence(text)
	if strings.TrimSpace(text) == "" {
		return nil, genai.ErrEmptyResponse
	}
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("university list is not valid JSON")
	}

	arr := gjson.Get(text, "universities")
	if !arr.IsArray() {
		// Some models answer with a bare array.
		root := gjson.Parse(text)
		if !root.IsArray() {
			return nil, fmt.Errorf("university list has no universities array")
		}
		arr = root
	}

	list := make([]string, 0, len(arr.Array()))
	seen := make(map[string]bool)
	arr.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.String {
			return true
		}
		name := strings.TrimSpace(v.String())
		if name == "" || seen[name] {
			return true
		}
		seen[name] = true
		list = append(list, name)
		return true
	})
	return list, nil
}

// ParseUniversityData decodes and validates an admission details response.
func ParseUniversityData(text string) (*admission.UniversityData, error) {
	text = stripCodeFence(text)
	if strings.TrimSpace(text) == "" {
		return nil, genai.ErrEmptyResponse
	}

	var data admission.UniversityData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("decode university details: %w", err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// stripCodeFence removes a surrounding ```json fence.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
