// Package admission holds the value objects of the TCAS admission domain:
// languages, admission rounds, tutor recommendations, and chat transcripts.
package admission

import "strings"

// Lang is a supported interface and response language.
type Lang string

// Supported languages.
const (
	LangTH Lang = "th"
	LangEN Lang = "en"
)

// DefaultLang is used when no language is given.
const DefaultLang = LangTH

// ParseLang maps a code to a Lang. Anything unrecognized is Thai.
func ParseLang(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "en-us", "en-gb", "english":
		return LangEN
	default:
		return LangTH
	}
}

// Toggle returns the other language.
func (l Lang) Toggle() Lang {
	if l == LangEN {
		return LangTH
	}
	return LangEN
}

// Valid reports whether l is a supported language.
func (l Lang) Valid() bool {
	return l == LangTH || l == LangEN
}

// Name is the language name used inside model prompts.
func (l Lang) Name() string {
	if l == LangEN {
		return "English"
	}
	return "Thai"
}
