package main

import (
	"testing"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"two faculties", "Medicine,Law", []string{"Medicine", "Law"}},
		{"with spaces", " Medicine , นิติศาสตร์ ", []string{"Medicine", "นิติศาสตร์"}},
		{"empty string", "", []string{}},
		{"only commas", ",,,", []string{}},
		{"keeps case", "LAW", []string{"LAW"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseList(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseLangs(t *testing.T) {
	got := parseLangs("TH, en, fr, th")
	want := []admission.Lang{admission.LangTH, admission.LangEN}
	if len(got) != len(want) {
		t.Fatalf("parseLangs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseLangs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := parseLangs(""); len(got) != 0 {
		t.Errorf("parseLangs(\"\") = %v, want empty", got)
	}
}
