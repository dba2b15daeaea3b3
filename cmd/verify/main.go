// Command verify checks the static catalog and UI message tables for
// consistency before a release.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
)

// Verification results
type verifyResult struct {
	name    string
	passed  bool
	message string
}

func main() {
	fmt.Println("🔍 TCAS Genius - Catalog Consistency Verification Tool")
	fmt.Println("======================================================")

	results := runChecks()

	fmt.Println("\n📊 Verification Results:")
	fmt.Println("========================")

	passedCount := 0
	failedCount := 0

	for _, result := range results {
		status := "❌"
		if result.passed {
			status = "✅"
			passedCount++
		} else {
			failedCount++
		}
		fmt.Printf("%s %s: %s\n", status, result.name, result.message)
	}

	fmt.Printf("\n📈 Summary: %d passed, %d failed\n", passedCount, failedCount)

	if failedCount > 0 {
		os.Exit(1)
	}
}

func runChecks() []verifyResult {
	var results []verifyResult
	results = append(results, verifyMessages()...)
	results = append(results, verifyCatalog(catalog.Faculties, "Faculties"))
	results = append(results, verifyCatalog(catalog.Universities, "Universities"))
	results = append(results, verifyPopularTags())
	results = append(results, verifyMyTCASURL())
	return results
}

// verifyMessages checks that every language fills every UI string.
func verifyMessages() []verifyResult {
	results := []verifyResult{}

	tables := make(map[admission.Lang]map[string]string)
	for _, lang := range []admission.Lang{admission.LangTH, admission.LangEN} {
		table, err := messageTable(lang)
		if err != nil {
			results = append(results, verifyResult{
				name:    fmt.Sprintf("Messages (%s)", lang),
				message: err.Error(),
			})
			continue
		}
		tables[lang] = table

		var empty []string
		for key, value := range table {
			if strings.TrimSpace(value) == "" {
				empty = append(empty, key)
			}
		}
		results = append(results, verifyResult{
			name:    fmt.Sprintf("Messages (%s) Non-empty", lang),
			passed:  len(empty) == 0,
			message: describeMissing(len(table), empty),
		})

		intro := catalog.For(lang).ChatIntro("FACULTY", "UNIVERSITY")
		results = append(results, verifyResult{
			name:    fmt.Sprintf("Chat Intro (%s)", lang),
			passed:  strings.Contains(intro, "FACULTY") && strings.Contains(intro, "UNIVERSITY"),
			message: intro,
		})
	}

	th, en := tables[admission.LangTH], tables[admission.LangEN]
	if th != nil && en != nil {
		results = append(results, verifyResult{
			name:    "Messages Key Parity",
			passed:  len(th) == len(en),
			message: fmt.Sprintf("th=%d keys, en=%d keys", len(th), len(en)),
		})
	}

	return results
}

func messageTable(lang admission.Lang) (map[string]string, error) {
	data, err := json.Marshal(catalog.For(lang))
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return table, nil
}

// verifyCatalog checks a suggestion list for blanks and normalized duplicates.
func verifyCatalog(entries []string, name string) verifyResult {
	seen := make(map[string]string, len(entries))
	var problems []string
	for _, entry := range entries {
		key := catalog.Normalize(entry)
		if key == "" {
			problems = append(problems, "(blank)")
			continue
		}
		if prev, ok := seen[key]; ok {
			problems = append(problems, fmt.Sprintf("%q duplicates %q", entry, prev))
			continue
		}
		seen[key] = entry
	}
	return verifyResult{
		name:    name + " Uniqueness",
		passed:  len(problems) == 0,
		message: describeMissing(len(entries), problems),
	}
}

// verifyPopularTags checks that every quick-pick tag is a known faculty.
func verifyPopularTags() verifyResult {
	var unknown []string
	for _, tag := range catalog.PopularTags {
		if len(catalog.SuggestFaculties(tag)) == 0 {
			unknown = append(unknown, tag)
		}
	}
	return verifyResult{
		name:    "Popular Tags In Catalog",
		passed:  len(unknown) == 0,
		message: describeMissing(len(catalog.PopularTags), unknown),
	}
}

func verifyMyTCASURL() verifyResult {
	u := catalog.MyTCASSearchURL("a&b c")
	return verifyResult{
		name:    "MyTCAS URL Escaping",
		passed:  strings.HasPrefix(u, catalog.MyTCASSearchBase) && !strings.Contains(u, "&b") && !strings.Contains(u, " "),
		message: u,
	}
}

func describeMissing(total int, problems []string) string {
	if len(problems) == 0 {
		return fmt.Sprintf("All %d entries OK", total)
	}
	return fmt.Sprintf("%d of %d entries invalid: %s", len(problems), total, strings.Join(problems, ", "))
}
