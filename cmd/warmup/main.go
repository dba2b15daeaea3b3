// Command warmup pre-generates cached university lists and admission details
// so the first visitors of a fresh deployment do not wait on the model.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/advisor"
	"github.com/tcas-genius/tcas-genius-go/internal/app"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
	"github.com/tcas-genius/tcas-genius-go/internal/config"
	"github.com/tcas-genius/tcas-genius-go/internal/genai"
	"github.com/tcas-genius/tcas-genius-go/internal/logger"
	"github.com/tcas-genius/tcas-genius-go/internal/storage"
	"github.com/tcas-genius/tcas-genius-go/internal/warmup"
)

// CLI flags
var (
	resetFlag     = flag.Bool("reset", false, "Delete all cached AI responses before warmup")
	facultiesFlag = flag.String("faculties", "", "Comma-separated faculties to warm (default: popular tags)")
	langsFlag     = flag.String("langs", "th,en", "Comma-separated languages to warm (th,en)")
	recentFlag    = flag.Int("recent", 0, "Also refresh the N most recently searched faculties per language")
	detailsFlag   = flag.Int("details", 3, "Also warm details for the first N universities of each list")
	workersFlag   = flag.Int("workers", 0, "Parallel model calls (0 = use config default)")
	timeoutFlag   = flag.Duration("timeout", config.WarmupRun, "Overall time limit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).WithModule("warmup")
	log.Info("Starting warmup tool")

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		fatal(log, err, "Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).
		WithField("cache_ttl", cfg.CacheTTL).
		Info("Database connected")

	faculties := parseList(*facultiesFlag)
	if len(faculties) == 0 {
		faculties = slices.Clone(catalog.PopularTags)
	}
	langs := parseLangs(*langsFlag)
	if len(langs) == 0 {
		log.Info("No languages specified, exiting")
		fmt.Println("⏭️  No languages to warm up, skipping")
		return
	}

	if *recentFlag > 0 {
		faculties = appendRecent(ctx, log, db, faculties, langs, *recentFlag)
	}

	if *resetFlag {
		log.Warn("Resetting cached AI responses...")
		deleted, err := db.DeleteExpiredResponses(ctx, 0)
		if err != nil {
			fatal(log, err, "Failed to reset cache")
		}
		log.WithField("deleted", deleted).Info("Cache reset complete")
	}

	workers := *workersFlag
	if workers <= 0 {
		workers = cfg.Warmup.Concurrency
	}

	gen, err := genai.CreateGenerator(ctx, app.BuildLLMConfig(cfg), nil)
	if err != nil {
		fatal(log, err, "Failed to create LLM generator")
	}
	defer func() { _ = gen.Close() }()

	log.WithField("faculties", len(faculties)).
		WithField("langs", langs).
		WithField("workers", workers).
		Info("Warming cache")

	start := time.Now()
	stats, err := warmup.Run(ctx, advisor.New(gen, db, nil), warmup.Options{
		Faculties:         faculties,
		Langs:             langs,
		DetailsPerFaculty: *detailsFlag,
		Concurrency:       workers,
	})
	duration := time.Since(start)

	if err != nil || stats.Failed.Load() > 0 {
		log.WithField("duration", duration).Error("Warmup completed with errors")
		fmt.Fprintf(os.Stderr, "\n❌ Warmup completed with errors: %d lists, %d details cached, %d failed\n",
			stats.Lists.Load(), stats.Details.Load(), stats.Failed.Load())
		fmt.Fprintf(os.Stderr, "Total time: %v\n", duration.Round(time.Second))
		os.Exit(1)
	}

	log.WithField("duration", duration).Info("Warmup complete")
	fmt.Printf("\n✅ Warmup complete: %d lists, %d details cached\n", stats.Lists.Load(), stats.Details.Load())
	fmt.Printf("Total time: %v\n", duration.Round(time.Second))
}

// appendRecent adds faculties users searched recently, so a reset cache is
// refilled with what is actually in demand. It must run before the reset.
func appendRecent(ctx context.Context, log *logger.Logger, db *storage.DB, faculties []string, langs []admission.Lang, n int) []string {
	seen := make(map[string]bool, len(faculties))
	for _, f := range faculties {
		seen[catalog.Normalize(f)] = true
	}
	for _, lang := range langs {
		keys, err := db.ListResponseKeys(ctx, advisor.KindUniversities, string(lang), n)
		if err != nil {
			log.WithError(err).WithField("lang", lang).Warn("Failed to list recent searches")
			continue
		}
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				faculties = append(faculties, key)
			}
		}
	}
	return faculties
}

func fatal(log *logger.Logger, err error, msg string) {
	log.WithError(err).Error(msg)
	os.Exit(1)
}

// parseList splits a comma-separated list, dropping blanks.
func parseList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parseLangs parses a language list, skipping unknown codes and duplicates.
func parseLangs(s string) []admission.Lang {
	var langs []admission.Lang
	seen := make(map[admission.Lang]bool)
	for _, code := range parseList(s) {
		lang := admission.Lang(strings.ToLower(code))
		if !lang.Valid() || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	return langs
}
