// Package warmup pre-generates university lists (and optionally admission
// details) for popular faculties so the first visitors hit the cache.
package warmup

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/config"
	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
)

// Advisor is the subset of *advisor.Service used for warming.
type Advisor interface {
	SearchUniversities(ctx context.Context, faculty string, lang admission.Lang) ([]string, error)
	UniversityDetails(ctx context.Context, faculty, university string, lang admission.Lang) (*admission.UniversityData, error)
}

// Stats counts warmed entries. Fields are updated concurrently.
type Stats struct {
	Lists   atomic.Int64
	Details atomic.Int64
	Failed  atomic.Int64
}

// Options configures a warmup run.
type Options struct {
	Faculties []string
	Langs     []admission.Lang

	// DetailsPerFaculty also warms details for the first N universities
	// of each list. 0 warms lists only.
	DetailsPerFaculty int

	// Concurrency bounds parallel model calls (default 2).
	Concurrency int

	// ItemTimeout bounds one generation (default config.WarmupItem).
	ItemTimeout time.Duration

	Metrics *metrics.Metrics
}

// Run warms every (faculty, lang) pair. Individual failures are counted
// and logged; Run only fails when ctx is done.
func Run(ctx context.Context, adv Advisor, opts Options) (*Stats, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = config.WarmupItem
	}
	if len(opts.Langs) == 0 {
		opts.Langs = []admission.Lang{admission.LangTH, admission.LangEN}
	}

	stats := &Stats{}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, lang := range opts.Langs {
		for _, faculty := range opts.Faculties {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				warmFaculty(gctx, adv, faculty, lang, opts, stats)
				return nil
			})
		}
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	opts.Metrics.RecordWarmupDuration(elapsed.Seconds())
	slog.InfoContext(ctx, "Warmup finished",
		"lists", stats.Lists.Load(),
		"details", stats.Details.Load(),
		"failed", stats.Failed.Load(),
		"duration", elapsed)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("warmup canceled: %w", err)
	}
	return stats, nil
}

func warmFaculty(ctx context.Context, adv Advisor, faculty string, lang admission.Lang, opts Options, stats *Stats) {
	itemCtx, cancel := context.WithTimeout(ctx, opts.ItemTimeout)
	list, err := adv.SearchUniversities(itemCtx, faculty, lang)
	cancel()
	if err != nil {
		record(ctx, opts.Metrics, stats, err, "faculty", faculty, "lang", lang)
		return
	}
	stats.Lists.Add(1)
	opts.Metrics.RecordWarmupTask("success")

	for i, university := range list {
		if i >= opts.DetailsPerFaculty || ctx.Err() != nil {
			return
		}
		itemCtx, cancel := context.WithTimeout(ctx, opts.ItemTimeout)
		_, err := adv.UniversityDetails(itemCtx, faculty, university, lang)
		cancel()
		if err != nil {
			record(ctx, opts.Metrics, stats, err, "faculty", faculty, "university", university, "lang", lang)
			continue
		}
		stats.Details.Add(1)
		opts.Metrics.RecordWarmupTask("success")
	}
}

func record(ctx context.Context, m *metrics.Metrics, stats *Stats, err error, args ...any) {
	stats.Failed.Add(1)
	m.RecordWarmupTask("error")
	slog.WarnContext(ctx, "Warmup item failed", append(args, "error", err)...)
}
