package app

import (
	"context"
	"time"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
	"github.com/tcas-genius/tcas-genius-go/internal/config"
	"github.com/tcas-genius/tcas-genius-go/internal/sentry"
	"github.com/tcas-genius/tcas-genius-go/internal/warmup"
)

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.dataCleanup(ctx)
	})
	a.wg.Go(func() {
		a.updateCacheSizeMetrics(ctx)
	})
	if a.snapshots != nil {
		a.wg.Go(func() {
			a.snapshots.Run(ctx, a.db)
		})
	}
	if a.cfg.Warmup.Enabled {
		a.wg.Go(func() {
			a.startupWarmup(ctx)
		})
	}
}

// nextDailyRun returns the next occurrence of hour:00 in loc after now.
func nextDailyRun(now time.Time, hour int, loc *time.Location) time.Time {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// dataCleanup purges expired AI responses and idle sessions once on startup,
// then daily at the configured hour in the configured timezone.
func (a *Application) dataCleanup(ctx context.Context) {
	log := a.logger.WithModule("cleanup")
	log.Debug("Data cleanup job started")
	defer log.Debug("Data cleanup job stopped")

	a.runDataCleanup(ctx)

	loc := a.cfg.Location()
	for {
		next := nextDailyRun(time.Now(), a.cfg.DataCleanupHour, loc)
		log.WithField("next_run", next.Format(time.RFC3339)).
			Info("Scheduled next data cleanup")

		select {
		case <-ctx.Done():
			log.Debug("Data cleanup received shutdown signal")
			return
		case <-time.After(time.Until(next)):
			a.runDataCleanup(ctx)
		}
	}
}

func (a *Application) runDataCleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, config.DataCleanup)
	defer cancel()

	start := time.Now()
	var total int64

	if deleted, err := a.db.DeleteExpiredResponses(ctx, a.cfg.CacheTTL); err != nil {
		a.logger.WithError(err).Error("Failed to clean up expired AI responses")
		sentry.CaptureExceptionWithContext(ctx, err)
	} else {
		total += deleted
	}

	if deleted, err := a.db.DeleteExpiredSessions(ctx, a.cfg.SessionTTL); err != nil {
		a.logger.WithError(err).Error("Failed to clean up idle sessions")
		sentry.CaptureExceptionWithContext(ctx, err)
	} else {
		total += deleted
	}

	a.logger.WithField("deleted", total).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Data cleanup completed")
}

// updateCacheSizeMetrics periodically records table sizes to Prometheus.
func (a *Application) updateCacheSizeMetrics(ctx context.Context) {
	a.logger.Debug("Cache metrics job started")
	defer a.logger.Debug("Cache metrics job stopped")

	a.recordCacheSizeMetrics(ctx)

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Cache metrics received shutdown signal")
			return
		case <-ticker.C:
			a.recordCacheSizeMetrics(ctx)
		}
	}
}

func (a *Application) recordCacheSizeMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	for table, n := range a.getCacheStats(ctx) {
		a.metrics.SetCacheEntries(table, n)
	}
	a.metrics.SetRateLimiterClients(a.clientLimiter.ActiveCount())
}

// startupWarmup pre-generates university lists (and the top details) for
// the popular faculties in both languages.
func (a *Application) startupWarmup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, config.WarmupRun)
	defer cancel()

	start := time.Now()
	stats, err := warmup.Run(ctx, a.advisor, warmup.Options{
		Faculties:         catalog.PopularTags,
		Langs:             []admission.Lang{admission.LangTH, admission.LangEN},
		DetailsPerFaculty: 3,
		Concurrency:       a.cfg.Warmup.Concurrency,
		Metrics:           a.metrics,
	})
	if err != nil {
		a.logger.WithError(err).Warn("Warmup interrupted")
		return
	}
	a.logger.WithField("lists", stats.Lists.Load()).
		WithField("details", stats.Details.Load()).
		WithField("failed", stats.Failed.Load()).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Warmup completed")
}
