package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tcas-genius/tcas-genius-go/internal/config"
	"github.com/tcas-genius/tcas-genius-go/internal/ctxutil"
	"github.com/tcas-genius/tcas-genius-go/internal/genai"
	"github.com/tcas-genius/tcas-genius-go/internal/logger"
	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
	"github.com/tcas-genius/tcas-genius-go/internal/ratelimit"
	"github.com/tcas-genius/tcas-genius-go/internal/storage"
)

// setupTestApp creates a minimal Application for testing endpoints and jobs.
func setupTestApp(t *testing.T) *Application {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.New(context.Background(), dbPath, 168*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{Name: "client", Burst: 1, RefillRate: 1})
	t.Cleanup(limiter.Stop)

	return &Application{
		cfg: &config.Config{
			CacheTTL:        168 * time.Hour,
			SessionTTL:      24 * time.Hour,
			DataCleanupHour: 4,
			Timezone:        "Asia/Bangkok",
		},
		db:            db,
		metrics:       metrics.New(prometheus.NewRegistry()),
		logger:        logger.NewWithWriter("error", io.Discard),
		clientLimiter: limiter,
	}
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	router := gin.New()
	router.GET("/livez", app.livenessCheck)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}
	if status, ok := response["status"].(string); !ok || status != "alive" {
		t.Errorf("Expected status='alive', got %v", response["status"])
	}
}

func TestReadinessCheck_Ready(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	ctx := context.Background()

	if err := app.db.PutSession(ctx, "s1", []byte(`{}`), time.Now()); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	router := gin.New()
	router.GET("/readyz", app.readinessCheck)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var response struct {
		Status string         `json:"status"`
		Cache  map[string]int `json:"cache"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}
	if response.Status != "ready" {
		t.Errorf("Expected status='ready', got %q", response.Status)
	}
	if response.Cache["sessions"] != 1 {
		t.Errorf("Expected 1 session, got %d", response.Cache["sessions"])
	}
	if response.Cache["ai_responses"] != 0 {
		t.Errorf("Expected 0 cached responses, got %d", response.Cache["ai_responses"])
	}
}

func TestReadinessCheck_DatabaseClosed(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	_ = app.db.Close()

	router := gin.New()
	router.GET("/readyz", app.readinessCheck)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.Use(securityHeadersMiddleware())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy missing")
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	t.Parallel()

	var seen string
	router := gin.New()
	router.Use(loggingMiddleware(logger.NewWithWriter("error", io.Discard)))
	router.GET("/x", func(c *gin.Context) {
		seen, _ = ctxutil.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen != "abc-123" {
		t.Errorf("request ID in context = %q, want abc-123", seen)
	}
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id header = %q, want abc-123", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen == "" || seen == "abc-123" {
		t.Errorf("expected a generated request ID, got %q", seen)
	}
	if w.Header().Get("X-Request-Id") != seen {
		t.Errorf("generated request ID not echoed in header")
	}
}

func TestNextDailyRun(t *testing.T) {
	t.Parallel()

	bangkok := time.FixedZone("ICT", 7*3600)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 3, 1, 1, 30, 0, 0, bangkok),
			want: time.Date(2026, 3, 1, 4, 0, 0, 0, bangkok),
		},
		{
			name: "already passed",
			now:  time.Date(2026, 3, 1, 5, 0, 0, 0, bangkok),
			want: time.Date(2026, 3, 2, 4, 0, 0, 0, bangkok),
		},
		{
			name: "exactly now schedules tomorrow",
			now:  time.Date(2026, 3, 1, 4, 0, 0, 0, bangkok),
			want: time.Date(2026, 3, 2, 4, 0, 0, 0, bangkok),
		},
		{
			name: "utc input converted",
			now:  time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 2, 4, 0, 0, 0, bangkok),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := nextDailyRun(tt.now, 4, bangkok); !got.Equal(tt.want) {
				t.Fatalf("nextDailyRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunDataCleanup(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	ctx := context.Background()

	if err := app.db.PutSession(ctx, "old", []byte(`{}`), time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatalf("PutSession: %v", err)
	}
	if err := app.db.PutSession(ctx, "fresh", []byte(`{}`), time.Now()); err != nil {
		t.Fatalf("PutSession: %v", err)
	}
	if err := app.db.PutResponse(ctx, &storage.CachedResponse{
		Kind: "universities", Lang: "th", Key: "law",
		Payload:  []byte(`[]`),
		CachedAt: time.Now().Add(-30 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("PutResponse: %v", err)
	}

	app.runDataCleanup(ctx)

	if n, _ := app.db.CountSessions(ctx); n != 1 {
		t.Errorf("sessions after cleanup = %d, want 1", n)
	}
	if n, _ := app.db.CountResponses(ctx); n != 0 {
		t.Errorf("responses after cleanup = %d, want 0", n)
	}
}

func TestBuildLLMConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{LLM: config.LLMConfig{
		Providers:    []string{"groq", "bogus", "gemini"},
		GeminiAPIKey: "g",
		GroqAPIKey:   "q",
		GroqModels:   []string{"m1"},
	}}

	llmCfg := BuildLLMConfig(cfg)

	if len(llmCfg.Providers) != 2 || llmCfg.Providers[0] != genai.ProviderGroq || llmCfg.Providers[1] != genai.ProviderGemini {
		t.Fatalf("providers = %v", llmCfg.Providers)
	}
	if llmCfg.Groq.APIKey != "q" || len(llmCfg.Groq.Models) != 1 {
		t.Errorf("groq config = %+v", llmCfg.Groq)
	}
	if llmCfg.RetryConfig.InitialDelay != config.LLMRetryInitial {
		t.Errorf("retry initial delay = %v", llmCfg.RetryConfig.InitialDelay)
	}
	if got := llmCfg.ConfiguredProviders(); len(got) != 2 {
		t.Errorf("configured providers = %v", got)
	}
}
