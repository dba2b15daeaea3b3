// Package web serves the TCAS Genius single page and the JSON API behind it.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/ctxutil"
	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
	"github.com/tcas-genius/tcas-genius-go/internal/ratelimit"
	"github.com/tcas-genius/tcas-genius-go/internal/session"
)

//go:embed templates/index.html
var templateFS embed.FS

// Advisor produces the model-backed answers. *advisor.Service satisfies it.
type Advisor interface {
	SearchUniversities(ctx context.Context, faculty string, lang admission.Lang) ([]string, error)
	UniversityDetails(ctx context.Context, faculty, university string, lang admission.Lang) (*admission.UniversityData, error)
	StreamChat(ctx context.Context, faculty, university, question string, lang admission.Lang, onChunk func(string) error) error
}

// Handler serves the page, catalog, and session endpoints.
type Handler struct {
	advisor  Advisor
	sessions *session.Manager
	clients  *ratelimit.KeyedLimiter
	global   *ratelimit.Limiter
	metrics  *metrics.Metrics
	page     *template.Template
}

// HandlerConfig holds the dependencies of a Handler.
type HandlerConfig struct {
	Advisor  Advisor
	Sessions *session.Manager

	// ClientLimiter limits model-backed requests per client IP. Optional.
	ClientLimiter *ratelimit.KeyedLimiter
	// GlobalLimiter caps model-backed requests across all clients. Optional.
	GlobalLimiter *ratelimit.Limiter

	Metrics *metrics.Metrics
}

// NewHandler creates a handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Advisor == nil {
		return nil, errors.New("web: advisor is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("web: session manager is required")
	}

	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &Handler{
		advisor:  cfg.Advisor,
		sessions: cfg.Sessions,
		clients:  cfg.ClientLimiter,
		global:   cfg.GlobalLimiter,
		metrics:  cfg.Metrics,
		page:     page,
	}, nil
}

// Register mounts all routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.index)

	api := r.Group("/api/v1")
	api.GET("/catalog/faculties", h.suggestFaculties)
	api.GET("/catalog/universities", h.suggestUniversities)
	api.GET("/catalog/tags", h.popularTags)
	api.GET("/i18n/:lang", h.translations)

	api.POST("/sessions", h.createSession)

	s := api.Group("/sessions/:id", h.sessionContext())
	s.GET("", h.getSession)
	s.POST("/navigate", h.navigate)
	s.POST("/lang", h.toggleLang)
	s.POST("/contact", h.contact)
	s.POST("/search", h.search)
	s.POST("/select", h.selectUniversity)
	s.POST("/chat", h.chat)
	s.POST("/chat/panel", h.chatPanel)
}

// sessionContext rejects malformed IDs and tags the request context with the
// session ID for logging.
func (h *Handler) sessionContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			writeError(c, requestLang(c), errSessionNotFound)
			c.Abort()
			return
		}
		ctx := ctxutil.WithSessionID(c.Request.Context(), id)
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// index renders the single page. The page carries its own CSP so that only
// its nonce-tagged inline script and style run.
func (h *Handler) index(c *gin.Context) {
	lang := requestLang(c)
	if q := c.Query("lang"); q != "" {
		lang = admission.ParseLang(q)
	}
	nonce := uuid.NewString()

	c.Header("Content-Security-Policy", fmt.Sprintf(
		"default-src 'self'; script-src 'nonce-%[1]s'; style-src 'nonce-%[1]s'; connect-src 'self'; img-src 'self' data:; frame-ancestors 'none'",
		nonce))
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)

	if err := h.page.Execute(c.Writer, newPageData(lang, nonce)); err != nil {
		_ = c.Error(fmt.Errorf("render page: %w", err))
	}
}
