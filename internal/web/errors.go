package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
	"github.com/tcas-genius/tcas-genius-go/internal/sentry"
)

// statusClientClosed is logged when the client went away mid-request.
const statusClientClosed = 499

var errSessionNotFound = apperrors.ErrNotFound

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// classify maps an error to an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, apperrors.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, context.Canceled):
		return statusClientClosed, "canceled"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, apperrors.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// localizedMessage picks the message shown for status in lang. Server-side
// failures all share the generic message.
func localizedMessage(err error, status int, lang admission.Lang) string {
	msgs := catalog.For(lang)
	switch status {
	case http.StatusBadRequest, http.StatusConflict:
		return msgs.ErrorInvalidInput
	case http.StatusNotFound:
		return msgs.ErrorNotFound
	case http.StatusTooManyRequests:
		return msgs.ErrorRateLimited
	default:
		return apperrors.GetUserMessage(err, msgs.ErrorGeneric)
	}
}

// writeError sends the JSON error body for err. 5xx errors go to Sentry.
func writeError(c *gin.Context, lang admission.Lang, err error) {
	status, code := classify(err)
	ctx := c.Request.Context()

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Request failed",
			"route", c.FullPath(),
			"status", status,
			"error", err)
		sentry.CaptureRequestError(c, err)
	} else if status != http.StatusNotFound {
		slog.DebugContext(ctx, "Request rejected",
			"route", c.FullPath(),
			"status", status,
			"error", err)
	}

	_ = c.Error(err)
	c.JSON(status, errorResponse{Code: code, Message: localizedMessage(err, status, lang)})
}

// writeRateLimited sends a 429 with a Retry-After header.
func writeRateLimited(c *gin.Context, lang admission.Lang, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	writeError(c, lang, apperrors.ErrRateLimitExceeded)
}

// requestLang is the language asked for by the client before any session
// is known.
func requestLang(c *gin.Context) admission.Lang {
	return catalog.MatchLang(c.GetHeader("Accept-Language"))
}
