package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
	"github.com/tcas-genius/tcas-genius-go/internal/sentry"
	"github.com/tcas-genius/tcas-genius-go/internal/session"
)

type chatRequest struct {
	Message string `json:"message"`
}

// chat streams the advisor's reply as server-sent events: one "delta" per
// chunk, then "done" with the full text or "error" with the apology that
// replaced it in the transcript.
func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, requestLang(c), err)
		return
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		writeError(c, requestLang(c), apperrors.NewValidationError("message", "must not be blank"))
		return
	}
	if !h.allowModelCall(c) {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	var (
		lang                admission.Lang
		faculty, university string
	)
	_, err := h.sessions.Update(ctx, id, func(s *session.State) error {
		lang = s.Lang
		if !s.BeginChat(question, h.sessions.Now()) {
			return apperrors.ErrInvalidTransition
		}
		if s.Details != nil {
			faculty, university = s.Faculty, s.SelectedUniversity
		}
		return nil
	})
	if err != nil {
		writeError(c, langOr(lang, c), err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	var reply strings.Builder
	streamErr := h.advisor.StreamChat(ctx, faculty, university, question, lang, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		reply.WriteString(chunk)
		c.SSEvent("delta", gin.H{"text": chunk})
		c.Writer.Flush()
		return nil
	})

	msgs := catalog.For(lang)
	_, saveErr := h.sessions.Update(context.WithoutCancel(ctx), id, func(s *session.State) error {
		if !s.ChatSending {
			return nil
		}
		if streamErr != nil {
			s.FailChat(msgs.ChatApology)
			return nil
		}
		s.AppendChunk(reply.String())
		s.FinishChat()
		return nil
	})
	if saveErr != nil {
		slog.ErrorContext(ctx, "Failed to save chat reply", "error", saveErr)
	}

	if streamErr != nil {
		status, code := classify(streamErr)
		if status >= http.StatusInternalServerError {
			sentry.CaptureRequestError(c, streamErr)
		}
		_ = c.Error(streamErr)
		c.SSEvent("error", errorResponse{Code: code, Message: msgs.ChatApology})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", gin.H{"text": reply.String()})
	c.Writer.Flush()
}
