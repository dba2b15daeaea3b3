package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
	"github.com/tcas-genius/tcas-genius-go/internal/session"
)

type createSessionRequest struct {
	Lang string `json:"lang"`
}

type navigateRequest struct {
	View string `json:"view"`
}

type searchRequest struct {
	Faculty string `json:"faculty"`
}

type selectRequest struct {
	University string `json:"university"`
}

type chatPanelRequest struct {
	Open *bool `json:"open"`
}

// sessionResponse is a session state plus links derived from it.
type sessionResponse struct {
	*session.State
	MyTCASURL string `json:"mytcas_url,omitempty"`
}

func newSessionResponse(s *session.State) sessionResponse {
	resp := sessionResponse{State: s}
	if s.View == session.ViewDashboard && s.SelectedUniversity != "" {
		resp.MyTCASURL = catalog.MyTCASSearchURL(s.SelectedUniversity)
	}
	return resp
}

// bindJSON decodes an optional JSON body. A malformed body is invalid input.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("body", err.Error())
	}
	return nil
}

// langOr returns lang, or the request's language when no session was loaded.
func langOr(lang admission.Lang, c *gin.Context) admission.Lang {
	if lang.Valid() {
		return lang
	}
	return requestLang(c)
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, requestLang(c), err)
		return
	}

	lang := requestLang(c)
	if req.Lang != "" {
		lang = admission.ParseLang(req.Lang)
	}

	state, err := h.sessions.Create(c.Request.Context(), lang)
	if err != nil {
		writeError(c, lang, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(state))
}

func (h *Handler) getSession(c *gin.Context) {
	state, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, requestLang(c), err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(state))
}

// update applies fn to the session and answers with the new state.
func (h *Handler) update(c *gin.Context, fn func(*session.State) error) {
	var lang admission.Lang
	state, err := h.sessions.Update(c.Request.Context(), c.Param("id"), func(s *session.State) error {
		lang = s.Lang
		return fn(s)
	})
	if err != nil {
		writeError(c, langOr(lang, c), err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(state))
}

func (h *Handler) navigate(c *gin.Context) {
	var req navigateRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, requestLang(c), err)
		return
	}
	view, ok := session.ParseView(req.View)
	if !ok {
		writeError(c, requestLang(c), apperrors.NewValidationError("view", "unknown view"))
		return
	}
	h.update(c, func(s *session.State) error {
		return s.Navigate(view)
	})
}

func (h *Handler) toggleLang(c *gin.Context) {
	h.update(c, func(s *session.State) error {
		s.ToggleLang()
		return nil
	})
}

func (h *Handler) contact(c *gin.Context) {
	h.update(c, func(s *session.State) error {
		s.OpenContact(catalog.For(s.Lang).ContactGreeting)
		return nil
	})
}

// chatPanel shows or hides the chat. Without "open" it toggles.
func (h *Handler) chatPanel(c *gin.Context) {
	var req chatPanelRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, requestLang(c), err)
		return
	}
	h.update(c, func(s *session.State) error {
		open := !s.ChatOpen
		if req.Open != nil {
			open = *req.Open
		}
		s.SetChatOpen(open)
		return nil
	})
}

// search asks the model for universities offering a faculty. The session is
// marked loading while the model runs, and the result is applied only if the
// session still searches for the same faculty.
func (h *Handler) search(c *gin.Context) {
	var req searchRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, requestLang(c), err)
		return
	}
	if strings.TrimSpace(req.Faculty) == "" {
		writeError(c, requestLang(c), apperrors.NewValidationError("faculty", "must not be blank"))
		return
	}
	if !h.allowModelCall(c) {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	var lang admission.Lang
	state, err := h.sessions.Update(ctx, id, func(s *session.State) error {
		lang = s.Lang
		if !s.BeginSearch(req.Faculty) {
			return apperrors.NewValidationError("faculty", "must not be blank")
		}
		return nil
	})
	if err != nil {
		writeError(c, langOr(lang, c), err)
		return
	}
	faculty := state.Faculty

	list, searchErr := h.advisor.SearchUniversities(ctx, faculty, lang)

	state, err = h.sessions.Update(context.WithoutCancel(ctx), id, func(s *session.State) error {
		if searchErr != nil {
			if s.Faculty == faculty {
				s.Fail(catalog.For(s.Lang).ErrorGeneric)
			}
			return nil
		}
		s.CompleteSearch(faculty, list)
		return nil
	})
	if searchErr != nil {
		writeError(c, lang, searchErr)
		return
	}
	if err != nil {
		writeError(c, lang, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(state))
}

// selectUniversity loads admission details and opens the dashboard.
func (h *Handler) selectUniversity(c *gin.Context) {
	var req selectRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, requestLang(c), err)
		return
	}
	if strings.TrimSpace(req.University) == "" {
		writeError(c, requestLang(c), apperrors.NewValidationError("university", "must not be blank"))
		return
	}
	if !h.allowModelCall(c) {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	var lang admission.Lang
	state, err := h.sessions.Update(ctx, id, func(s *session.State) error {
		lang = s.Lang
		return s.BeginSelect(req.University)
	})
	if err != nil {
		writeError(c, langOr(lang, c), err)
		return
	}
	faculty, university := state.Faculty, state.SelectedUniversity

	details, detailsErr := h.advisor.UniversityDetails(ctx, faculty, university, lang)

	state, err = h.sessions.Update(context.WithoutCancel(ctx), id, func(s *session.State) error {
		if detailsErr != nil {
			if s.Selecting(faculty, university) {
				s.Fail(catalog.For(s.Lang).ErrorGeneric)
			}
			return nil
		}
		s.CompleteSelect(faculty, university, details, catalog.For(s.Lang).ChatIntro(faculty, university))
		return nil
	})
	if detailsErr != nil {
		writeError(c, lang, detailsErr)
		return
	}
	if err != nil {
		writeError(c, lang, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(state))
}
