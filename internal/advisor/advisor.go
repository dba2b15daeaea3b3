// Package advisor is the application service behind the UI: it turns a
// faculty or university choice into model prompts, caches the structured
// answers, and streams chat replies.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/catalog"
	"github.com/tcas-genius/tcas-genius-go/internal/config"
	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
	"github.com/tcas-genius/tcas-genius-go/internal/genai"
	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
	"github.com/tcas-genius/tcas-genius-go/internal/storage"
)

const moduleName = "advisor"

// Cache kinds.
const (
	KindUniversities = "universities"
	KindDetails      = "details"
)

// Cache stores generated payloads keyed by (kind, lang, key).
// *storage.DB satisfies it.
type Cache interface {
	GetResponse(ctx context.Context, kind, lang, key string) (*storage.CachedResponse, error)
	PutResponse(ctx context.Context, r *storage.CachedResponse) error
}

// Service answers admission questions with a language model.
type Service struct {
	gen     genai.Generator
	cache   Cache
	metrics *metrics.Metrics
	group   singleflight.Group

	listTimeout    time.Duration
	detailsTimeout time.Duration
	chatTimeout    time.Duration
}

// New creates a service. cache and m may be nil.
func New(gen genai.Generator, cache Cache, m *metrics.Metrics) *Service {
	return &Service{
		gen:            gen,
		cache:          cache,
		metrics:        m,
		listTimeout:    config.UniversityListTimeout,
		detailsTimeout: config.UniversityDetailsTimeout,
		chatTimeout:    config.ChatStreamTimeout,
	}
}

// SearchUniversities lists universities offering faculty. An empty list is a
// valid answer.
func (s *Service) SearchUniversities(ctx context.Context, faculty string, lang admission.Lang) ([]string, error) {
	wrap := apperrors.NewWrapper(moduleName, "search")
	msgs := catalog.For(lang)

	faculty = strings.TrimSpace(faculty)
	if faculty == "" {
		return nil, wrap.Wrap(apperrors.NewValidationError("faculty", "must not be blank"), msgs.ErrorInvalidInput)
	}

	payload, err := s.load(ctx, KindUniversities, lang, catalog.Normalize(faculty), s.listTimeout,
		func(ctx context.Context) ([]byte, string, error) {
			text, err := s.gen.GenerateJSON(ctx, genai.JSONRequest{
				Operation: genai.OperationUniversities,
				Prompt:    genai.UniversityListPrompt(faculty, lang),
				Schema:    genai.UniversityListSchema,
			})
			if err != nil {
				return nil, "", err
			}
			list, err := ParseUniversityList(text)
			if err != nil {
				return nil, "", err
			}
			b, err := json.Marshal(list)
			return b, s.gen.Model(), err
		})
	if err != nil {
		slog.WarnContext(ctx, "University search failed",
			"faculty", faculty,
			"lang", lang,
			"error", err)
		return nil, wrap.Wrap(err, msgs.ErrorGeneric)
	}

	var list []string
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, wrap.Wrap(fmt.Errorf("decode cached list: %w", err), msgs.ErrorGeneric)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// UniversityDetails returns admission rounds and tutor recommendations for
// faculty at university. Results without rounds are errors and are not cached.
func (s *Service) UniversityDetails(ctx context.Context, faculty, university string, lang admission.Lang) (*admission.UniversityData, error) {
	wrap := apperrors.NewWrapper(moduleName, "details")
	msgs := catalog.For(lang)

	faculty = strings.TrimSpace(faculty)
	university = strings.TrimSpace(university)
	if faculty == "" {
		return nil, wrap.Wrap(apperrors.NewValidationError("faculty", "must not be blank"), msgs.ErrorInvalidInput)
	}
	if university == "" {
		return nil, wrap.Wrap(apperrors.NewValidationError("university", "must not be blank"), msgs.ErrorInvalidInput)
	}

	key := catalog.Normalize(faculty) + "|" + catalog.Normalize(university)
	payload, err := s.load(ctx, KindDetails, lang, key, s.detailsTimeout,
		func(ctx context.Context) ([]byte, string, error) {
			text, err := s.gen.GenerateJSON(ctx, genai.JSONRequest{
				Operation: genai.OperationDetails,
				Prompt:    genai.UniversityDetailsPrompt(faculty, university, lang),
				Schema:    genai.UniversityDetailsSchema,
			})
			if err != nil {
				return nil, "", err
			}
			data, err := ParseUniversityData(text)
			if err != nil {
				return nil, "", err
			}
			b, err := json.Marshal(data)
			return b, s.gen.Model(), err
		})
	if err != nil {
		slog.WarnContext(ctx, "University details failed",
			"faculty", faculty,
			"university", university,
			"lang", lang,
			"error", err)
		return nil, wrap.Wrap(err, msgs.ErrorGeneric)
	}

	var data admission.UniversityData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, wrap.Wrap(fmt.Errorf("decode cached details: %w", err), msgs.ErrorGeneric)
	}
	if err := data.Validate(); err != nil {
		return nil, wrap.Wrap(err, msgs.ErrorGeneric)
	}
	return &data, nil
}

// StreamChat answers question about faculty at university, passing each
// piece of the reply to onChunk as it arrives.
func (s *Service) StreamChat(ctx context.Context, faculty, university, question string, lang admission.Lang, onChunk func(string) error) error {
	wrap := apperrors.NewWrapper(moduleName, "chat")
	msgs := catalog.For(lang)

	question = strings.TrimSpace(question)
	if question == "" {
		return wrap.Wrap(apperrors.NewValidationError("message", "must not be blank"), msgs.ErrorInvalidInput)
	}
	if s.gen == nil {
		return wrap.Wrap(genai.ErrNoGenerators, msgs.ErrorGeneric)
	}

	ctx, cancel := context.WithTimeout(ctx, s.chatTimeout)
	defer cancel()

	chunks := 0
	err := s.gen.StreamText(ctx, genai.ChatPrompt(faculty, university, question, lang), func(chunk string) error {
		chunks++
		return onChunk(chunk)
	})
	if err == nil && chunks == 0 {
		err = genai.ErrEmptyResponse
	}
	if err != nil {
		s.metrics.RecordChatStream(chatStatus(err), chunks)
		slog.WarnContext(ctx, "Chat stream failed",
			"chunks", chunks,
			"error", err)
		return wrap.Wrap(apperrors.NewUpstreamError(s.gen.Provider().String(), s.gen.Model(), err), msgs.ErrorGeneric)
	}

	s.metrics.RecordChatStream("success", chunks)
	return nil
}

func chatStatus(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

type generateFunc func(ctx context.Context) (payload []byte, model string, err error)

type loadResult struct {
	payload []byte
}

// load returns the cached payload for (kind, lang, key) or generates it.
// Concurrent loads of one key share a single generation, which runs
// detached from any one caller's cancellation but bounded by timeout.
func (s *Service) load(ctx context.Context, kind string, lang admission.Lang, key string, timeout time.Duration, generate generateFunc) ([]byte, error) {
	if s.cache != nil {
		cached, err := s.cache.GetResponse(ctx, kind, string(lang), key)
		switch {
		case err == nil:
			s.metrics.RecordCacheHit(kind)
			return cached.Payload, nil
		case !errors.Is(err, apperrors.ErrNotFound):
			slog.WarnContext(ctx, "Cache read failed, generating",
				"kind", kind,
				"error", err)
		}
		s.metrics.RecordCacheMiss(kind)
	}

	if s.gen == nil {
		return nil, genai.ErrNoGenerators
	}

	flightKey := kind + "\x00" + string(lang) + "\x00" + key
	ch := s.group.DoChan(flightKey, func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		payload, model, err := generate(genCtx)
		if err != nil {
			return nil, apperrors.NewUpstreamError(s.gen.Provider().String(), s.gen.Model(), err)
		}

		if s.cache != nil {
			if err := s.cache.PutResponse(genCtx, &storage.CachedResponse{
				Kind:    kind,
				Lang:    string(lang),
				Key:     key,
				Payload: payload,
				Model:   model,
			}); err != nil {
				slog.WarnContext(genCtx, "Cache write failed",
					"kind", kind,
					"error", err)
			}
		}
		return loadResult{payload: payload}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.metrics.RecordSingleflightDedup(kind)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(loadResult).payload, nil
	}
}
