package remedy

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/metrics"
)

type Language struct {
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
}

type Suggestion struct {
	Symptom     string   `json:"symptom"`
	Remedy      string   `json:"remedy"`
	Description string   `json:"description"`
	Language    Language `json:"language"`
}

var languages = map[string]Language{
	"en": {Name: "English", Code: "en"},
	"hi": {Name: "Hindi", Code: "hi"},
	"pa": {Name: "Punjabi", Code: "pa"},
}

// LookupLanguage resolves a request language code; empty means English.
func LookupLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = "en"
	}
	lang, ok := languages[code]
	return lang, ok
}

type Generator interface {
	Generate(ctx context.Context, symptom string, lang Language) (Suggestion, error)
}

type Cache interface {
	Get(ctx context.Context, key string) (Suggestion, bool, error)
	Set(ctx context.Context, key string, suggestion Suggestion, ttl time.Duration) error
}

type Service struct {
	generator Generator
	cache     Cache
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewService builds the remedy service; cache may be nil.
func NewService(generator Generator, cache Cache, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{generator: generator, cache: cache, ttl: ttl, logger: logger}
}

var errUnavailable = apperr.Unavailable("ai_unavailable", nil)

func (s *Service) Suggest(ctx context.Context, symptom, langCode string) (Suggestion, error) {
	symptom = strings.TrimSpace(symptom)
	if symptom == "" {
		return Suggestion{}, apperr.InvalidField("symptom", "symptom is required")
	}
	lang, ok := LookupLanguage(langCode)
	if !ok {
		return Suggestion{}, apperr.InvalidField("lang", "lang must be one of en, hi, pa")
	}
	key := cacheKey(lang, strings.ToLower(symptom))

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Msg("remedy cache read failed")
		} else if hit {
			metrics.RemedyRequests.WithLabelValues("cache").Inc()
			return cached, nil
		}
	}

	if s.generator == nil {
		metrics.RemedyRequests.WithLabelValues("failed").Inc()
		return Suggestion{}, errUnavailable
	}
	suggestion, err := s.generator.Generate(ctx, symptom, lang)
	if err != nil {
		metrics.RemedyRequests.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("lang", lang.Code).Msg("remedy generation failed")
		hubFrom(ctx).CaptureException(err)
		return Suggestion{}, apperr.Unavailable("ai_unavailable", err)
	}
	metrics.RemedyRequests.WithLabelValues("upstream").Inc()

	if suggestion.Symptom == "" {
		suggestion.Symptom = symptom
	}
	if suggestion.Language.Code == "" {
		suggestion.Language.Code = lang.Code
		suggestion.Language.Name = lang.Name
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, suggestion, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("remedy cache write failed")
		}
	}
	return suggestion, nil
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}
