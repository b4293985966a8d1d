package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/account"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/appointment"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/auth"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/catalog"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/config"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/metrics"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/records"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/remedy"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

type Server struct {
	cfg          config.Config
	logger       zerolog.Logger
	resolver     *auth.Resolver
	accounts     *account.Service
	appointments *appointment.Service
	records      *records.Service
	catalog      *catalog.Service
	remedies     *remedy.Service
}

// NewServer wires the domain services over store. redisClient is optional and only
// backs the AI remedy cache.
func NewServer(cfg config.Config, store repository.Store, redisClient *redis.Client, logger zerolog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	var cache remedy.Cache
	if redisClient != nil {
		cache = remedy.NewRedisCache(redisClient)
	}
	var generator remedy.Generator
	if cfg.LLMBaseURL != "" {
		generator = remedy.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	}

	return &Server{
		cfg:          cfg,
		logger:       logger,
		resolver:     auth.NewResolver(tokens, store),
		accounts:     account.NewService(store, tokens),
		appointments: appointment.NewService(store),
		records:      records.NewService(store),
		catalog:      catalog.NewService(store),
		remedies:     remedy.NewService(generator, cache, cfg.RemedyCacheTTL, logger),
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/user/register", s.handleRegisterPatient)
	r.Post("/auth/doctor/register", s.handleRegisterDoctor)
	r.Post("/auth/user/login", s.handleLogin(model.KindPatient))
	r.Post("/auth/doctor/login", s.handleLogin(model.KindDoctor))
	r.Post("/auth/login", s.handleUnifiedLogin)
	r.Post("/users/signup", s.handleSignup)

	r.With(s.authenticate()).Get("/users/me", s.handleGetMe)
	r.With(s.authenticate(model.KindDoctor)).Get("/doctors/me", s.handleGetDoctorMe)

	r.Route("/doctors", func(r chi.Router) {
		r.Use(s.authenticate())
		r.Get("/", s.handleListDoctors)
		r.Get("/available", s.handleAvailableDoctors)
		r.Get("/{doctorID}/slots", s.handleDoctorSlots)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.With(s.authenticate()).Get("/", s.handleListAppointments)
		r.With(s.authenticate(model.KindPatient)).Post("/", s.handleBookAppointment)
		r.With(s.authenticate(model.KindDoctor)).Post("/slots", s.handlePublishSlot)
		r.With(s.authenticate()).Put("/{appointmentID}", s.handleUpdateAppointment)
	})

	r.Route("/health-records", func(r chi.Router) {
		r.Use(s.authenticate())
		r.Get("/", s.handleListHealthRecords)
		r.Post("/", s.handleCreateHealthRecord)
		r.Get("/{recordID}", s.handleGetHealthRecord)
	})

	r.Route("/shop", func(r chi.Router) {
		r.Use(s.authenticate())
		r.Get("/", s.handleListProducts)
		r.Post("/", s.handleCreateProduct)
	})

	r.With(s.authenticate()).Get("/remedies/", s.handleListRemedies)
	r.With(s.authenticate()).Post("/ai/remedy", s.handleAIRemedy)

	return r
}

// authenticate resolves the bearer token into a principal. With a kind the token
// must belong to that kind; otherwise any kind is accepted.
func (s *Server) authenticate(kind ...model.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			var (
				principal model.Principal
				err       error
			)
			if len(kind) > 0 {
				principal, err = s.resolver.AuthenticateAs(r.Context(), header, kind[0])
			} else {
				principal, err = s.resolver.Authenticate(r.Context(), header)
			}
			if err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					s.fail(w, r, err)
					return
				}
				reason := auth.Reason(err)
				metrics.TokenRejections.WithLabelValues(reason).Inc()
				s.logger.Debug().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("reason", reason).
					Msg("token rejected")
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type principalKey struct{}

func principalFromContext(ctx context.Context) model.Principal {
	principal, _ := ctx.Value(principalKey{}).(model.Principal)
	return principal
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("invalid_request", "request body is required")
		}
		return apperr.Validation("invalid_request", err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	status := appErr.Kind.HTTPStatus()
	if appErr.Kind == apperr.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	message := appErr.Message
	if appErr.Kind == apperr.KindInternal {
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: appErr.Code, Message: message, Field: appErr.Field})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeError(w, err)
}

func pageFromQuery(r *http.Request) (repository.Page, error) {
	skip, err := intQuery(r, "skip", 0)
	if err != nil {
		return repository.Page{}, err
	}
	limit, err := intQuery(r, "limit", repository.DefaultLimit)
	if err != nil {
		return repository.Page{}, err
	}
	return repository.Page{Offset: skip, Limit: limit}.Normalize(), nil
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, apperr.InvalidField(name, name+" must be a non-negative integer")
	}
	return value, nil
}

func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.InvalidField(name, name+" must be a boolean")
	}
	return value, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidField("id", "id must be a positive integer")
	}
	return id, nil
}
