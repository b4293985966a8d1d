package account

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/auth"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/crypto"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/metrics"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/validation"
)

// Unified login tries kinds in this order; the first principal whose password verifies wins.
var loginOrder = []model.Kind{model.KindPatient, model.KindDoctor, model.KindAdmin}

type Store interface {
	FindPrincipalByLoginKey(ctx context.Context, kind model.Kind, key string) (model.Principal, error)
	Taken(ctx context.Context, field, value string) (bool, error)
	CreatePrincipal(ctx context.Context, principal model.Principal) (model.Principal, error)
	CreateDoctor(ctx context.Context, principal model.Principal, profile model.DoctorProfile) (model.Principal, model.DoctorProfile, error)
}

type Service struct {
	store  Store
	tokens *auth.TokenService
}

func NewService(store Store, tokens *auth.TokenService) *Service {
	return &Service{store: store, tokens: tokens}
}

type Token struct {
	AccessToken string
	TokenType   string
	Kind        model.Kind
	ExpiresIn   time.Duration
}

var ErrInvalidCredentials = &apperr.Error{
	Kind:    apperr.KindUnauthorized,
	Code:    "invalid_credentials",
	Message: "incorrect username or password",
}

func (s *Service) Login(ctx context.Context, kind model.Kind, username, password string) (Token, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Token{}, apperr.Validation("missing_credentials", "username and password are required")
	}
	principal, err := s.store.FindPrincipalByLoginKey(ctx, kind, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			burnPasswordCheck(password)
			metrics.Logins.WithLabelValues(string(kind), "rejected").Inc()
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, apperr.Internal(err)
	}
	if !crypto.CheckPassword(principal.PasswordHash, password) {
		metrics.Logins.WithLabelValues(string(kind), "rejected").Inc()
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(principal)
}

// UnifiedLogin resolves the username against every principal kind in loginOrder.
func (s *Service) UnifiedLogin(ctx context.Context, username, password string) (Token, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Token{}, apperr.Validation("missing_credentials", "username and password are required")
	}
	checked := false
	for _, kind := range loginOrder {
		principal, err := s.store.FindPrincipalByLoginKey(ctx, kind, username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return Token{}, apperr.Internal(err)
		}
		checked = true
		if crypto.CheckPassword(principal.PasswordHash, password) {
			return s.issue(principal)
		}
	}
	if !checked {
		burnPasswordCheck(password)
	}
	metrics.Logins.WithLabelValues("unified", "rejected").Inc()
	return Token{}, ErrInvalidCredentials
}

func (s *Service) issue(principal model.Principal) (Token, error) {
	token, err := s.tokens.Issue(principal.ID, principal.Kind)
	if err != nil {
		return Token{}, apperr.Internal(err)
	}
	metrics.Logins.WithLabelValues(string(principal.Kind), "accepted").Inc()
	return Token{
		AccessToken: token,
		TokenType:   "bearer",
		Kind:        principal.Kind,
		ExpiresIn:   s.tokens.TTL(),
	}, nil
}

// Login keys: a phone must be E.164 and an email must contain an address, so the
// two columns never hold the same value.
type PatientRegistration struct {
	FullName          string `json:"full_name"`
	Phone             string `json:"phone" validate:"required_without=Email,omitempty,e164"`
	Email             string `json:"email" validate:"omitempty,email"`
	Password          string `json:"password" validate:"min=6"`
	DateOfBirth       string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender            string `json:"gender"`
	PreferredLanguage string `json:"preferred_language"`
}

type DoctorRegistration struct {
	FullName        string   `json:"full_name"`
	Phone           string   `json:"phone" validate:"required_without=Email,omitempty,e164"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"min=6"`
	LicenseNumber   string   `json:"license_number" validate:"required"`
	Specialization  string   `json:"specialization"`
	Qualification   string   `json:"qualification"`
	YearsExperience *int     `json:"years_experience" validate:"omitempty,min=0"`
	ConsultationFee *float64 `json:"consultation_fee" validate:"omitempty,min=0"`
	Available       *bool    `json:"available"`
	Languages       []string `json:"languages"`
}

func (s *Service) RegisterPatient(ctx context.Context, in PatientRegistration) (model.Principal, error) {
	in.Phone = repository.NormalizePhone(in.Phone)
	in.Email = repository.NormalizeEmail(in.Email)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	if err := validation.Struct(in); err != nil {
		return model.Principal{}, err
	}
	principal := newPrincipal(model.KindPatient, in.FullName, in.Phone, in.Email)
	if in.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			return model.Principal{}, apperr.InvalidField("date_of_birth", "date_of_birth must be YYYY-MM-DD")
		}
		principal.DateOfBirth = &dob
	}
	principal.Gender = strings.TrimSpace(in.Gender)
	principal.PreferredLanguage = languageOrDefault(in.PreferredLanguage)

	if err := s.ensureAvailable(ctx, principal, ""); err != nil {
		return model.Principal{}, s.registrationFailed(model.KindPatient, err)
	}
	var err error
	if principal.PasswordHash, err = crypto.HashPassword(in.Password); err != nil {
		return model.Principal{}, apperr.Internal(err)
	}
	created, err := s.store.CreatePrincipal(ctx, principal)
	if err != nil {
		return model.Principal{}, s.registrationFailed(model.KindPatient, storeError(err))
	}
	metrics.Registrations.WithLabelValues(string(model.KindPatient), "created").Inc()
	return created, nil
}

func (s *Service) RegisterDoctor(ctx context.Context, in DoctorRegistration) (model.Principal, model.DoctorProfile, error) {
	in.Phone = repository.NormalizePhone(in.Phone)
	in.Email = repository.NormalizeEmail(in.Email)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	if err := validation.Struct(in); err != nil {
		return model.Principal{}, model.DoctorProfile{}, err
	}
	license := in.LicenseNumber
	principal := newPrincipal(model.KindDoctor, in.FullName, in.Phone, in.Email)
	principal.PreferredLanguage = "en"

	profile := model.DoctorProfile{
		LicenseNumber:   license,
		Name:            model.LocalizedText{En: principal.FullName},
		Specialization:  model.LocalizedText{En: strings.TrimSpace(in.Specialization)},
		Qualification:   model.LocalizedText{En: strings.TrimSpace(in.Qualification)},
		YearsExperience: in.YearsExperience,
		Available:       true,
		Languages:       in.Languages,
	}
	if in.YearsExperience != nil {
		profile.Experience = model.LocalizedText{En: yearsLabel(*in.YearsExperience)}
	}
	if in.ConsultationFee != nil {
		profile.Fee = int(*in.ConsultationFee)
	}
	if in.Available != nil {
		profile.Available = *in.Available
	}

	if err := s.ensureAvailable(ctx, principal, license); err != nil {
		return model.Principal{}, model.DoctorProfile{}, s.registrationFailed(model.KindDoctor, err)
	}
	var err error
	if principal.PasswordHash, err = crypto.HashPassword(in.Password); err != nil {
		return model.Principal{}, model.DoctorProfile{}, apperr.Internal(err)
	}
	created, profile, err := s.store.CreateDoctor(ctx, principal, profile)
	if err != nil {
		return model.Principal{}, model.DoctorProfile{}, s.registrationFailed(model.KindDoctor, storeError(err))
	}
	metrics.Registrations.WithLabelValues(string(model.KindDoctor), "created").Inc()
	return created, profile, nil
}

type SignupProfile struct {
	Qualification  string
	Specialization string
	Experience     string
	Bio            string
	Fees           *int
	Languages      []string
}

type Signup struct {
	Email         string         `json:"email" validate:"required,email"`
	Password      string         `json:"password" validate:"min=6"`
	FullName      string         `json:"full_name"`
	Role          string         `json:"role" validate:"omitempty,oneof=patient doctor"`
	DoctorProfile *SignupProfile `json:"doctor_profile"`
}

// Signup is the email based registration. Choosing the doctor role creates the
// doctor profile together with the principal.
func (s *Service) Signup(ctx context.Context, in Signup) (model.Principal, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	in.Role = strings.TrimSpace(strings.ToLower(in.Role))
	if err := validation.Struct(in); err != nil {
		return model.Principal{}, err
	}
	kind := model.KindPatient
	if in.Role != "" {
		kind = model.Kind(in.Role)
	}
	principal := newPrincipal(kind, in.FullName, "", in.Email)
	principal.PreferredLanguage = "en"

	if err := s.ensureAvailable(ctx, principal, ""); err != nil {
		return model.Principal{}, s.registrationFailed(kind, err)
	}
	var err error
	if principal.PasswordHash, err = crypto.HashPassword(in.Password); err != nil {
		return model.Principal{}, apperr.Internal(err)
	}

	var created model.Principal
	if kind == model.KindDoctor {
		created, _, err = s.store.CreateDoctor(ctx, principal, signupProfile(principal.FullName, in.DoctorProfile))
	} else {
		created, err = s.store.CreatePrincipal(ctx, principal)
	}
	if err != nil {
		return model.Principal{}, s.registrationFailed(kind, storeError(err))
	}
	metrics.Registrations.WithLabelValues(string(kind), "created").Inc()
	return created, nil
}

func signupProfile(fullName string, in *SignupProfile) model.DoctorProfile {
	if in == nil {
		in = &SignupProfile{}
	}
	profile := model.DoctorProfile{
		Name:           model.LocalizedText{En: fullName},
		Qualification:  model.LocalizedText{En: orDefault(in.Qualification, "MBBS")},
		Specialization: model.LocalizedText{En: orDefault(in.Specialization, "General Physician")},
		Experience:     model.LocalizedText{En: orDefault(in.Experience, "0 years")},
		Bio:            model.LocalizedText{En: in.Bio},
		Image:          "👨‍⚕️",
		Available:      true,
		Fee:            500,
		Languages:      in.Languages,
	}
	if in.Fees != nil && *in.Fees >= 0 {
		profile.Fee = *in.Fees
	}
	if len(profile.Languages) == 0 {
		profile.Languages = []string{"English"}
	}
	return profile
}

func newPrincipal(kind model.Kind, fullName, phone, email string) model.Principal {
	principal := model.Principal{Kind: kind, FullName: strings.TrimSpace(fullName)}
	if phone != "" {
		principal.Phone = &phone
	}
	if email != "" {
		principal.Email = &email
	}
	return principal
}

// ensureAvailable reports the first taken field so callers learn which value to change.
// Phone and email are checked against every login key, not only their own column.
// The store's unique constraints still decide races between concurrent registrations.
func (s *Service) ensureAvailable(ctx context.Context, principal model.Principal, license string) error {
	checks := []struct {
		field string
		value *string
	}{
		{repository.FieldPhone, principal.Phone},
		{repository.FieldEmail, principal.Email},
		{repository.FieldLicenseNumber, &license},
	}
	for _, check := range checks {
		if check.value == nil || *check.value == "" {
			continue
		}
		taken, err := s.store.Taken(ctx, check.field, *check.value)
		if err != nil {
			return apperr.Internal(err)
		}
		if taken {
			return conflict(check.field)
		}
	}
	return nil
}

func (s *Service) registrationFailed(kind model.Kind, err error) error {
	outcome := "failed"
	if apperr.KindOf(err) == apperr.KindConflict {
		outcome = "conflict"
	}
	metrics.Registrations.WithLabelValues(string(kind), outcome).Inc()
	return err
}

func storeError(err error) error {
	if field, ok := repository.ConflictField(err); ok {
		return conflict(field)
	}
	return apperr.Internal(err)
}

func conflict(field string) error {
	label := strings.ReplaceAll(field, "_", " ")
	return apperr.Conflict(field, label+" already registered")
}

func languageOrDefault(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if lang == "" {
		return "en"
	}
	return lang
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func yearsLabel(years int) string {
	if years == 1 {
		return "1 year"
	}
	return strconv.Itoa(years) + " years"
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends one bcrypt verification when no principal matched the username.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = crypto.HashPassword("telemedicine-unknown-principal")
	})
	crypto.CheckPassword(dummyHash, password)
}
