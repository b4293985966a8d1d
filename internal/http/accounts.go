package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/account"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

type patientRegisterRequest struct {
	FullName          string `json:"full_name"`
	Phone             string `json:"phone"`
	PhoneNumber       string `json:"phone_number"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	DateOfBirth       string `json:"date_of_birth"`
	Gender            string `json:"gender"`
	PreferredLanguage string `json:"preferred_language"`
}

func (s *Server) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req patientRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	principal, err := s.accounts.RegisterPatient(r.Context(), account.PatientRegistration{
		FullName:          req.FullName,
		Phone:             firstNonEmpty(req.Phone, req.PhoneNumber),
		Email:             req.Email,
		Password:          req.Password,
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		PreferredLanguage: req.PreferredLanguage,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(principal))
}

type doctorRegisterRequest struct {
	FullName        string   `json:"full_name"`
	Phone           string   `json:"phone"`
	PhoneNumber     string   `json:"phone_number"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	LicenseNumber   string   `json:"license_number"`
	Specialization  string   `json:"specialization"`
	Qualification   string   `json:"qualification"`
	YearsExperience *int     `json:"years_experience"`
	ConsultationFee *float64 `json:"consultation_fee"`
	Available       *bool    `json:"available"`
	Languages       []string `json:"languages"`
}

func (s *Server) handleRegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var req doctorRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	principal, profile, err := s.accounts.RegisterDoctor(r.Context(), account.DoctorRegistration{
		FullName:        req.FullName,
		Phone:           firstNonEmpty(req.Phone, req.PhoneNumber),
		Email:           req.Email,
		Password:        req.Password,
		LicenseNumber:   req.LicenseNumber,
		Specialization:  req.Specialization,
		Qualification:   req.Qualification,
		YearsExperience: req.YearsExperience,
		ConsultationFee: req.ConsultationFee,
		Available:       req.Available,
		Languages:       req.Languages,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doctorMeResponse{userResponse: mapUser(principal), DoctorProfile: mapDoctor(profile)})
}

type signupProfileRequest struct {
	Qualification  string   `json:"qualification"`
	Specialization string   `json:"specialization"`
	Experience     string   `json:"experience"`
	Bio            string   `json:"bio"`
	Fees           *int     `json:"fees"`
	Languages      []string `json:"languages"`
}

type signupRequest struct {
	Email         string                `json:"email"`
	Password      string                `json:"password"`
	FullName      string                `json:"full_name"`
	Role          string                `json:"role"`
	DoctorProfile *signupProfileRequest `json:"doctor_profile"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	in := account.Signup{Email: req.Email, Password: req.Password, FullName: req.FullName, Role: req.Role}
	if p := req.DoctorProfile; p != nil {
		in.DoctorProfile = &account.SignupProfile{
			Qualification:  p.Qualification,
			Specialization: p.Specialization,
			Experience:     p.Experience,
			Bio:            p.Bio,
			Fees:           p.Fees,
			Languages:      p.Languages,
		}
	}
	principal, err := s.accounts.Signup(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(principal))
}

type loginRequest struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// readCredentials accepts both the OAuth2 password form and a JSON body.
func readCredentials(r *http.Request) (string, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return "", "", apperr.Validation("invalid_request", "could not parse login form")
		}
		return r.PostFormValue("username"), r.PostFormValue("password"), nil
	default:
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			return "", "", err
		}
		return firstNonEmpty(req.Username, req.PhoneNumber, req.Email), req.Password, nil
	}
}

func (s *Server) handleLogin(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, err := readCredentials(r)
		if err != nil {
			writeError(w, err)
			return
		}
		token, err := s.accounts.Login(r.Context(), kind, username, password)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mapToken(token))
	}
}

func (s *Server) handleUnifiedLogin(w http.ResponseWriter, r *http.Request) {
	username, password, err := readCredentials(r)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := s.accounts.UnifiedLogin(r.Context(), username, password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapToken(token))
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapUser(principalFromContext(r.Context())))
}

func (s *Server) handleGetDoctorMe(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	profile, err := s.catalog.DoctorProfileOf(r.Context(), principal)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorMeResponse{userResponse: mapUser(principal), DoctorProfile: mapDoctor(profile)})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
