package model

import (
	"strings"
	"time"
)

type Kind string

const (
	KindPatient Kind = "patient"
	KindDoctor  Kind = "doctor"
	KindAdmin   Kind = "admin"
)

func ParseKind(value string) (Kind, bool) {
	switch Kind(value) {
	case KindPatient, KindDoctor, KindAdmin:
		return Kind(value), true
	case "user":
		// Tokens minted by the legacy phone-login flow used "user" for patients.
		return KindPatient, true
	default:
		return "", false
	}
}

// Privileged kinds may read and modify resources owned by other principals.
func (k Kind) Privileged() bool {
	return k == KindDoctor || k == KindAdmin
}

type Principal struct {
	ID                int64
	Kind              Kind
	Phone             *string
	Email             *string
	PasswordHash      string
	FullName          string
	DateOfBirth       *time.Time
	Gender            string
	PreferredLanguage string
	CreatedAt         time.Time
}

// LocalizedText holds the closed set of UI languages the product ships.
type LocalizedText struct {
	En string `json:"en"`
	Hi string `json:"hi"`
	Pa string `json:"pa"`
}

func (t LocalizedText) Contains(needle string) bool {
	return containsFold(t.En, needle) || containsFold(t.Hi, needle) || containsFold(t.Pa, needle)
}

type DoctorProfile struct {
	ID               int64
	PrincipalID      int64
	Handle           string
	LicenseNumber    string
	Name             LocalizedText
	Qualification    LocalizedText
	Specialization   LocalizedText
	Experience       LocalizedText
	Bio              LocalizedText
	YearsExperience  *int
	Fee              int
	Available        bool
	AvailabilityNote LocalizedText
	Languages        []string
	Rating           float64
	Reviews          int
	Image            string
}

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func ParseStatus(value string) (AppointmentStatus, bool) {
	switch AppointmentStatus(value) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return AppointmentStatus(value), true
	default:
		return "", false
	}
}

// Appointment is both a bookable slot (PatientID nil, Available true) and a booking.
type Appointment struct {
	ID        int64
	SlotID    string
	DoctorID  int64
	PatientID *int64
	Date      string
	Time      string
	Available bool
	Status    AppointmentStatus
	Symptoms  *string
	Notes     *string
	CreatedAt time.Time
}

func (a Appointment) Booked() bool {
	return a.PatientID != nil
}

type HealthRecord struct {
	ID          int64
	PatientID   int64
	RecordType  string
	Title       string
	Description *string
	FileURL     *string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type Product struct {
	ID                   int64    `json:"id"`
	ProductID            string   `json:"product_id" validate:"required"`
	Name                 string   `json:"name" validate:"required"`
	GenericName          string   `json:"generic_name"`
	Brand                string   `json:"brand"`
	Category             string   `json:"category"`
	Price                float64  `json:"price" validate:"min=0"`
	OriginalPrice        float64  `json:"original_price" validate:"min=0"`
	Image                string   `json:"image"`
	Description          string   `json:"description"`
	PrescriptionRequired bool     `json:"prescription_required"`
	InStock              bool     `json:"in_stock"`
	PackSize             string   `json:"pack_size"`
	Dosage               string   `json:"dosage"`
	Manufacturer         string   `json:"manufacturer"`
	Uses                 []string `json:"uses"`
	Rating               float64  `json:"rating"`
	Reviews              int      `json:"reviews"`
}

type Remedy struct {
	ID          int64
	RemedyID    string
	Symptoms    []string
	Title       string
	Description string
	Steps       []string
	Warning     string
	AudioText   string
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
