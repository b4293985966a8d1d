package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrSlotTaken = errors.New("slot already booked")
)

// Unique fields reported by ConflictError.
const (
	FieldPhone         = "phone"
	FieldEmail         = "email"
	FieldLicenseNumber = "license_number"
	FieldHandle        = "handle"
	FieldProductID     = "product_id"
	FieldSlotID        = "slot_id"
)

// ConflictError is returned when a write violates a unique constraint.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

func ConflictField(err error) (string, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Field, true
	}
	return "", false
}

type Page struct {
	Offset int
	Limit  int
}

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

type DoctorFilter struct {
	AvailableOnly  bool
	Specialization string
	Page           Page
}

type DoctorSlots struct {
	Doctor    model.DoctorProfile
	OpenSlots int
}

type AppointmentFilter struct {
	DoctorID  *int64
	PatientID *int64
	OpenOnly  bool
	Page      Page
}

type AppointmentPatch struct {
	Status *model.AppointmentStatus
	Notes  *string
}

// Store is the record store contract shared by the Postgres and in-memory backends.
type Store interface {
	FindPrincipalByLoginKey(ctx context.Context, kind model.Kind, key string) (model.Principal, error)
	FindPrincipal(ctx context.Context, id int64, kind model.Kind) (model.Principal, error)
	Taken(ctx context.Context, field, value string) (bool, error)
	CreatePrincipal(ctx context.Context, principal model.Principal) (model.Principal, error)
	CreateDoctor(ctx context.Context, principal model.Principal, profile model.DoctorProfile) (model.Principal, model.DoctorProfile, error)

	GetDoctorProfile(ctx context.Context, id int64) (model.DoctorProfile, error)
	GetDoctorProfileByPrincipal(ctx context.Context, principalID int64) (model.DoctorProfile, error)
	ListDoctors(ctx context.Context, filter DoctorFilter) ([]model.DoctorProfile, error)
	ListDoctorsWithOpenSlots(ctx context.Context, limit int) ([]DoctorSlots, error)

	CreateAppointment(ctx context.Context, appointment model.Appointment) (model.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (model.Appointment, error)
	FindSlot(ctx context.Context, doctorID int64, date, time string) (model.Appointment, error)
	BookSlot(ctx context.Context, id, patientID int64, symptoms *string) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, patch AppointmentPatch) (model.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error)

	CreateHealthRecord(ctx context.Context, record model.HealthRecord) (model.HealthRecord, error)
	GetHealthRecord(ctx context.Context, id int64) (model.HealthRecord, error)
	ListHealthRecords(ctx context.Context, patientID *int64, page Page) ([]model.HealthRecord, error)

	ListProducts(ctx context.Context, page Page) ([]model.Product, error)
	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	ListRemedies(ctx context.Context, page Page) ([]model.Remedy, error)

	Ping(ctx context.Context) error
}

// NormalizeEmail is applied on every write and lookup so email keys compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

func DoctorHandle(principalID int64) string {
	return "dr_" + strconv.FormatInt(principalID, 10)
}
