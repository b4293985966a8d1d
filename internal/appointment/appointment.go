package appointment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/auth"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/validation"
)

type Store interface {
	GetDoctorProfile(ctx context.Context, id int64) (model.DoctorProfile, error)
	GetDoctorProfileByPrincipal(ctx context.Context, principalID int64) (model.DoctorProfile, error)
	CreateAppointment(ctx context.Context, appointment model.Appointment) (model.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (model.Appointment, error)
	FindSlot(ctx context.Context, doctorID int64, date, time string) (model.Appointment, error)
	BookSlot(ctx context.Context, id, patientID int64, symptoms *string) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, patch repository.AppointmentPatch) (model.Appointment, error)
	ListAppointments(ctx context.Context, filter repository.AppointmentFilter) ([]model.Appointment, error)
}

type Service struct {
	store     Store
	newSlotID func() string
}

func NewService(store Store) *Service {
	return &Service{store: store, newSlotID: uuid.NewString}
}

var (
	errSlotUnavailable = &apperr.Error{
		Kind:    apperr.KindConflict,
		Code:    "slot_unavailable",
		Field:   "time",
		Message: "the requested slot is already booked",
	}
	errDoctorNotFound  = apperr.NotFound("doctor_not_found", "doctor not found")
	errProfileNotFound = apperr.NotFound("doctor_profile_not_found", "doctor profile not found")
)

type BookingRequest struct {
	DoctorID int64  `json:"doctor_id" validate:"required,gt=0"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
	Symptoms string `json:"symptoms"`
}

// Book claims the doctor's open slot at the requested date and time when one exists,
// and otherwise records a new pending booking for that time.
func (s *Service) Book(ctx context.Context, patient model.Principal, req BookingRequest) (model.Appointment, error) {
	if err := auth.Check(patient, auth.RoleIs(model.KindPatient)); err != nil {
		return model.Appointment{}, err
	}
	req.Date, req.Time = strings.TrimSpace(req.Date), strings.TrimSpace(req.Time)
	if err := validation.Struct(req); err != nil {
		return model.Appointment{}, err
	}
	if _, err := s.store.GetDoctorProfile(ctx, req.DoctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Appointment{}, errDoctorNotFound
		}
		return model.Appointment{}, apperr.Internal(err)
	}
	symptoms := optional(req.Symptoms)

	slot, err := s.store.FindSlot(ctx, req.DoctorID, req.Date, req.Time)
	switch {
	case err == nil && slot.Booked():
		return model.Appointment{}, errSlotUnavailable
	case err == nil:
		booked, err := s.store.BookSlot(ctx, slot.ID, patient.ID, symptoms)
		return booked, bookingError(err)
	case !errors.Is(err, repository.ErrNotFound):
		return model.Appointment{}, apperr.Internal(err)
	}

	patientID := patient.ID
	created, err := s.store.CreateAppointment(ctx, model.Appointment{
		SlotID:    s.newSlotID(),
		DoctorID:  req.DoctorID,
		PatientID: &patientID,
		Date:      req.Date,
		Time:      req.Time,
		Available: false,
		Status:    model.StatusPending,
		Symptoms:  symptoms,
	})
	return created, bookingError(err)
}

type SlotRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

// PublishSlot opens a bookable slot on the calling doctor's own profile.
func (s *Service) PublishSlot(ctx context.Context, doctor model.Principal, req SlotRequest) (model.Appointment, error) {
	if err := auth.Check(doctor, auth.RoleIs(model.KindDoctor)); err != nil {
		return model.Appointment{}, err
	}
	req.Date, req.Time = strings.TrimSpace(req.Date), strings.TrimSpace(req.Time)
	if err := validation.Struct(req); err != nil {
		return model.Appointment{}, err
	}
	profile, err := s.profileOf(ctx, doctor)
	if err != nil {
		return model.Appointment{}, err
	}
	created, err := s.store.CreateAppointment(ctx, model.Appointment{
		SlotID:    s.newSlotID(),
		DoctorID:  profile.ID,
		Date:      req.Date,
		Time:      req.Time,
		Available: true,
		Status:    model.StatusPending,
	})
	return created, bookingError(err)
}

type UpdateRequest struct {
	Status *string
	Notes  *string
}

// Update changes status or notes. Privileged principals may change anything;
// the booking patient may only cancel.
func (s *Service) Update(ctx context.Context, principal model.Principal, id int64, req UpdateRequest) (model.Appointment, error) {
	if req.Status == nil && req.Notes == nil {
		return model.Appointment{}, apperr.Validation("empty_update", "status or notes is required")
	}
	var patch repository.AppointmentPatch
	if req.Status != nil {
		status, ok := model.ParseStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !ok {
			return model.Appointment{}, apperr.InvalidField("status", "status must be one of pending, confirmed, completed, cancelled")
		}
		patch.Status = &status
	}
	patch.Notes = req.Notes

	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Appointment{}, apperr.NotFound("appointment_not_found", "appointment not found")
		}
		return model.Appointment{}, apperr.Internal(err)
	}

	var ownerID int64
	if appointment.PatientID != nil {
		ownerID = *appointment.PatientID
	}
	if err := auth.Check(principal, auth.OwnerOrPrivileged(ownerID)); err != nil {
		return model.Appointment{}, err
	}
	if !principal.Kind.Privileged() && (patch.Status == nil || *patch.Status != model.StatusCancelled || patch.Notes != nil) {
		return model.Appointment{}, apperr.Forbidden("cancel_only", "patients may only cancel their appointments")
	}

	updated, err := s.store.UpdateAppointment(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.Appointment{}, apperr.NotFound("appointment_not_found", "appointment not found")
		case errors.Is(err, repository.ErrSlotTaken):
			return model.Appointment{}, errSlotUnavailable
		}
		return model.Appointment{}, apperr.Internal(err)
	}
	return updated, nil
}

// List returns the appointments visible to the principal: a doctor sees their profile's
// schedule, an admin sees everything and a patient sees their own bookings.
func (s *Service) List(ctx context.Context, principal model.Principal, page repository.Page) ([]model.Appointment, error) {
	filter := repository.AppointmentFilter{Page: page}
	switch principal.Kind {
	case model.KindDoctor:
		profile, err := s.profileOf(ctx, principal)
		if err != nil {
			return nil, err
		}
		filter.DoctorID = &profile.ID
	case model.KindAdmin:
	default:
		patientID := principal.ID
		filter.PatientID = &patientID
	}
	appointments, err := s.store.ListAppointments(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return appointments, nil
}

func (s *Service) OpenSlots(ctx context.Context, doctorID int64, page repository.Page) ([]model.Appointment, error) {
	if _, err := s.store.GetDoctorProfile(ctx, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errDoctorNotFound
		}
		return nil, apperr.Internal(err)
	}
	slots, err := s.store.ListAppointments(ctx, repository.AppointmentFilter{DoctorID: &doctorID, OpenOnly: true, Page: page})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return slots, nil
}

func (s *Service) profileOf(ctx context.Context, doctor model.Principal) (model.DoctorProfile, error) {
	profile, err := s.store.GetDoctorProfileByPrincipal(ctx, doctor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.DoctorProfile{}, errProfileNotFound
		}
		return model.DoctorProfile{}, apperr.Internal(err)
	}
	return profile, nil
}

func bookingError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSlotTaken):
		return errSlotUnavailable
	case errors.Is(err, repository.ErrNotFound):
		return errDoctorNotFound
	default:
		if field, ok := repository.ConflictField(err); ok {
			return apperr.Conflict(field, field+" already exists")
		}
		return apperr.Internal(err)
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
