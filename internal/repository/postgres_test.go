package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/db"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

func newPostgresStore(t *testing.T) *Postgres {
	t.Helper()
	dbURL := os.Getenv("TELEMEDICINE_TEST_DB")
	if dbURL == "" {
		t.Skip("TELEMEDICINE_TEST_DB not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("db connection failed: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewPostgres(pool)
}

func testPhone() string {
	return fmt.Sprintf("+91%010d", uuid.New().ID())
}

func TestPostgresPrincipalConflicts(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	phone := testPhone()

	created, err := store.CreatePrincipal(ctx, model.Principal{Kind: model.KindPatient, Phone: &phone, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	_, err = store.CreatePrincipal(ctx, model.Principal{Kind: model.KindDoctor, Phone: &phone, PasswordHash: "x"})
	if field, ok := ConflictField(err); !ok || field != FieldPhone {
		t.Fatalf("expected phone conflict, got %v", err)
	}

	found, err := store.FindPrincipalByLoginKey(ctx, model.KindPatient, phone)
	if err != nil || found.ID != created.ID {
		t.Fatalf("expected lookup to find principal, got %+v %v", found, err)
	}
	if _, err := store.FindPrincipal(ctx, created.ID, model.KindAdmin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresDoctorSlotBooking(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	phone := testPhone()
	license := "LIC-" + uuid.NewString()

	_, profile, err := store.CreateDoctor(ctx,
		model.Principal{Kind: model.KindDoctor, Phone: &phone, PasswordHash: "x"},
		model.DoctorProfile{LicenseNumber: license, Name: model.LocalizedText{En: "Dr. Kaur"}, Available: true},
	)
	if err != nil {
		t.Fatalf("create doctor error: %v", err)
	}
	got, err := store.GetDoctorProfile(ctx, profile.ID)
	if err != nil || got.Name.En != "Dr. Kaur" {
		t.Fatalf("expected profile round trip, got %+v %v", got, err)
	}

	patientPhone := testPhone()
	patient, err := store.CreatePrincipal(ctx, model.Principal{Kind: model.KindPatient, Phone: &patientPhone, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create patient error: %v", err)
	}

	slot, err := store.CreateAppointment(ctx, model.Appointment{
		SlotID: uuid.NewString(), DoctorID: profile.ID, Date: "2025-12-24", Time: "11:00", Available: true, Status: model.StatusPending,
	})
	if err != nil {
		t.Fatalf("create slot error: %v", err)
	}
	booked, err := store.BookSlot(ctx, slot.ID, patient.ID, nil)
	if err != nil {
		t.Fatalf("book error: %v", err)
	}
	if booked.Available || booked.PatientID == nil || *booked.PatientID != patient.ID {
		t.Fatalf("unexpected booking: %+v", booked)
	}
	if _, err := store.BookSlot(ctx, slot.ID, patient.ID, nil); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if _, err := store.CreateAppointment(ctx, model.Appointment{
		SlotID: uuid.NewString(), DoctorID: profile.ID, Date: "2025-12-24", Time: "11:00", Available: true, Status: model.StatusPending,
	}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected duplicate time to be rejected, got %v", err)
	}

	cancelled, confirmed := model.StatusCancelled, model.StatusConfirmed
	if _, err := store.UpdateAppointment(ctx, booked.ID, AppointmentPatch{Status: &cancelled}); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if _, err := store.CreateAppointment(ctx, model.Appointment{
		SlotID: uuid.NewString(), DoctorID: profile.ID, PatientID: &patient.ID, Date: "2025-12-24", Time: "11:00", Status: model.StatusPending,
	}); err != nil {
		t.Fatalf("rebook error: %v", err)
	}
	if _, err := store.UpdateAppointment(ctx, booked.ID, AppointmentPatch{Status: &confirmed}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected reviving the cancelled booking to be rejected, got %v", err)
	}
}

func TestPostgresLoginKeysAcrossColumns(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	email := uuid.NewString()[:8] + "@example.com"

	if _, err := store.CreatePrincipal(ctx, model.Principal{Kind: model.KindPatient, Email: &email, PasswordHash: "x"}); err != nil {
		t.Fatalf("create error: %v", err)
	}
	taken, err := store.Taken(ctx, FieldPhone, email)
	if err != nil || !taken {
		t.Fatalf("expected an email to count as a taken phone key, got %v %v", taken, err)
	}
	_, err = store.CreatePrincipal(ctx, model.Principal{Kind: model.KindPatient, Phone: &email, PasswordHash: "x"})
	if err == nil {
		t.Fatalf("expected a non E.164 phone to be refused by the schema")
	}
}
