package appointment

import (
	"context"
	"testing"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

type fixture struct {
	svc     *Service
	store   *repository.Memory
	doctor  model.Principal
	patient model.Principal
	other   model.Principal
	profile model.DoctorProfile
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := repository.NewMemory()
	phone := func(v string) *string { return &v }
	doctor := store.Put(model.Principal{Kind: model.KindDoctor, Phone: phone("+100")})
	patient := store.Put(model.Principal{Kind: model.KindPatient, Phone: phone("+200")})
	other := store.Put(model.Principal{Kind: model.KindPatient, Phone: phone("+300")})
	profile := store.PutDoctorProfile(model.DoctorProfile{ID: 5, PrincipalID: doctor.ID, Available: true})

	svc := NewService(store)
	counter := 0
	svc.newSlotID = func() string {
		counter++
		return "slot-" + string(rune('a'+counter))
	}
	return fixture{svc: svc, store: store, doctor: doctor, patient: patient, other: other, profile: profile}
}

func strPtr(v string) *string { return &v }

func TestBookOpenSlotThenConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot, err := f.svc.PublishSlot(ctx, f.doctor, SlotRequest{Date: "2025-12-24", Time: "11:00"})
	if err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if !slot.Available || slot.DoctorID != f.profile.ID {
		t.Fatalf("unexpected slot: %+v", slot)
	}

	booked, err := f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 5, Date: "2025-12-24", Time: "11:00", Symptoms: "fever"})
	if err != nil {
		t.Fatalf("book error: %v", err)
	}
	if booked.ID != slot.ID || booked.Status != model.StatusPending || booked.Available {
		t.Fatalf("expected slot to be claimed as pending and unavailable, got %+v", booked)
	}

	confirmed, err := f.svc.Update(ctx, f.doctor, booked.ID, UpdateRequest{Status: strPtr("confirmed")})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	_, err = f.svc.Update(ctx, f.other, booked.ID, UpdateRequest{Status: strPtr("cancelled")})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected non-owner to be forbidden, got %v", err)
	}
}

func TestBookTakenSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 5, Date: "2025-12-24", Time: "11:00"}); err != nil {
		t.Fatalf("book error: %v", err)
	}
	_, err := f.svc.Book(ctx, f.other, BookingRequest{DoctorID: 5, Date: "2025-12-24", Time: "11:00"})
	appErr := apperr.From(err)
	if appErr.Code != "slot_unavailable" || appErr.Kind.HTTPStatus() != 400 {
		t.Fatalf("expected slot_unavailable, got %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 5, Date: "24-12-2025", Time: "11:00"})
	if apperr.From(err).Field != "date" {
		t.Fatalf("expected date validation, got %v", err)
	}
	_, err = f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 5, Date: "2025-12-24", Time: "25:00"})
	if apperr.From(err).Field != "time" {
		t.Fatalf("expected time validation, got %v", err)
	}
	_, err = f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 42, Date: "2025-12-24", Time: "11:00"})
	if apperr.From(err).Code != "doctor_not_found" {
		t.Fatalf("expected doctor_not_found, got %v", err)
	}
	_, err = f.svc.Book(ctx, f.doctor, BookingRequest{DoctorID: 5, Date: "2025-12-24", Time: "11:00"})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected doctors to be refused as patients, got %v", err)
	}
}

func TestPatientMayOnlyCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booked, err := f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 5, Date: "2025-12-25", Time: "09:30"})
	if err != nil {
		t.Fatalf("book error: %v", err)
	}
	_, err = f.svc.Update(ctx, f.patient, booked.ID, UpdateRequest{Status: strPtr("confirmed")})
	if apperr.From(err).Code != "cancel_only" {
		t.Fatalf("expected cancel_only, got %v", err)
	}
	cancelled, err := f.svc.Update(ctx, f.patient, booked.ID, UpdateRequest{Status: strPtr("Cancelled")})
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	_, err = f.svc.Update(ctx, f.doctor, booked.ID, UpdateRequest{Status: strPtr("done")})
	if apperr.From(err).Field != "status" {
		t.Fatalf("expected status validation, got %v", err)
	}
	_, err = f.svc.Update(ctx, f.doctor, 999, UpdateRequest{Notes: strPtr("x")})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListIsScopedToPrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.PublishSlot(ctx, f.doctor, SlotRequest{Date: "2025-12-26", Time: "10:00"})
	if _, err := f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 5, Date: "2025-12-26", Time: "11:00"}); err != nil {
		t.Fatalf("book error: %v", err)
	}

	mine, _ := f.svc.List(ctx, f.patient, repository.Page{})
	if len(mine) != 1 {
		t.Fatalf("expected patient to see 1 booking, got %d", len(mine))
	}
	theirs, _ := f.svc.List(ctx, f.other, repository.Page{})
	if len(theirs) != 0 {
		t.Fatalf("expected other patient to see nothing, got %d", len(theirs))
	}
	schedule, _ := f.svc.List(ctx, f.doctor, repository.Page{})
	if len(schedule) != 2 {
		t.Fatalf("expected doctor to see slot and booking, got %d", len(schedule))
	}

	open, err := f.svc.OpenSlots(ctx, 5, repository.Page{})
	if err != nil || len(open) != 1 || open[0].Time != "10:00" {
		t.Fatalf("expected one open slot, got %+v %v", open, err)
	}
}

func TestCancelledBookingCannotRetakeRebookedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Book(ctx, f.patient, BookingRequest{DoctorID: 5, Date: "2025-12-24", Time: "11:00"})
	if err != nil {
		t.Fatalf("book error: %v", err)
	}
	if _, err := f.svc.Update(ctx, f.patient, first.ID, UpdateRequest{Status: strPtr("cancelled")}); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if _, err := f.svc.Book(ctx, f.other, BookingRequest{DoctorID: 5, Date: "2025-12-24", Time: "11:00"}); err != nil {
		t.Fatalf("rebook error: %v", err)
	}

	_, err = f.svc.Update(ctx, f.doctor, first.ID, UpdateRequest{Status: strPtr("confirmed")})
	if apperr.From(err).Code != "slot_unavailable" {
		t.Fatalf("expected slot_unavailable, got %v", err)
	}
	live := 0
	schedule, _ := f.svc.List(ctx, f.doctor, repository.Page{})
	for _, appointment := range schedule {
		if appointment.Status != model.StatusCancelled && appointment.Date == "2025-12-24" && appointment.Time == "11:00" {
			live++
		}
	}
	if live != 1 {
		t.Fatalf("expected exactly one live appointment at the slot, got %d", live)
	}

	if _, err := f.svc.Update(ctx, f.doctor, first.ID, UpdateRequest{Notes: strPtr("follow up")}); err != nil {
		t.Fatalf("notes on a cancelled booking must still update: %v", err)
	}
}
