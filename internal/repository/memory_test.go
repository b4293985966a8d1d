package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
)

func strPtr(v string) *string { return &v }

func TestMemoryPrincipalUniqueness(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	first, err := store.CreatePrincipal(ctx, model.Principal{Kind: model.KindPatient, Phone: strPtr(" +1111 "), Email: strPtr("Asha@Example.com")})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if *first.Phone != "+1111" || *first.Email != "asha@example.com" {
		t.Fatalf("expected normalized login keys, got %q %q", *first.Phone, *first.Email)
	}

	_, err = store.CreatePrincipal(ctx, model.Principal{Kind: model.KindDoctor, Phone: strPtr("+1111")})
	if field, ok := ConflictField(err); !ok || field != FieldPhone {
		t.Fatalf("expected phone conflict across kinds, got %v", err)
	}
	_, err = store.CreatePrincipal(ctx, model.Principal{Kind: model.KindPatient, Phone: strPtr("+2222"), Email: strPtr("ASHA@example.com")})
	if field, ok := ConflictField(err); !ok || field != FieldEmail {
		t.Fatalf("expected email conflict, got %v", err)
	}

	found, err := store.FindPrincipalByLoginKey(ctx, model.KindPatient, "asha@EXAMPLE.com")
	if err != nil || found.ID != first.ID {
		t.Fatalf("expected lookup by email, got %+v %v", found, err)
	}
	if _, err := store.FindPrincipalByLoginKey(ctx, model.KindDoctor, "+1111"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected kind-scoped lookup to miss, got %v", err)
	}
	if _, err := store.FindPrincipal(ctx, first.ID, model.KindDoctor); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected kind mismatch to miss, got %v", err)
	}
}

func TestMemoryCreateDoctorIsAtomic(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, profile, err := store.CreateDoctor(ctx,
		model.Principal{Kind: model.KindDoctor, Phone: strPtr("+3333")},
		model.DoctorProfile{LicenseNumber: "LIC-1"},
	)
	if err != nil {
		t.Fatalf("create doctor error: %v", err)
	}
	if profile.Handle != DoctorHandle(profile.PrincipalID) {
		t.Fatalf("expected generated handle, got %q", profile.Handle)
	}

	_, _, err = store.CreateDoctor(ctx,
		model.Principal{Kind: model.KindDoctor, Phone: strPtr("+4444")},
		model.DoctorProfile{LicenseNumber: "LIC-1"},
	)
	if field, ok := ConflictField(err); !ok || field != FieldLicenseNumber {
		t.Fatalf("expected license conflict, got %v", err)
	}
	taken, err := store.Taken(ctx, FieldPhone, "+4444")
	if err != nil || taken {
		t.Fatalf("failed doctor registration must not leave a principal behind")
	}
}

func TestMemoryBookSlotOnlyOnce(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	doctor := store.PutDoctorProfile(model.DoctorProfile{ID: 5, PrincipalID: 9})
	slot, err := store.CreateAppointment(ctx, model.Appointment{
		SlotID: "slot-1", DoctorID: doctor.ID, Date: "2025-12-24", Time: "11:00", Available: true, Status: model.StatusPending,
	})
	if err != nil {
		t.Fatalf("create slot error: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		refused int
	)
	for i := int64(1); i <= 8; i++ {
		wg.Add(1)
		go func(patientID int64) {
			defer wg.Done()
			_, err := store.BookSlot(ctx, slot.ID, patientID, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, ErrSlotTaken):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if booked != 1 || refused != 7 {
		t.Fatalf("expected exactly one booking, got %d booked %d refused", booked, refused)
	}

	got, _ := store.GetAppointment(ctx, slot.ID)
	if got.Available || got.PatientID == nil {
		t.Fatalf("booked slot must be unavailable with a patient: %+v", got)
	}
}

func TestMemoryAppointmentTimeIsExclusive(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	doctor := store.PutDoctorProfile(model.DoctorProfile{ID: 1, PrincipalID: 2})
	patient := int64(3)

	if _, err := store.CreateAppointment(ctx, model.Appointment{SlotID: "a", DoctorID: doctor.ID, PatientID: &patient, Date: "2025-01-01", Time: "09:00", Available: true, Status: model.StatusPending}); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if _, err := store.CreateAppointment(ctx, model.Appointment{SlotID: "b", DoctorID: doctor.ID, Date: "2025-01-01", Time: "09:00", Available: true}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if _, err := store.CreateAppointment(ctx, model.Appointment{SlotID: "c", DoctorID: 99, Date: "2025-01-01", Time: "10:00"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown doctor to be rejected, got %v", err)
	}

	found, err := store.FindSlot(ctx, doctor.ID, "2025-01-01", "09:00")
	if err != nil {
		t.Fatalf("find slot error: %v", err)
	}
	if found.Available {
		t.Fatalf("booking created with a patient must be unavailable")
	}
}

func TestMemoryListings(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	cardio := store.PutDoctorProfile(model.DoctorProfile{PrincipalID: 1, Available: true, Specialization: model.LocalizedText{En: "Cardiologist"}})
	store.PutDoctorProfile(model.DoctorProfile{PrincipalID: 2, Available: false, Specialization: model.LocalizedText{En: "Dermatologist"}})
	busy := store.PutDoctorProfile(model.DoctorProfile{PrincipalID: 3, Available: true, Specialization: model.LocalizedText{Hi: "हृदय रोग"}})

	doctors, _ := store.ListDoctors(ctx, DoctorFilter{AvailableOnly: true})
	if len(doctors) != 2 {
		t.Fatalf("expected 2 available doctors, got %d", len(doctors))
	}
	doctors, _ = store.ListDoctors(ctx, DoctorFilter{Specialization: "cardio"})
	if len(doctors) != 1 || doctors[0].ID != cardio.ID {
		t.Fatalf("expected specialization match, got %+v", doctors)
	}

	for i, slot := range []string{"09:00", "10:00"} {
		store.CreateAppointment(ctx, model.Appointment{SlotID: "busy-" + slot, DoctorID: busy.ID, Date: "2025-02-01", Time: slot, Available: true})
		if i == 0 {
			store.CreateAppointment(ctx, model.Appointment{SlotID: "cardio-" + slot, DoctorID: cardio.ID, Date: "2025-02-01", Time: slot, Available: true})
		}
	}
	ranked, _ := store.ListDoctorsWithOpenSlots(ctx, 10)
	if len(ranked) != 2 || ranked[0].Doctor.ID != busy.ID || ranked[0].OpenSlots != 2 {
		t.Fatalf("expected busiest doctor first, got %+v", ranked)
	}

	open, _ := store.ListAppointments(ctx, AppointmentFilter{DoctorID: &busy.ID, OpenOnly: true, Page: Page{Limit: 1}})
	if len(open) != 1 || open[0].Time != "09:00" {
		t.Fatalf("expected first open slot, got %+v", open)
	}
}

func TestPageNormalize(t *testing.T) {
	page := Page{Offset: -5, Limit: 0}.Normalize()
	if page.Offset != 0 || page.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults: %+v", page)
	}
	if got := (Page{Limit: 10_000}).Normalize().Limit; got != MaxLimit {
		t.Fatalf("expected limit clamp, got %d", got)
	}
}

func TestMemoryUpdateKeepsLiveSlotExclusive(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	doctor := store.PutDoctorProfile(model.DoctorProfile{ID: 5, PrincipalID: 9})
	first, second := int64(1), int64(2)
	cancelled := model.StatusCancelled
	confirmed := model.StatusConfirmed

	old, err := store.CreateAppointment(ctx, model.Appointment{
		SlotID: "slot-1", DoctorID: doctor.ID, PatientID: &first, Date: "2025-12-24", Time: "11:00", Status: model.StatusPending,
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if _, err := store.UpdateAppointment(ctx, old.ID, AppointmentPatch{Status: &cancelled}); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if _, err := store.CreateAppointment(ctx, model.Appointment{
		SlotID: "slot-2", DoctorID: doctor.ID, PatientID: &second, Date: "2025-12-24", Time: "11:00", Status: model.StatusPending,
	}); err != nil {
		t.Fatalf("rebook error: %v", err)
	}

	if _, err := store.UpdateAppointment(ctx, old.ID, AppointmentPatch{Status: &confirmed}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if got, _ := store.GetAppointment(ctx, old.ID); got.Status != model.StatusCancelled {
		t.Fatalf("rejected update must leave the row cancelled, got %s", got.Status)
	}
}
