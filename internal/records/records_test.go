package records

import (
	"context"
	"testing"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

func TestHealthRecordAccess(t *testing.T) {
	store := repository.NewMemory()
	svc := NewService(store)
	ctx := context.Background()
	phone := func(v string) *string { return &v }
	owner := store.Put(model.Principal{Kind: model.KindPatient, Phone: phone("+1")})
	stranger := store.Put(model.Principal{Kind: model.KindPatient, Phone: phone("+2")})
	doctor := store.Put(model.Principal{Kind: model.KindDoctor, Phone: phone("+3")})

	record, err := svc.Create(ctx, owner, CreateRequest{RecordType: "lab", Title: "CBC", Description: "  "})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if record.PatientID != owner.ID || record.Description != nil {
		t.Fatalf("unexpected record: %+v", record)
	}
	if _, err := svc.Create(ctx, stranger, CreateRequest{RecordType: "lab", Title: "Lipids"}); err != nil {
		t.Fatalf("create error: %v", err)
	}

	if _, err := svc.Get(ctx, owner, record.ID); err != nil {
		t.Fatalf("owner read error: %v", err)
	}
	if _, err := svc.Get(ctx, doctor, record.ID); err != nil {
		t.Fatalf("doctor read error: %v", err)
	}
	if _, err := svc.Get(ctx, stranger, record.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected stranger to be forbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, owner, 404); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	own, _ := svc.List(ctx, owner, repository.Page{})
	if len(own) != 1 {
		t.Fatalf("expected patient to list 1 record, got %d", len(own))
	}
	all, _ := svc.List(ctx, doctor, repository.Page{})
	if len(all) != 2 {
		t.Fatalf("expected doctor to list all records, got %d", len(all))
	}
}

func TestHealthRecordValidation(t *testing.T) {
	svc := NewService(repository.NewMemory())
	_, err := svc.Create(context.Background(), model.Principal{ID: 1, Kind: model.KindPatient}, CreateRequest{Title: "x"})
	if apperr.From(err).Field != "record_type" {
		t.Fatalf("expected record_type validation, got %v", err)
	}
}
