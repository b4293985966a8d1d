package catalog

import (
	"context"
	"testing"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
)

func TestCreateProductRequiresPrivilegedRole(t *testing.T) {
	svc := NewService(repository.NewMemory())
	ctx := context.Background()
	product := model.Product{ProductID: "p-1", Name: "Paracetamol", Price: 20}

	if _, err := svc.CreateProduct(ctx, model.Principal{ID: 1, Kind: model.KindPatient}, product); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected patient to be forbidden, got %v", err)
	}
	created, err := svc.CreateProduct(ctx, model.Principal{ID: 2, Kind: model.KindAdmin}, product)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if created.ID == 0 || created.Uses == nil {
		t.Fatalf("unexpected product: %+v", created)
	}
	_, err = svc.CreateProduct(ctx, model.Principal{ID: 3, Kind: model.KindDoctor}, product)
	if appErr := apperr.From(err); appErr.Kind != apperr.KindConflict || appErr.Field != "product_id" {
		t.Fatalf("expected product_id conflict, got %v", err)
	}
	_, err = svc.CreateProduct(ctx, model.Principal{ID: 3, Kind: model.KindDoctor}, model.Product{ProductID: "p-2", Name: "x", Price: -1})
	if apperr.From(err).Field != "price" {
		t.Fatalf("expected price validation, got %v", err)
	}

	products, _ := svc.Products(ctx, repository.Page{})
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
}

func TestDoctorProfileOf(t *testing.T) {
	store := repository.NewMemory()
	svc := NewService(store)
	ctx := context.Background()
	store.PutDoctorProfile(model.DoctorProfile{PrincipalID: 7, Name: model.LocalizedText{En: "Dr. Gill"}})

	profile, err := svc.DoctorProfileOf(ctx, model.Principal{ID: 7, Kind: model.KindDoctor})
	if err != nil || profile.Name.En != "Dr. Gill" {
		t.Fatalf("expected profile, got %+v %v", profile, err)
	}
	if _, err := svc.DoctorProfileOf(ctx, model.Principal{ID: 8, Kind: model.KindDoctor}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.DoctorProfileOf(ctx, model.Principal{ID: 7, Kind: model.KindPatient}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRemedies(t *testing.T) {
	store := repository.NewMemory()
	store.PutRemedy(model.Remedy{RemedyID: "r-1", Title: "Ginger tea", Symptoms: []string{"cough"}})
	store.PutRemedy(model.Remedy{RemedyID: "r-2", Title: "Steam", Symptoms: []string{"cold"}})

	remedies, err := NewService(store).Remedies(context.Background(), repository.Page{Offset: 1})
	if err != nil || len(remedies) != 1 || remedies[0].RemedyID != "r-2" {
		t.Fatalf("expected second remedy, got %+v %v", remedies, err)
	}
}
