package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/apperr"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/auth"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/model"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/repository"
	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/validation"
)

type Store interface {
	GetDoctorProfileByPrincipal(ctx context.Context, principalID int64) (model.DoctorProfile, error)
	ListDoctors(ctx context.Context, filter repository.DoctorFilter) ([]model.DoctorProfile, error)
	ListDoctorsWithOpenSlots(ctx context.Context, limit int) ([]repository.DoctorSlots, error)
	ListProducts(ctx context.Context, page repository.Page) ([]model.Product, error)
	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	ListRemedies(ctx context.Context, page repository.Page) ([]model.Remedy, error)
}

// Service serves the read-mostly listings: the doctor directory, the shop and the
// remedies catalog.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Doctors(ctx context.Context, filter repository.DoctorFilter) ([]model.DoctorProfile, error) {
	filter.Specialization = strings.TrimSpace(filter.Specialization)
	doctors, err := s.store.ListDoctors(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return doctors, nil
}

func (s *Service) AvailableDoctors(ctx context.Context, limit int) ([]repository.DoctorSlots, error) {
	if limit <= 0 || limit > repository.MaxLimit {
		limit = 10
	}
	doctors, err := s.store.ListDoctorsWithOpenSlots(ctx, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return doctors, nil
}

func (s *Service) DoctorProfileOf(ctx context.Context, doctor model.Principal) (model.DoctorProfile, error) {
	if err := auth.Check(doctor, auth.RoleIs(model.KindDoctor)); err != nil {
		return model.DoctorProfile{}, err
	}
	profile, err := s.store.GetDoctorProfileByPrincipal(ctx, doctor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.DoctorProfile{}, apperr.NotFound("doctor_profile_not_found", "doctor profile not found")
		}
		return model.DoctorProfile{}, apperr.Internal(err)
	}
	return profile, nil
}

func (s *Service) Products(ctx context.Context, page repository.Page) ([]model.Product, error) {
	products, err := s.store.ListProducts(ctx, page)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return products, nil
}

// CreateProduct adds a shop item. Only doctors and admins manage the shop.
func (s *Service) CreateProduct(ctx context.Context, principal model.Principal, product model.Product) (model.Product, error) {
	if err := auth.Check(principal, auth.RoleIs(model.KindDoctor, model.KindAdmin)); err != nil {
		return model.Product{}, err
	}
	product.ProductID = strings.TrimSpace(product.ProductID)
	product.Name = strings.TrimSpace(product.Name)
	if err := validation.Struct(product); err != nil {
		return model.Product{}, err
	}
	created, err := s.store.CreateProduct(ctx, product)
	if err != nil {
		if field, ok := repository.ConflictField(err); ok {
			return model.Product{}, apperr.Conflict(field, "product already exists")
		}
		return model.Product{}, apperr.Internal(err)
	}
	return created, nil
}

func (s *Service) Remedies(ctx context.Context, page repository.Page) ([]model.Remedy, error) {
	remedies, err := s.store.ListRemedies(ctx, page)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return remedies, nil
}
