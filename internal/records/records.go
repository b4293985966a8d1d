package records

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
	CreateHealthRecord(ctx context.Context, record model.HealthRecord) (model.HealthRecord, error)
	GetHealthRecord(ctx context.Context, id int64) (model.HealthRecord, error)
	ListHealthRecords(ctx context.Context, patientID *int64, page repository.Page) ([]model.HealthRecord, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreateRequest struct {
	RecordType  string `json:"record_type" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	FileURL     string `json:"file_url"`
}

// Create files a record under the calling principal.
func (s *Service) Create(ctx context.Context, owner model.Principal, req CreateRequest) (model.HealthRecord, error) {
	req.RecordType = strings.TrimSpace(req.RecordType)
	req.Title = strings.TrimSpace(req.Title)
	req.FileURL = strings.TrimSpace(req.FileURL)
	if err := validation.Struct(req); err != nil {
		return model.HealthRecord{}, err
	}
	record := model.HealthRecord{
		PatientID:  owner.ID,
		RecordType: req.RecordType,
		Title:      req.Title,
	}
	if v := strings.TrimSpace(req.Description); v != "" {
		record.Description = &v
	}
	if req.FileURL != "" {
		record.FileURL = &req.FileURL
	}
	created, err := s.store.CreateHealthRecord(ctx, record)
	if err != nil {
		return model.HealthRecord{}, apperr.Internal(err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, principal model.Principal, id int64) (model.HealthRecord, error) {
	record, err := s.store.GetHealthRecord(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.HealthRecord{}, apperr.NotFound("health_record_not_found", "health record not found")
		}
		return model.HealthRecord{}, apperr.Internal(err)
	}
	if err := auth.Check(principal, auth.OwnerOrPrivileged(record.PatientID)); err != nil {
		return model.HealthRecord{}, err
	}
	return record, nil
}

// List returns every record to privileged principals and only their own to patients.
func (s *Service) List(ctx context.Context, principal model.Principal, page repository.Page) ([]model.HealthRecord, error) {
	var patientID *int64
	if !principal.Kind.Privileged() {
		id := principal.ID
		patientID = &id
	}
	records, err := s.store.ListHealthRecords(ctx, patientID, page)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return records, nil
}
