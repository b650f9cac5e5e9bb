package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type offeringRepository interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error)
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	Create(ctx context.Context, offering *models.Offering) error
	Update(ctx context.Context, offering *models.Offering) error
	UpdateStatus(ctx context.Context, id string, status models.OfferingStatus) error
}

// CreateOfferingRequest describes offering creation.
type CreateOfferingRequest struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description"`
	Period      int    `json:"period" validate:"required,min=1,max=7"`
	DaysOfWeek  []int  `json:"days_of_week" validate:"required,min=1,dive,min=0,max=6"`
	Capacity    int    `json:"capacity" validate:"required,min=1"`
}

// UpdateOfferingRequest describes offering mutation.
type UpdateOfferingRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3"`
	Description *string `json:"description"`
	Period      *int    `json:"period" validate:"omitempty,min=1,max=7"`
	DaysOfWeek  []int   `json:"days_of_week" validate:"omitempty,min=1,dive,min=0,max=6"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=1"`
}

// OfferingService manages offering definitions and their lifecycle. All
// mutations are owner-gated; archiving retires an offering without deleting
// its row or history.
type OfferingService struct {
	repo      offeringRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOfferingService constructs OfferingService.
func NewOfferingService(repo offeringRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferingService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns offerings with pagination metadata.
func (s *OfferingService) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, *models.Pagination, error) {
	offerings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return offerings, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one offering.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

// Create registers a new draft offering owned by the actor.
func (s *OfferingService) Create(ctx context.Context, actorID string, req CreateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	offering := &models.Offering{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     actorID,
		Period:      models.Period(req.Period),
		DaysOfWeek:  toInt64Array(req.DaysOfWeek),
		Capacity:    req.Capacity,
		Status:      models.OfferingStatusDraft,
	}
	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionOfferingCreate, "offering", offering.ID, map[string]interface{}{
			"title": offering.Title,
		})
	}
	return offering, nil
}

// Update rewrites definition fields of an owner's offering.
func (s *OfferingService) Update(ctx context.Context, actorID, id string, req UpdateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	offering, err := s.ownedOffering(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if offering.Status == models.OfferingStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrValidation, "archived offerings cannot be updated")
	}
	if req.Title != nil {
		offering.Title = *req.Title
	}
	if req.Description != nil {
		offering.Description = *req.Description
	}
	if req.Period != nil {
		offering.Period = models.Period(*req.Period)
	}
	if req.DaysOfWeek != nil {
		offering.DaysOfWeek = toInt64Array(req.DaysOfWeek)
	}
	if req.Capacity != nil {
		if *req.Capacity < offering.CurrentEnrollment {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("capacity %d is below current enrollment %d", *req.Capacity, offering.CurrentEnrollment))
		}
		offering.Capacity = *req.Capacity
	}
	if err := s.repo.Update(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering")
	}
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionOfferingUpdate, "offering", id, nil)
	}
	return offering, nil
}

// Publish opens a draft offering for enrollment.
func (s *OfferingService) Publish(ctx context.Context, actorID, id string) (*models.Offering, error) {
	return s.setStatus(ctx, actorID, id, models.OfferingStatusPublished, models.AuditActionOfferingUpdate)
}

// Archive retires an offering. The row and its enrollment history are kept.
func (s *OfferingService) Archive(ctx context.Context, actorID, id string) (*models.Offering, error) {
	return s.setStatus(ctx, actorID, id, models.OfferingStatusArchived, models.AuditActionOfferingArchive)
}

func (s *OfferingService) setStatus(ctx context.Context, actorID, id string, status models.OfferingStatus, action string) (*models.Offering, error) {
	offering, err := s.ownedOffering(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if offering.Status == status {
		return offering, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering status")
	}
	if s.audit != nil {
		s.audit.Record(actorID, action, "offering", id, map[string]interface{}{
			"from": offering.Status,
			"to":   status,
		})
	}
	offering.Status = status
	return offering, nil
}

// Clone copies an offering's definition into a fresh draft with zeroed
// counters, owned by the actor.
func (s *OfferingService) Clone(ctx context.Context, actorID, id string) (*models.Offering, error) {
	source, err := s.ownedOffering(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	clone := &models.Offering{
		Title:       source.Title + " (copy)",
		Description: source.Description,
		OwnerID:     actorID,
		Period:      source.Period,
		DaysOfWeek:  append(pq.Int64Array{}, source.DaysOfWeek...),
		Capacity:    source.Capacity,
		Status:      models.OfferingStatusDraft,
	}
	if err := s.repo.Create(ctx, clone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clone offering")
	}
	if s.audit != nil {
		s.audit.Record(actorID, models.AuditActionOfferingClone, "offering", clone.ID, map[string]interface{}{
			"source_id": id,
		})
	}
	return clone, nil
}

func (s *OfferingService) ownedOffering(ctx context.Context, actorID, id string) (*models.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if offering.OwnerID != actorID {
		return nil, appErrors.ErrUnauthorized
	}
	return offering, nil
}

func toInt64Array(values []int) pq.Int64Array {
	result := make(pq.Int64Array, len(values))
	for i, v := range values {
		result[i] = int64(v)
	}
	return result
}
