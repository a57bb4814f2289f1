package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

var validate = validator.New()

type CriterionInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Description  string  `json:"description" validate:"max=2000"`
	Weight       float64 `json:"weight" validate:"gt=0,lte=1"`
	MaxScore     int     `json:"maxScore" validate:"min=1,max=100"`
	DisplayOrder int     `json:"displayOrder" validate:"min=0"`
}

type CriteriaList struct {
	Criteria    []models.Criterion `json:"criteria"`
	WeightTotal float64            `json:"weightTotal"`
}

type CriteriaService struct {
	repo  *repository.Repository
	audit *AuditTrail
}

func NewCriteriaService(repo *repository.Repository, audit *AuditTrail) *CriteriaService {
	return &CriteriaService{repo: repo, audit: audit}
}

func (s *CriteriaService) List(ctx context.Context) (*CriteriaList, error) {
	criteria, err := s.repo.ListCriteria(ctx)
	if err != nil {
		return nil, internalError("failed to list criteria", err)
	}
	list := &CriteriaList{Criteria: criteria}
	for _, c := range criteria {
		list.WeightTotal += c.Weight
	}
	return list, nil
}

func (s *CriteriaService) Create(ctx context.Context, actor Actor, input CriterionInput) (*models.Criterion, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	criterion := &models.Criterion{
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Weight:       input.Weight,
		MaxScore:     input.MaxScore,
		DisplayOrder: input.DisplayOrder,
	}
	if err := s.repo.CreateCriterion(ctx, criterion); err != nil {
		return nil, internalError("failed to create criterion", err)
	}
	s.audit.Record(ctx, actor, "criterion.create", "criterion", criterion.ID.String(), input)
	return criterion, nil
}

func (s *CriteriaService) Update(ctx context.Context, actor Actor, id uuid.UUID, input CriterionInput) (*models.Criterion, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	criterion, err := s.repo.GetCriterionByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("CRITERION_NOT_FOUND", "criterion not found")
	}
	if err != nil {
		return nil, internalError("failed to load criterion", err)
	}

	criterion.Name = strings.TrimSpace(input.Name)
	criterion.Description = input.Description
	criterion.Weight = input.Weight
	criterion.MaxScore = input.MaxScore
	criterion.DisplayOrder = input.DisplayOrder

	if err := s.repo.UpdateCriterion(ctx, criterion); err != nil {
		return nil, internalError("failed to update criterion", err)
	}
	s.audit.Record(ctx, actor, "criterion.update", "criterion", id.String(), input)
	return criterion, nil
}

// Delete refuses to remove a criterion that already carries scores, so stored totals
// keep matching the sum of their score rows.
func (s *CriteriaService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.repo.GetCriterionByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("CRITERION_NOT_FOUND", "criterion not found")
		}
		return internalError("failed to load criterion", err)
	}
	used, err := s.repo.CountScoresForCriterion(ctx, id)
	if err != nil {
		return internalError("failed to count criterion scores", err)
	}
	if used > 0 {
		return conflictError("CRITERION_IN_USE", "criterion already has scores and cannot be deleted")
	}
	if err := s.repo.DeleteCriterion(ctx, id); err != nil {
		return internalError("failed to delete criterion", err)
	}
	s.audit.Record(ctx, actor, "criterion.delete", "criterion", id.String(), nil)
	return nil
}

func validateInput(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return validationError("field %s failed on %s", fe.Field(), fe.Tag())
		}
		return validationError("%v", err)
	}
	return nil
}
