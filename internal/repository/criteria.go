package repository

import (
	"context"

	"github.com/google/uuid"

	"santa3d-contest/internal/models"
)

func (r *Repository) ListCriteria(ctx context.Context) ([]models.Criterion, error) {
	var criteria []models.Criterion
	err := r.db.WithContext(ctx).Order("display_order ASC, name ASC").Find(&criteria).Error
	return criteria, err
}

func (r *Repository) GetCriterionByID(ctx context.Context, id uuid.UUID) (*models.Criterion, error) {
	var criterion models.Criterion
	if err := r.db.WithContext(ctx).First(&criterion, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &criterion, nil
}

func (r *Repository) CreateCriterion(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Create(criterion).Error
}

func (r *Repository) UpdateCriterion(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Save(criterion).Error
}

func (r *Repository) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Criterion{}, "id = ?", id).Error
}

func (r *Repository) CountScoresForCriterion(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CriterionScore{}).Where("criterion_id = ?", id).Count(&count).Error
	return count, err
}
