package repository

import (
	"context"

	"github.com/google/uuid"

	"santa3d-contest/internal/models"
)

func (r *Repository) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

func (r *Repository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	return duplicate(r.db.WithContext(ctx).Create(admin).Error)
}

func (r *Repository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error
	return count, err
}

func (r *Repository) CreateJudge(ctx context.Context, judge *models.Judge) error {
	return duplicate(r.db.WithContext(ctx).Omit("Evaluations").Create(judge).Error)
}

func (r *Repository) GetJudgeByID(ctx context.Context, id uuid.UUID) (*models.Judge, error) {
	var judge models.Judge
	if err := r.db.WithContext(ctx).First(&judge, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &judge, nil
}

func (r *Repository) GetJudgeByEmail(ctx context.Context, email string) (*models.Judge, error) {
	var judge models.Judge
	if err := r.db.WithContext(ctx).First(&judge, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &judge, nil
}

func (r *Repository) ListJudges(ctx context.Context) ([]models.Judge, error) {
	var judges []models.Judge
	err := r.db.WithContext(ctx).Order("name ASC").Find(&judges).Error
	return judges, err
}

func (r *Repository) UpdateJudge(ctx context.Context, judge *models.Judge) error {
	return r.db.WithContext(ctx).Omit("Evaluations").Save(judge).Error
}

// DeleteJudge removes the judge together with the evaluations it submitted.
func (r *Repository) DeleteJudge(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		var evaluationIDs []uuid.UUID
		if err := tx.db.Model(&models.Evaluation{}).Where("judge_id = ?", id).Pluck("id", &evaluationIDs).Error; err != nil {
			return err
		}
		if len(evaluationIDs) > 0 {
			if err := tx.db.Where("evaluation_id IN ?", evaluationIDs).Delete(&models.CriterionScore{}).Error; err != nil {
				return err
			}
			if err := tx.db.Where("judge_id = ?", id).Delete(&models.Evaluation{}).Error; err != nil {
				return err
			}
		}
		res := tx.db.Delete(&models.Judge{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
