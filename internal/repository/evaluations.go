package repository

import (
	"context"

	"github.com/google/uuid"

	"santa3d-contest/internal/models"
)

func (r *Repository) FindEvaluation(ctx context.Context, videoID, judgeID uuid.UUID) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Where("video_id = ? AND judge_id = ?", videoID, judgeID).
		First(&evaluation).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &evaluation, nil
}

func (r *Repository) CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	return duplicate(r.db.WithContext(ctx).Omit("Scores", "Video", "Judge").Create(evaluation).Error)
}

func (r *Repository) UpdateEvaluation(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("id = ?", evaluation.ID).
		Updates(map[string]interface{}{
			"total_score":      evaluation.TotalScore,
			"general_comments": evaluation.GeneralComments,
			"evaluated_at":     evaluation.EvaluatedAt,
		}).Error
}

// ReplaceScores swaps the whole score set of an evaluation. Callers run it inside
// WithTransaction so the intermediate empty set is never visible.
func (r *Repository) ReplaceScores(ctx context.Context, evaluationID uuid.UUID, scores []models.CriterionScore) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("evaluation_id = ?", evaluationID).Delete(&models.CriterionScore{}).Error; err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}
	for i := range scores {
		scores[i].EvaluationID = evaluationID
	}
	return db.Omit("Criterion").Create(&scores).Error
}

func (r *Repository) GetEvaluationWithScores(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Scores.Criterion").
		First(&evaluation, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &evaluation, nil
}

func (r *Repository) ListEvaluationsByJudge(ctx context.Context, judgeID uuid.UUID) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Scores.Criterion").
		Preload("Video.Participant").
		Where("judge_id = ?", judgeID).
		Order("evaluated_at DESC").
		Find(&evaluations).Error
	return evaluations, err
}

func (r *Repository) CountEvaluationsForVideo(ctx context.Context, videoID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).Where("video_id = ?", videoID).Count(&count).Error
	return count, err
}

// ListEvaluatedVideoIDs returns the ids of the videos the judge has already scored.
func (r *Repository) ListEvaluatedVideoIDs(ctx context.Context, judgeID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("judge_id = ?", judgeID).
		Pluck("video_id", &ids).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}
