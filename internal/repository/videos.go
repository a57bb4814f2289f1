package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"santa3d-contest/internal/models"
)

func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	return r.db.WithContext(ctx).Omit("Participant", "Evaluations").Create(video).Error
}

func (r *Repository) GetVideoByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Preload("Participant").First(&video, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &video, nil
}

func (r *Repository) GetVideoByParticipant(ctx context.Context, participantID uuid.UUID) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, "participant_id = ?", participantID).Error; err != nil {
		return nil, notFound(err)
	}
	return &video, nil
}

func (r *Repository) UpdateVideo(ctx context.Context, video *models.Video) error {
	return r.db.WithContext(ctx).Omit("Participant", "Evaluations").Save(video).Error
}

// ListVideos returns videos with their participant, optionally filtered by status.
func (r *Repository) ListVideos(ctx context.Context, status models.VideoStatus) ([]models.Video, error) {
	var videos []models.Video
	query := r.db.WithContext(ctx).Preload("Participant").Order("created_at ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&videos).Error
	return videos, err
}

func (r *Repository) ListJudgeSelectedVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Preload("Participant").
		Where("status = ? AND is_judge_selected = ?", models.VideoValidated, true).
		Order("created_at ASC").
		Find(&videos).Error
	return videos, err
}

// ListRankableVideos loads VALIDATED videos that have at least one evaluation, with
// evaluations, scores and participant preloaded.
func (r *Repository) ListRankableVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Preload("Participant").
		Preload("Evaluations.Scores").
		Where("status = ?", models.VideoValidated).
		Where("EXISTS (SELECT 1 FROM evaluations WHERE evaluations.video_id = videos.id)").
		Order("created_at ASC").
		Find(&videos).Error
	return videos, err
}

func (r *Repository) SetJudgeSelected(ctx context.Context, id uuid.UUID, selected bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Update("is_judge_selected", selected).Error
}

// SnapshotClosingLikes copies the live like count of every VALIDATED video into the
// closing snapshot in one statement.
func (r *Repository) SnapshotClosingLikes(ctx context.Context, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("status = ?", models.VideoValidated).
		Updates(map[string]interface{}{
			"closing_likes":    gorm.Expr("instagram_likes"),
			"closing_likes_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) SetClosingLikes(ctx context.Context, id uuid.UUID, likes int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"closing_likes":    likes,
			"closing_likes_at": at,
		}).Error
}

func (r *Repository) CountVideosByStatus(ctx context.Context) (map[models.VideoStatus]int64, error) {
	var rows []struct {
		Status models.VideoStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.VideoStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
