package repository

import (
	"context"

	"github.com/google/uuid"

	"santa3d-contest/internal/models"
)

func (r *Repository) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	return duplicate(r.db.WithContext(ctx).Omit("Video").Create(participant).Error)
}

func (r *Repository) GetParticipantByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).Preload("Video").First(&participant, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &participant, nil
}

func (r *Repository) GetParticipantByEmail(ctx context.Context, email string) (*models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).First(&participant, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &participant, nil
}

// ListParticipantsWithHandle returns every participant that declared an Instagram
// handle, with its video when one exists.
func (r *Repository) ListParticipantsWithHandle(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Preload("Video").
		Where("instagram_handle IS NOT NULL AND instagram_handle <> ''").
		Order("created_at ASC").
		Find(&participants).Error
	return participants, err
}

// ListParticipantsWithVideo returns participants that own a video, video preloaded.
func (r *Repository) ListParticipantsWithVideo(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Preload("Video").
		Where("EXISTS (SELECT 1 FROM videos WHERE videos.participant_id = participants.id)").
		Order("created_at ASC").
		Find(&participants).Error
	return participants, err
}
