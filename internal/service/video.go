package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

type VideoView struct {
	ID                uuid.UUID          `json:"id"`
	ParticipantID     uuid.UUID          `json:"participantId"`
	ParticipantName   string             `json:"participantName,omitempty"`
	ParticipantEmail  string             `json:"participantEmail,omitempty"`
	InstagramHandle   string             `json:"instagramHandle,omitempty"`
	Status            models.VideoStatus `json:"status"`
	StorageKey        string             `json:"storageKey,omitempty"`
	InstagramURL      string             `json:"instagramUrl,omitempty"`
	InstagramLikes    *int               `json:"instagramLikes"`
	LastInstagramSync *time.Time         `json:"lastInstagramSync,omitempty"`
	ClosingLikes      *int               `json:"closingLikes"`
	ClosingLikesAt    *time.Time         `json:"closingLikesAt,omitempty"`
	IsJudgeSelected   bool               `json:"isJudgeSelected"`
	ValidatedAt       *time.Time         `json:"validatedAt,omitempty"`
	Resolution        string             `json:"resolution,omitempty"`
	FPS               float64            `json:"fps,omitempty"`
	DurationSeconds   float64            `json:"durationSeconds,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

type BulkApproveResult struct {
	Selected []uuid.UUID `json:"selected"`
	Skipped  []uuid.UUID `json:"skipped"`
}

type VideoService struct {
	repo  *repository.Repository
	audit *AuditTrail
	now   func() time.Time
}

func NewVideoService(repo *repository.Repository, audit *AuditTrail) *VideoService {
	return &VideoService{repo: repo, audit: audit, now: nowUTC}
}

func (s *VideoService) List(ctx context.Context, status models.VideoStatus) ([]VideoView, error) {
	switch status {
	case "", models.VideoPendingUpload, models.VideoPendingValidation, models.VideoValidated, models.VideoRejected:
	default:
		return nil, validationError("unknown video status %q", status)
	}
	videos, err := s.repo.ListVideos(ctx, status)
	if err != nil {
		return nil, internalError("failed to list videos", err)
	}
	views := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, toVideoView(v))
	}
	return views, nil
}

// Validate marks the video compliant. Validating an already validated video is a no-op.
func (s *VideoService) Validate(ctx context.Context, actor Actor, id uuid.UUID) (*VideoView, error) {
	video, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.Status != models.VideoValidated {
		video.Validate(s.now())
		if err := s.repo.UpdateVideo(ctx, video); err != nil {
			return nil, internalError("failed to validate video", err)
		}
		s.audit.Record(ctx, actor, "video.validate", "video", id.String(), nil)
	}
	view := toVideoView(*video)
	return &view, nil
}

// Reject marks the video non-compliant and withdraws it from the jury selection.
func (s *VideoService) Reject(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*VideoView, error) {
	video, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	video.Status = models.VideoRejected
	video.ValidatedAt = nil
	video.IsJudgeSelected = false
	if err := s.repo.UpdateVideo(ctx, video); err != nil {
		return nil, internalError("failed to reject video", err)
	}
	s.audit.Record(ctx, actor, "video.reject", "video", id.String(), map[string]string{"reason": reason})
	view := toVideoView(*video)
	return &view, nil
}

// SetJudgeSelection adds or removes a video from the jury selection. Only VALIDATED
// videos can be selected.
func (s *VideoService) SetJudgeSelection(ctx context.Context, actor Actor, id uuid.UUID, selected bool) (*VideoView, error) {
	video, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if selected && video.Status != models.VideoValidated {
		return nil, conflictError("VIDEO_NOT_VALIDATED", "only validated videos can be selected for the jury")
	}
	if err := s.repo.SetJudgeSelected(ctx, id, selected); err != nil {
		return nil, internalError("failed to update selection", err)
	}
	video.IsJudgeSelected = selected
	s.audit.Record(ctx, actor, "video.selection", "video", id.String(), map[string]bool{"selected": selected})
	view := toVideoView(*video)
	return &view, nil
}

// BulkApprove selects every listed VALIDATED video for the jury in one transaction.
// Unknown or non-validated ids are reported as skipped.
func (s *VideoService) BulkApprove(ctx context.Context, actor Actor, ids []uuid.UUID) (*BulkApproveResult, error) {
	if len(ids) == 0 {
		return nil, validationError("videoIds must not be empty")
	}
	result := &BulkApproveResult{Selected: []uuid.UUID{}, Skipped: []uuid.UUID{}}
	seen := make(map[uuid.UUID]bool, len(ids))

	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			video, err := tx.GetVideoByID(ctx, id)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && video.Status != models.VideoValidated) {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			if err != nil {
				return err
			}
			if err := tx.SetJudgeSelected(ctx, id, true); err != nil {
				return err
			}
			result.Selected = append(result.Selected, id)
		}
		return nil
	})
	if err != nil {
		return nil, internalError("failed to approve videos", err)
	}
	s.audit.Record(ctx, actor, "video.bulk_approve", "video", "", result)
	return result, nil
}

func (s *VideoService) load(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	video, err := s.repo.GetVideoByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("VIDEO_NOT_FOUND", "video not found")
	}
	if err != nil {
		return nil, internalError("failed to load video", err)
	}
	return video, nil
}

func toVideoView(v models.Video) VideoView {
	view := VideoView{
		ID:                v.ID,
		ParticipantID:     v.ParticipantID,
		Status:            v.Status,
		StorageKey:        v.StorageKey,
		InstagramURL:      v.InstagramURL,
		InstagramLikes:    v.InstagramLikes,
		LastInstagramSync: v.LastInstagramSync,
		ClosingLikes:      v.ClosingLikes,
		ClosingLikesAt:    v.ClosingLikesAt,
		IsJudgeSelected:   v.IsJudgeSelected,
		ValidatedAt:       v.ValidatedAt,
		Resolution:        v.Resolution,
		FPS:               v.FPS,
		DurationSeconds:   v.Duration.Duration().Seconds(),
		CreatedAt:         v.CreatedAt,
	}
	if v.Participant != nil {
		view.ParticipantName = v.Participant.FullName()
		view.ParticipantEmail = v.Participant.Email
		view.InstagramHandle = v.Participant.InstagramHandle
	}
	return view
}
