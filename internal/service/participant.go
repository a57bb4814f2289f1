package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
	"santa3d-contest/internal/storage"
)

const birthDateLayout = "2006-01-02"

// UploadLinker presigns direct uploads into the video bucket.
type UploadLinker interface {
	UploadURL(ctx context.Context, key, contentType string) (string, error)
}

type RegistrationInput struct {
	FirstName       string `json:"firstName" validate:"required,max=80"`
	LastName        string `json:"lastName" validate:"required,max=80"`
	Email           string `json:"email" validate:"required,email"`
	BirthDate       string `json:"birthDate" validate:"required"`
	InstagramHandle string `json:"instagramHandle" validate:"max=64"`
}

type UploadConfirmation struct {
	StorageKey      string  `json:"storageKey" validate:"required,max=512"`
	Resolution      string  `json:"resolution" validate:"max=32"`
	FPS             float64 `json:"fps" validate:"gte=0,lte=240"`
	DurationSeconds float64 `json:"durationSeconds" validate:"gte=0"`
}

type UploadTarget struct {
	StorageKey string `json:"storageKey"`
	UploadURL  string `json:"uploadUrl"`
}

type ParticipantView struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	BirthDate       string     `json:"birthDate"`
	Age             int        `json:"age"`
	InstagramHandle string     `json:"instagramHandle,omitempty"`
	Video           *VideoView `json:"video,omitempty"`
}

type Registration struct {
	Participant ParticipantView `json:"participant"`
	Session     *Session        `json:"session"`
}

// ParticipantChecker re-runs like reconciliation for one participant.
type ParticipantChecker interface {
	CheckParticipant(ctx context.Context, participantID uuid.UUID) (*SyncResult, error)
}

type ParticipantService struct {
	repo    *repository.Repository
	auth    *AuthService
	mailer  Mailer
	uploads UploadLinker
	checker ParticipantChecker
	now     func() time.Time
}

func NewParticipantService(repo *repository.Repository, auth *AuthService, mailer Mailer, uploads UploadLinker, checker ParticipantChecker) *ParticipantService {
	return &ParticipantService{repo: repo, auth: auth, mailer: mailer, uploads: uploads, checker: checker, now: nowUTC}
}

// Register creates the participant and its empty video slot together.
func (s *ParticipantService) Register(ctx context.Context, input RegistrationInput) (*Registration, error) {
	input.Email = normalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.InstagramHandle = strings.TrimSpace(input.InstagramHandle)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	birthDate, err := time.Parse(birthDateLayout, input.BirthDate)
	if err != nil {
		return nil, validationError("birthDate must use the YYYY-MM-DD format")
	}
	if !birthDate.Before(s.now()) {
		return nil, validationError("birthDate must be in the past")
	}
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	participant := &models.Participant{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		BirthDate:       birthDate,
		InstagramHandle: input.InstagramHandle,
	}
	err = s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateParticipant(ctx, participant); err != nil {
			return err
		}
		video := &models.Video{ParticipantID: participant.ID, Status: models.VideoPendingUpload}
		if err := tx.CreateVideo(ctx, video); err != nil {
			return err
		}
		participant.Video = video
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, conflictError("PARTICIPANT_EMAIL_TAKEN", "this email is already registered")
	}
	if err != nil {
		return nil, internalError("failed to register participant", err)
	}

	session, err := s.auth.ParticipantSession(participant)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendRegistrationConfirmation(ctx, participant.Email, participant.FullName()); err != nil {
		logging.Log.WithFields(logrus.Fields{"participant_id": participant.ID, "error": err}).Warn("registration mail failed")
	}
	logging.Log.WithField("participant_id", participant.ID).Info("participant registered")
	return &Registration{Participant: s.toView(*participant), Session: session}, nil
}

func (s *ParticipantService) Me(ctx context.Context, participantID uuid.UUID) (*ParticipantView, error) {
	participant, err := s.load(ctx, participantID)
	if err != nil {
		return nil, err
	}
	view := s.toView(*participant)
	return &view, nil
}

// UploadTarget presigns the upload of the participant's video file.
func (s *ParticipantService) UploadTarget(ctx context.Context, participantID uuid.UUID, filename, contentType string) (*UploadTarget, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, participantID); err != nil {
		return nil, err
	}
	key := storage.ObjectKey(participantID, filename)
	url, err := s.uploads.UploadURL(ctx, key, contentType)
	if errors.Is(err, storage.ErrNotConfigured) {
		return nil, conflictError("STORAGE_NOT_CONFIGURED", "video storage is not configured")
	}
	if err != nil {
		return nil, externalError("failed to presign upload", err)
	}
	return &UploadTarget{StorageKey: key, UploadURL: url}, nil
}

// ConfirmUpload records the uploaded file and queues the video for validation. A
// tagged Instagram post found right away validates it immediately.
func (s *ParticipantService) ConfirmUpload(ctx context.Context, participantID uuid.UUID, input UploadConfirmation) (*VideoView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	participant, err := s.load(ctx, participantID)
	if err != nil {
		return nil, err
	}
	video := participant.Video
	if video == nil {
		return nil, notFoundError("VIDEO_NOT_FOUND", "video not found")
	}
	if video.Status == models.VideoValidated {
		return nil, conflictError("VIDEO_ALREADY_VALIDATED", "a validated video cannot be replaced")
	}

	video.StorageKey = input.StorageKey
	video.Resolution = input.Resolution
	video.FPS = input.FPS
	video.Duration = models.Interval(time.Duration(input.DurationSeconds * float64(time.Second)))
	video.Status = models.VideoPendingValidation
	if err := s.repo.UpdateVideo(ctx, video); err != nil {
		return nil, internalError("failed to confirm upload", err)
	}

	if s.checker != nil {
		if _, err := s.checker.CheckParticipant(ctx, participantID); err != nil {
			logging.Log.WithFields(logrus.Fields{"participant_id": participantID, "error": err}).Warn("post-upload instagram check failed")
		}
	}

	fresh, err := s.repo.GetVideoByParticipant(ctx, participantID)
	if err != nil {
		return nil, internalError("failed to reload video", err)
	}
	fresh.Participant = participant
	view := toVideoView(*fresh)
	return &view, nil
}

func (s *ParticipantService) ensureOpen(ctx context.Context) error {
	state, err := s.repo.GetContestState(ctx)
	if err != nil {
		return internalError("failed to load contest state", err)
	}
	if state.Closed {
		return conflictError("CONTEST_CLOSED", "the contest is closed")
	}
	return nil
}

func (s *ParticipantService) load(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	participant, err := s.repo.GetParticipantByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("PARTICIPANT_NOT_FOUND", "participant not found")
	}
	if err != nil {
		return nil, internalError("failed to load participant", err)
	}
	return participant, nil
}

func (s *ParticipantService) toView(p models.Participant) ParticipantView {
	view := ParticipantView{
		ID:              p.ID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		BirthDate:       p.BirthDate.Format(birthDateLayout),
		Age:             models.AgeAt(p.BirthDate, s.now()),
		InstagramHandle: p.InstagramHandle,
	}
	if p.Video != nil {
		video := *p.Video
		video.Participant = nil
		v := toVideoView(video)
		view.Video = &v
	}
	return view
}
