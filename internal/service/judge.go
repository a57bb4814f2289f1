package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

const tempPasswordLength = 12

// VideoLinker turns a storage key into a URL a judge can play.
type VideoLinker interface {
	PlaybackURL(ctx context.Context, key string) (string, error)
}

type JudgeInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
}

type JudgeView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	IsActive      bool      `json:"isActive"`
	ResetRequired bool      `json:"resetRequired"`
	CreatedAt     time.Time `json:"createdAt"`
}

// JudgeAccount is returned when credentials are (re)issued. The temporary password is
// also mailed to the judge.
type JudgeAccount struct {
	Judge             JudgeView `json:"judge"`
	TemporaryPassword string    `json:"temporaryPassword"`
}

type JudgeVideo struct {
	VideoID         uuid.UUID `json:"videoId"`
	PlaybackURL     string    `json:"playbackUrl,omitempty"`
	InstagramURL    string    `json:"instagramUrl,omitempty"`
	Resolution      string    `json:"resolution,omitempty"`
	FPS             float64   `json:"fps,omitempty"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"`
	Evaluated       bool      `json:"evaluated"`
}

type JudgeService struct {
	repo   *repository.Repository
	mailer Mailer
	links  VideoLinker
	audit  *AuditTrail
}

func NewJudgeService(repo *repository.Repository, mailer Mailer, links VideoLinker, audit *AuditTrail) *JudgeService {
	return &JudgeService{repo: repo, mailer: mailer, links: links, audit: audit}
}

func (s *JudgeService) Create(ctx context.Context, actor Actor, input JudgeInput) (*JudgeAccount, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	tempPass, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, internalError("failed to generate password", err)
	}
	judge := &models.Judge{
		Name:          input.Name,
		Email:         input.Email,
		TempPassword:  tempPass,
		ResetRequired: true,
		IsActive:      true,
	}
	if err := s.repo.CreateJudge(ctx, judge); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("JUDGE_EMAIL_TAKEN", "a judge with this email already exists")
		}
		return nil, internalError("failed to create judge", err)
	}

	if err := s.mailer.SendJudgeWelcome(ctx, judge.Email, judge.Name, tempPass); err != nil {
		logging.Log.WithFields(logrus.Fields{"judge_id": judge.ID, "error": err}).Warn("judge welcome mail failed")
	}
	s.audit.Record(ctx, actor, "judge.create", "judge", judge.ID.String(), map[string]string{"email": judge.Email})
	return &JudgeAccount{Judge: toJudgeView(*judge), TemporaryPassword: tempPass}, nil
}

func (s *JudgeService) List(ctx context.Context) ([]JudgeView, error) {
	judges, err := s.repo.ListJudges(ctx)
	if err != nil {
		return nil, internalError("failed to list judges", err)
	}
	views := make([]JudgeView, 0, len(judges))
	for _, j := range judges {
		views = append(views, toJudgeView(j))
	}
	return views, nil
}

func (s *JudgeService) ResetPassword(ctx context.Context, actor Actor, id uuid.UUID) (*JudgeAccount, error) {
	judge, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tempPass, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, internalError("failed to generate password", err)
	}
	judge.TempPassword = tempPass
	judge.ResetRequired = true
	if err := s.repo.UpdateJudge(ctx, judge); err != nil {
		return nil, internalError("failed to reset password", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, judge.Email, judge.Name, tempPass); err != nil {
		logging.Log.WithFields(logrus.Fields{"judge_id": judge.ID, "error": err}).Warn("password reset mail failed")
	}
	s.audit.Record(ctx, actor, "judge.reset_password", "judge", judge.ID.String(), nil)
	return &JudgeAccount{Judge: toJudgeView(*judge), TemporaryPassword: tempPass}, nil
}

func (s *JudgeService) SetActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) (*JudgeView, error) {
	judge, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	judge.IsActive = active
	if err := s.repo.UpdateJudge(ctx, judge); err != nil {
		return nil, internalError("failed to update judge", err)
	}
	s.audit.Record(ctx, actor, "judge.set_active", "judge", judge.ID.String(), map[string]bool{"active": active})
	view := toJudgeView(*judge)
	return &view, nil
}

// Delete removes the judge and every evaluation it submitted.
func (s *JudgeService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	err := s.repo.DeleteJudge(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError("JUDGE_NOT_FOUND", "judge not found")
	}
	if err != nil {
		return internalError("failed to delete judge", err)
	}
	s.audit.Record(ctx, actor, "judge.delete", "judge", id.String(), nil)
	return nil
}

// SelectedVideos lists the videos chosen for the jury, flagged with whether this judge
// already evaluated them.
func (s *JudgeService) SelectedVideos(ctx context.Context, judgeID uuid.UUID) ([]JudgeVideo, error) {
	videos, err := s.repo.ListJudgeSelectedVideos(ctx)
	if err != nil {
		return nil, internalError("failed to list selected videos", err)
	}
	evaluated, err := s.repo.ListEvaluatedVideoIDs(ctx, judgeID)
	if err != nil {
		return nil, internalError("failed to load evaluations", err)
	}

	result := make([]JudgeVideo, 0, len(videos))
	for _, v := range videos {
		item := JudgeVideo{
			VideoID:         v.ID,
			InstagramURL:    v.InstagramURL,
			Resolution:      v.Resolution,
			FPS:             v.FPS,
			DurationSeconds: v.Duration.Duration().Seconds(),
			Evaluated:       evaluated[v.ID],
		}
		if v.StorageKey != "" && s.links != nil {
			url, err := s.links.PlaybackURL(ctx, v.StorageKey)
			if err != nil {
				logging.Log.WithFields(logrus.Fields{"video_id": v.ID, "error": err}).Warn("playback url unavailable")
			} else {
				item.PlaybackURL = url
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *JudgeService) load(ctx context.Context, id uuid.UUID) (*models.Judge, error) {
	judge, err := s.repo.GetJudgeByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("JUDGE_NOT_FOUND", "judge not found")
	}
	if err != nil {
		return nil, internalError("failed to load judge", err)
	}
	return judge, nil
}

func toJudgeView(j models.Judge) JudgeView {
	return JudgeView{
		ID:            j.ID,
		Name:          j.Name,
		Email:         j.Email,
		IsActive:      j.IsActive,
		ResetRequired: j.ResetRequired,
		CreatedAt:     j.CreatedAt,
	}
}

func generateTempPassword(length int) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		result[i] = chars[num.Int64()]
	}
	return string(result), nil
}
