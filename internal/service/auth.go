package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

type TokenIssuer interface {
	Issue(subject uuid.UUID, role models.Role, resetRequired bool) (string, time.Time, error)
}

type Session struct {
	Token         string      `json:"token"`
	ExpiresAt     time.Time   `json:"expiresAt"`
	Role          models.Role `json:"role"`
	Name          string      `json:"name"`
	ResetRequired bool        `json:"resetRequired"`
}

type AuthService struct {
	repo   *repository.Repository
	tokens TokenIssuer
}

func NewAuthService(repo *repository.Repository, tokens TokenIssuer) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// EnsureAdmin creates the bootstrap administrator when no administrator exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return internalError("failed to count administrators", err)
	}
	if count > 0 || email == "" || password == "" {
		return nil
	}
	admin := &models.Admin{Email: normalizeEmail(email), Name: "Administrator", Password: password}
	if err := s.repo.CreateAdmin(ctx, admin); err != nil {
		return internalError("failed to create bootstrap administrator", err)
	}
	logging.Log.WithField("email", admin.Email).Info("bootstrap administrator created")
	return nil
}

func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	admin, err := s.repo.GetAdminByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, internalError("failed to load administrator", err)
	}
	if !passwordMatches(admin.PasswordHash, password) {
		return nil, unauthorizedError("invalid credentials")
	}
	return s.issue(admin.ID, models.RoleAdmin, admin.Name, false)
}

func (s *AuthService) JudgeLogin(ctx context.Context, email, password string) (*Session, error) {
	judge, err := s.repo.GetJudgeByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, internalError("failed to load judge", err)
	}
	if !judge.IsActive || !passwordMatches(judge.PasswordHash, password) {
		return nil, unauthorizedError("invalid credentials")
	}
	return s.issue(judge.ID, models.RoleJudge, judge.Name, judge.ResetRequired)
}

// ChangeJudgePassword replaces the judge password and clears the reset flag. The
// returned session no longer carries the reset requirement.
func (s *AuthService) ChangeJudgePassword(ctx context.Context, judgeID uuid.UUID, oldPassword, newPassword string) (*Session, error) {
	if len(newPassword) < 8 {
		return nil, validationError("new password must be at least 8 characters")
	}
	judge, err := s.repo.GetJudgeByID(ctx, judgeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("JUDGE_NOT_FOUND", "judge not found")
	}
	if err != nil {
		return nil, internalError("failed to load judge", err)
	}
	if !passwordMatches(judge.PasswordHash, oldPassword) {
		return nil, unauthorizedError("invalid old password")
	}

	judge.TempPassword = newPassword
	judge.ResetRequired = false
	if err := s.repo.UpdateJudge(ctx, judge); err != nil {
		return nil, internalError("failed to update password", err)
	}
	return s.issue(judge.ID, models.RoleJudge, judge.Name, false)
}

func (s *AuthService) ParticipantSession(participant *models.Participant) (*Session, error) {
	return s.issue(participant.ID, models.RoleParticipant, participant.FullName(), false)
}

func (s *AuthService) issue(id uuid.UUID, role models.Role, name string, resetRequired bool) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(id, role, resetRequired)
	if err != nil {
		return nil, internalError("failed to generate token", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Role: role, Name: name, ResetRequired: resetRequired}, nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
