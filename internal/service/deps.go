package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

// Mailer sends the transactional notices. Delivery failures never fail the operation
// that triggered them.
type Mailer interface {
	SendRegistrationConfirmation(ctx context.Context, to, name string) error
	SendJudgeWelcome(ctx context.Context, to, name, tempPassword string) error
	SendPasswordReset(ctx context.Context, to, name, tempPassword string) error
}

// Notifier pushes short operator notices, e.g. to the admin bot.
type Notifier interface {
	Notify(text string)
}

// Actor identifies who performed an administrative action.
type Actor struct {
	ID   string
	Role models.Role
}

var SystemActor = Actor{ID: "system", Role: models.RoleAdmin}

// AuditTrail records administrative actions. Write failures are logged and dropped.
type AuditTrail struct {
	repo *repository.Repository
}

func NewAuditTrail(repo *repository.Repository) *AuditTrail {
	return &AuditTrail{repo: repo}
}

func (a *AuditTrail) Record(ctx context.Context, actor Actor, action, entityType, entityID string, details interface{}) {
	if a == nil {
		return
	}
	entry := &models.AuditLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}
	if err := a.repo.CreateAuditLog(ctx, entry); err != nil {
		logging.Log.WithFields(logrus.Fields{"action": action, "error": err}).Warn("audit log write failed")
	}
}

func (a *AuditTrail) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	entries, err := a.repo.ListAuditLogs(ctx, limit)
	if err != nil {
		return nil, internalError("failed to list audit logs", err)
	}
	return entries, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

func nowUTC() time.Time {
	return time.Now().UTC()
}
