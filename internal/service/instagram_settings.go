package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

type InstagramSettingsInput struct {
	AccessToken       string `json:"accessToken" validate:"required"`
	BusinessAccountID string `json:"businessAccountId" validate:"required,numeric"`
}

// InstagramSettingsView never exposes the stored token.
type InstagramSettingsView struct {
	Configured        bool       `json:"configured"`
	Source            string     `json:"source"`
	BusinessAccountID string     `json:"businessAccountId,omitempty"`
	TokenHint         string     `json:"tokenHint,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// InstagramSettings resolves the Graph API credentials, preferring the row stored by
// an administrator over the environment defaults.
type InstagramSettings struct {
	repo     *repository.Repository
	defaults instagram.Credentials
	audit    *AuditTrail
}

func NewInstagramSettings(repo *repository.Repository, defaults instagram.Credentials, audit *AuditTrail) *InstagramSettings {
	return &InstagramSettings{repo: repo, defaults: defaults, audit: audit}
}

func (s *InstagramSettings) Credentials(ctx context.Context) (instagram.Credentials, error) {
	cfg, err := s.repo.GetInstagramConfig(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return instagram.Credentials{}, err
	}
	if cfg != nil && cfg.AccessToken != "" && cfg.BusinessAccountID != "" {
		return instagram.Credentials{AccessToken: cfg.AccessToken, AccountID: cfg.BusinessAccountID}, nil
	}
	return s.defaults, nil
}

func (s *InstagramSettings) View(ctx context.Context) (*InstagramSettingsView, error) {
	cfg, err := s.repo.GetInstagramConfig(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError("failed to load instagram settings", err)
	}
	if cfg != nil && cfg.AccessToken != "" && cfg.BusinessAccountID != "" {
		updated := cfg.UpdatedAt
		return &InstagramSettingsView{
			Configured:        true,
			Source:            "database",
			BusinessAccountID: cfg.BusinessAccountID,
			TokenHint:         tokenHint(cfg.AccessToken),
			UpdatedAt:         &updated,
		}, nil
	}
	if s.defaults.AccessToken != "" && s.defaults.AccountID != "" {
		return &InstagramSettingsView{
			Configured:        true,
			Source:            "environment",
			BusinessAccountID: s.defaults.AccountID,
			TokenHint:         tokenHint(s.defaults.AccessToken),
		}, nil
	}
	return &InstagramSettingsView{Source: "none"}, nil
}

func (s *InstagramSettings) Save(ctx context.Context, actor Actor, input InstagramSettingsInput) (*InstagramSettingsView, error) {
	input.AccessToken = strings.TrimSpace(input.AccessToken)
	input.BusinessAccountID = strings.TrimSpace(input.BusinessAccountID)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	cfg := &models.InstagramConfig{AccessToken: input.AccessToken, BusinessAccountID: input.BusinessAccountID}
	if err := s.repo.SaveInstagramConfig(ctx, cfg); err != nil {
		return nil, internalError("failed to save instagram settings", err)
	}
	s.audit.Record(ctx, actor, "instagram.configure", "instagram_config", "", map[string]string{"businessAccountId": cfg.BusinessAccountID})
	return s.View(ctx)
}

func tokenHint(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
