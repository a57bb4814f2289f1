package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"santa3d-contest/internal/models"
)

func (r *Repository) GetInstagramConfig(ctx context.Context) (*models.InstagramConfig, error) {
	var cfg models.InstagramConfig
	err := r.db.WithContext(ctx).Order("id ASC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveInstagramConfig keeps a single configuration row.
func (r *Repository) SaveInstagramConfig(ctx context.Context, cfg *models.InstagramConfig) error {
	existing, err := r.GetInstagramConfig(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		cfg.ID = existing.ID
	}
	return r.db.WithContext(ctx).Save(cfg).Error
}
