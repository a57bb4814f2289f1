package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm/clause"

	"santa3d-contest/internal/models"
)

// GetContestState reads the contest settings rows into the typed aggregate.
// Missing rows mean an open contest with private scores.
func (r *Repository) GetContestState(ctx context.Context) (models.ContestState, error) {
	var rows []models.ContestSetting
	err := r.db.WithContext(ctx).
		Where("key IN ?", []string{models.SettingContestClosed, models.SettingContestClosedAt, models.SettingPublicScores}).
		Find(&rows).Error
	if err != nil {
		return models.ContestState{}, err
	}

	var state models.ContestState
	for _, row := range rows {
		switch row.Key {
		case models.SettingContestClosed:
			state.Closed, _ = strconv.ParseBool(row.Value)
		case models.SettingPublicScores:
			state.PublicScores, _ = strconv.ParseBool(row.Value)
		case models.SettingContestClosedAt:
			at, err := time.Parse(time.RFC3339Nano, row.Value)
			if err != nil {
				return models.ContestState{}, fmt.Errorf("parse %s: %w", row.Key, err)
			}
			state.ClosedAt = &at
		}
	}
	return state, nil
}

// SaveContestState writes the aggregate back. A nil ClosedAt deletes the timestamp row.
func (r *Repository) SaveContestState(ctx context.Context, state models.ContestState) error {
	if err := r.upsertSetting(ctx, models.SettingContestClosed, strconv.FormatBool(state.Closed)); err != nil {
		return err
	}
	if err := r.upsertSetting(ctx, models.SettingPublicScores, strconv.FormatBool(state.PublicScores)); err != nil {
		return err
	}
	if state.ClosedAt == nil {
		return r.db.WithContext(ctx).Delete(&models.ContestSetting{}, "key = ?", models.SettingContestClosedAt).Error
	}
	return r.upsertSetting(ctx, models.SettingContestClosedAt, state.ClosedAt.UTC().Format(time.RFC3339Nano))
}

func (r *Repository) upsertSetting(ctx context.Context, key, value string) error {
	setting := models.ContestSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}
