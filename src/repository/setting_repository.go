package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"signalengine/src/database"
	"signalengine/src/model"
)

// SettingRepository persists operator toggles (currently only the manual
// processing pause).
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{db: database.MainDB}
}

func (r *SettingRepository) WithDB(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetBool returns false for unset keys.
func (r *SettingRepository) GetBool(ctx context.Context, key string) (bool, error) {
	var setting model.Setting

	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	value, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return false, err
	}
	return value, nil
}

func (r *SettingRepository) SetBool(ctx context.Context, key string, value bool) error {
	setting := model.Setting{
		Key:   key,
		Value: strconv.FormatBool(value),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}
