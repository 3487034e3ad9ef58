package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"signalengine/src/database"
	"signalengine/src/model"
)

// StrategyRepository reads the strategy directory the validator resolves
// alert symbols against.
type StrategyRepository struct {
	db *gorm.DB
}

func NewStrategyRepository() *StrategyRepository {
	return &StrategyRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance, mainly for
// tests.
func (r *StrategyRepository) WithDB(db *gorm.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// FindActiveBySymbol returns the active strategy for an alert symbol, or
// (nil, nil) when the symbol is unknown or the strategy is disabled.
func (r *StrategyRepository) FindActiveBySymbol(ctx context.Context, symbol string) (*model.Strategy, error) {
	var strat model.Strategy

	err := r.db.WithContext(ctx).
		Where("symbol = ? AND active = ?", symbol, true).
		First(&strat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &strat, nil
}

// FindByID fetches a strategy by primary key, (nil, nil) when absent.
func (r *StrategyRepository) FindByID(ctx context.Context, id uint) (*model.Strategy, error) {
	var strat model.Strategy

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&strat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &strat, nil
}

// List returns all directory entries ordered by symbol.
func (r *StrategyRepository) List(ctx context.Context) ([]model.Strategy, error) {
	var strategies []model.Strategy

	err := r.db.WithContext(ctx).
		Order("symbol ASC").
		Find(&strategies).Error
	if err != nil {
		return nil, err
	}

	return strategies, nil
}
