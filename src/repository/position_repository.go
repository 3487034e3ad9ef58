package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalengine/src/database"
	"signalengine/src/model"
)

var (
	ErrPositionNotFound = errors.New("position not found")
	// ErrStaleState signals that a guarded update matched zero rows because
	// the record changed underneath the caller; retry against fresh data.
	ErrStaleState = errors.New("record changed concurrently, retry with fresh data")
)

// PositionRepository owns open positions and the transactional open/close
// transitions that keep them in step with the staging ledger.
type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{db: database.MainDB}
}

func (r *PositionRepository) WithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// FindOpenByStrategy returns the strategy's single open position, or
// (nil, nil) when flat.
func (r *PositionRepository) FindOpenByStrategy(ctx context.Context, strategyID uint) (*model.Position, error) {
	var position model.Position

	err := r.db.WithContext(ctx).
		Where("strategy_id = ? AND status = ?", strategyID, model.PositionStatusOpen).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &position, nil
}

// FindByID fetches any position by primary key, (nil, nil) when absent.
func (r *PositionRepository) FindByID(ctx context.Context, id uint) (*model.Position, error) {
	var position model.Position

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &position, nil
}

// ListOpen lists open positions, optionally filtered by strategy symbol.
func (r *PositionRepository) ListOpen(ctx context.Context, symbol *string) ([]model.Position, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", model.PositionStatusOpen)

	if symbol != nil {
		query = query.Where("strategy_symbol = ?", *symbol)
	}

	var positions []model.Position
	err := query.
		Order("entry_time DESC, id DESC").
		Find(&positions).Error
	if err != nil {
		return nil, err
	}

	return positions, nil
}

// OpenPosition creates the position and its isOpen staging placeholder in
// one transaction.
func (r *PositionRepository) OpenPosition(ctx context.Context, position *model.Position, placeholder *model.StagingTrade) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(position).Error; err != nil {
			return err
		}

		placeholder.PositionID = &position.ID
		if err := tx.Create(placeholder).Error; err != nil {
			return err
		}

		logger.WithFields(logger.Fields{
			"strategy":    position.StrategySymbol,
			"direction":   position.Direction,
			"entry_price": position.EntryPrice,
			"position_id": position.ID,
		}).Info("position opened")
		return nil
	})
}

// ClosePosition consumes an open position and resolves its staging
// placeholder into a pending closed trade. The status predicate on the
// position update makes concurrent closes lose with ErrStaleState instead
// of double-closing.
func (r *PositionRepository) ClosePosition(ctx context.Context, position *model.Position, exitPrice, pnl float64, exitTime time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		closedAt := time.Now()

		result := tx.Model(&model.Position{}).
			Where("id = ? AND status = ?", position.ID, model.PositionStatusOpen).
			Updates(map[string]any{
				"status":    model.PositionStatusClosed,
				"closed_at": closedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		resolved := tx.Model(&model.StagingTrade{}).
			Where("position_id = ? AND is_open = ?", position.ID, true).
			Updates(map[string]any{
				"exit_price": exitPrice,
				"exit_time":  exitTime,
				"pnl":        pnl,
				"is_open":    false,
			})
		if resolved.Error != nil {
			return resolved.Error
		}
		if resolved.RowsAffected == 0 {
			// The placeholder was removed out-of-band; keep the audit trail
			// by staging the closed trade from scratch.
			staging := &model.StagingTrade{
				StrategyID:     position.StrategyID,
				PositionID:     &position.ID,
				StrategySymbol: position.StrategySymbol,
				Direction:      position.Direction,
				EntryPrice:     position.EntryPrice,
				ExitPrice:      &exitPrice,
				Quantity:       position.Quantity,
				Pnl:            &pnl,
				EntryTime:      position.EntryTime,
				ExitTime:       &exitTime,
				IsOpen:         false,
				Status:         model.StagingStatusPending,
			}
			if err := tx.Create(staging).Error; err != nil {
				return err
			}
		}

		logger.WithFields(logger.Fields{
			"strategy":    position.StrategySymbol,
			"position_id": position.ID,
			"exit_price":  exitPrice,
			"pnl":         pnl,
		}).Info("position closed")
		return nil
	})
}
