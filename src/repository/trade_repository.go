package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalengine/src/database"
	"signalengine/src/model"
)

// TradeRepository is the production trade store: the append-only target of
// staging approvals and the bulk import path.
type TradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{db: database.MainDB}
}

func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// ListByStrategy returns a strategy's production trades newest first.
func (r *TradeRepository) ListByStrategy(ctx context.Context, strategyID uint, limit int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 100
	}

	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Where("strategy_id = ?", strategyID).
		Order("exit_time DESC, id DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// BulkImport inserts imported trades for a strategy. With overwrite set it
// first deletes the strategy's entire production history inside the same
// transaction — a destructive operation confirmed at the UI boundary.
// Returns the number of deleted and inserted rows.
func (r *TradeRepository) BulkImport(ctx context.Context, strategy *model.Strategy, rows []model.BulkTrade, overwrite bool) (int64, int64, error) {
	var deleted int64
	var inserted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if overwrite {
			result := tx.
				Where("strategy_id = ?", strategy.ID).
				Delete(&model.Trade{})
			if result.Error != nil {
				return result.Error
			}
			deleted = result.RowsAffected
		}

		if len(rows) == 0 {
			return nil
		}

		trades := make([]model.Trade, 0, len(rows))
		for _, row := range rows {
			trades = append(trades, model.Trade{
				StrategyID:     strategy.ID,
				StrategySymbol: strategy.Symbol,
				Direction:      row.Direction,
				EntryPrice:     row.EntryPrice,
				ExitPrice:      row.ExitPrice,
				Quantity:       row.Quantity,
				Pnl:            row.Pnl,
				EntryTime:      row.EntryTime,
				ExitTime:       row.ExitTime,
				Source:         model.TradeSourceImport,
			})
		}

		if err := tx.Create(&trades).Error; err != nil {
			return err
		}
		inserted = int64(len(trades))
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	logger.WithFields(logger.Fields{
		"strategy":  strategy.Symbol,
		"deleted":   deleted,
		"inserted":  inserted,
		"overwrite": overwrite,
	}).Info("bulk trade import completed")

	return deleted, inserted, nil
}
