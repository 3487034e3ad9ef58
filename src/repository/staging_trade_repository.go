package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalengine/src/database"
	"signalengine/src/model"
)

var (
	ErrStagingTradeNotFound = errors.New("staging trade not found")
	// ErrTradeStillOpen guards the review workflow: a trade that has not
	// seen its exit signal can be neither approved nor rejected nor edited.
	ErrTradeStillOpen = errors.New("staging trade is still open")
	// ErrDeleteNotAllowed preserves the audit trail: only rejected rows may
	// be hard-deleted.
	ErrDeleteNotAllowed = errors.New("only rejected staging trades can be deleted")
)

// reviewableStatuses are the states an operator action may move away from.
var reviewableStatuses = []string{model.StagingStatusPending, model.StagingStatusEdited}

// StagingTradeListOptions filters the review queue listing. Open rows are
// always included regardless of the status filter so operators keep sight
// of resolving trades.
type StagingTradeListOptions struct {
	Status *string
	Limit  int
	Offset int
}

// StagingTradeRepository owns the reviewable trade ledger sitting between
// the matcher and the production trade store.
type StagingTradeRepository struct {
	db *gorm.DB
}

func NewStagingTradeRepository() *StagingTradeRepository {
	return &StagingTradeRepository{db: database.MainDB}
}

func (r *StagingTradeRepository) WithDB(db *gorm.DB) *StagingTradeRepository {
	return &StagingTradeRepository{db: db}
}

// FindByID fetches one staging trade, (nil, nil) when absent.
func (r *StagingTradeRepository) FindByID(ctx context.Context, id uint) (*model.StagingTrade, error) {
	var trade model.StagingTrade

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &trade, nil
}

// List returns the review queue newest first.
func (r *StagingTradeRepository) List(ctx context.Context, options StagingTradeListOptions) ([]model.StagingTrade, error) {
	limit := options.Limit
	if limit <= 0 {
		limit = 50 // default safety limit
	}

	query := r.db.WithContext(ctx).Model(&model.StagingTrade{})
	if options.Status != nil {
		query = query.Where("status = ? OR is_open = ?", *options.Status, true)
	}

	var trades []model.StagingTrade
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(options.Offset).
		Find(&trades).Error
	if err != nil {
		return nil, err
	}

	return trades, nil
}

// Stats aggregates queue counts for the admin dashboard.
func (r *StagingTradeRepository) Stats(ctx context.Context) (*model.StagingStats, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&model.StagingTrade{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	stats := &model.StagingStats{}
	for _, c := range counts {
		switch c.Status {
		case model.StagingStatusPending:
			stats.Pending = c.Count
		case model.StagingStatusEdited:
			stats.Edited = c.Count
		case model.StagingStatusApproved:
			stats.Approved = c.Count
		case model.StagingStatusRejected:
			stats.Rejected = c.Count
		}
	}

	err = r.db.WithContext(ctx).
		Model(&model.StagingTrade{}).
		Where("is_open = ?", true).
		Count(&stats.Open).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Approve copies the trade's current (possibly edited) fields into the
// production ledger and marks it approved, atomically. The status
// predicate turns races with a concurrent exit signal or another operator
// into ErrStaleState instead of double-promotion.
func (r *StagingTradeRepository) Approve(ctx context.Context, id uint) (*model.Trade, error) {
	var promoted *model.Trade

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		staging, err := loadForReview(tx, id)
		if err != nil {
			return err
		}
		if staging.ExitPrice == nil || staging.Pnl == nil || staging.ExitTime == nil {
			return ErrTradeStillOpen
		}

		result := tx.Model(&model.StagingTrade{}).
			Where("id = ? AND is_open = ? AND status IN ?", id, false, reviewableStatuses).
			Update("status", model.StagingStatusApproved)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		trade := &model.Trade{
			StrategyID:     staging.StrategyID,
			StrategySymbol: staging.StrategySymbol,
			Direction:      staging.Direction,
			EntryPrice:     staging.EntryPrice,
			ExitPrice:      *staging.ExitPrice,
			Quantity:       staging.Quantity,
			Pnl:            *staging.Pnl,
			Commission:     staging.Commission,
			EntryTime:      staging.EntryTime,
			ExitTime:       *staging.ExitTime,
			Source:         model.TradeSourceMatched,
		}
		if err := tx.Create(trade).Error; err != nil {
			return err
		}

		promoted = trade
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"staging_id": id,
		"trade_id":   promoted.ID,
		"strategy":   promoted.StrategySymbol,
	}).Info("staging trade approved")

	return promoted, nil
}

// Reject marks the trade rejected (terminal but deletable).
func (r *StagingTradeRepository) Reject(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadForReview(tx, id); err != nil {
			return err
		}

		result := tx.Model(&model.StagingTrade{}).
			Where("id = ? AND is_open = ? AND status IN ?", id, false, reviewableStatuses).
			Update("status", model.StagingStatusRejected)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}
		return nil
	})
}

// Edit applies the provided field overrides, appends review notes, and
// marks the row edited (still eligible for approve/reject). Edits never
// touch the raw signal data captured in the webhook log.
func (r *StagingTradeRepository) Edit(ctx context.Context, id uint, update model.StagingTradeUpdate, notes string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		staging, err := loadForReview(tx, id)
		if err != nil {
			return err
		}

		changes := map[string]any{"status": model.StagingStatusEdited}
		if update.EntryPrice != nil {
			changes["entry_price"] = *update.EntryPrice
		}
		if update.ExitPrice != nil {
			changes["exit_price"] = *update.ExitPrice
		}
		if update.Quantity != nil {
			changes["quantity"] = *update.Quantity
		}
		if update.Pnl != nil {
			changes["pnl"] = *update.Pnl
		}
		if update.Direction != nil {
			changes["direction"] = *update.Direction
		}
		if notes != "" {
			combined := notes
			if staging.ReviewNotes != "" {
				combined = staging.ReviewNotes + "\n" + notes
			}
			changes["review_notes"] = combined
		}

		result := tx.Model(&model.StagingTrade{}).
			Where("id = ? AND is_open = ? AND status IN ?", id, false, reviewableStatuses).
			Updates(changes)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}
		return nil
	})
}

// Delete hard-deletes a rejected trade. Approved, pending, and edited rows
// stay put to preserve the audit trail.
func (r *StagingTradeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var staging model.StagingTrade
		err := tx.Where("id = ?", id).First(&staging).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStagingTradeNotFound
			}
			return err
		}
		if staging.Status != model.StagingStatusRejected {
			return ErrDeleteNotAllowed
		}

		result := tx.
			Where("id = ? AND status = ?", id, model.StagingStatusRejected).
			Delete(&model.StagingTrade{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}
		return nil
	})
}

// loadForReview fetches a row and applies the shared review preconditions.
func loadForReview(tx *gorm.DB, id uint) (*model.StagingTrade, error) {
	var staging model.StagingTrade

	err := tx.Where("id = ?", id).First(&staging).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStagingTradeNotFound
		}
		return nil, err
	}

	if staging.IsOpen {
		return nil, ErrTradeStillOpen
	}
	switch staging.Status {
	case model.StagingStatusPending, model.StagingStatusEdited:
		return &staging, nil
	default:
		return nil, ErrStaleState
	}
}
