package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signalengine/src/database"
	"signalengine/src/model"
)

// WebhookLogQueryOptions filters the log listing. Search matches either
// the strategy symbol or the error message as a substring.
type WebhookLogQueryOptions struct {
	Status *string
	Search string
	Limit  int
}

// WebhookLogRepository is the append-only record of every inbound request.
type WebhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository() *WebhookLogRepository {
	return &WebhookLogRepository{db: database.MainDB}
}

func (r *WebhookLogRepository) WithDB(db *gorm.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

// Append writes one entry. Called exactly once per inbound request.
func (r *WebhookLogRepository) Append(ctx context.Context, entry *model.WebhookLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Query lists entries newest first, read-only.
func (r *WebhookLogRepository) Query(ctx context.Context, options WebhookLogQueryOptions) ([]model.WebhookLogEntry, error) {
	limit := options.Limit
	if limit <= 0 {
		limit = 100 // default safety limit
	}

	query := r.db.WithContext(ctx).Model(&model.WebhookLogEntry{})

	if options.Status != nil {
		query = query.Where("status = ?", *options.Status)
	}
	if options.Search != "" {
		pattern := "%" + options.Search + "%"
		query = query.Where("strategy_symbol LIKE ? OR error_message LIKE ?", pattern, pattern)
	}

	var entries []model.WebhookLogEntry
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Recent returns the newest entries for the health monitor window.
func (r *WebhookLogRepository) Recent(ctx context.Context, limit int) ([]model.WebhookLogEntry, error) {
	return r.Query(ctx, WebhookLogQueryOptions{Limit: limit})
}

// Stats aggregates per-status counts and the most recent request time.
func (r *WebhookLogRepository) Stats(ctx context.Context) (*model.WebhookStatus, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&model.WebhookLogEntry{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	status := &model.WebhookStatus{}
	for _, c := range counts {
		status.TotalRequests += c.Count
		switch c.Status {
		case model.WebhookStatusSuccess:
			status.SuccessCount = c.Count
		case model.WebhookStatusFailed:
			status.FailedCount = c.Count
		case model.WebhookStatusDuplicate:
			status.DuplicateCount = c.Count
		}
	}

	if status.TotalRequests > 0 {
		var latest model.WebhookLogEntry
		err = r.db.WithContext(ctx).
			Order("created_at DESC, id DESC").
			First(&latest).Error
		if err != nil {
			return nil, err
		}
		status.LastReceivedAt = &latest.CreatedAt
	}

	return status, nil
}

// Clear deletes all entries. Admin-confirmed, destructive, irreversible;
// the caller is responsible for resetting the breaker window alongside.
func (r *WebhookLogRepository) Clear(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&model.WebhookLogEntry{})
	if result.Error != nil {
		return 0, result.Error
	}

	logger.WithField("deleted", result.RowsAffected).Warn("webhook log cleared")
	return result.RowsAffected, nil
}
