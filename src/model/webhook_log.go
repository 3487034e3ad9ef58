package model

import "time"

const (
	WebhookStatusSuccess   = "success"
	WebhookStatusFailed    = "failed"
	WebhookStatusDuplicate = "duplicate"
)

// WebhookLogEntry is the immutable record of one inbound request, written
// exactly once regardless of outcome. It is the sole input to the circuit
// breaker and health monitor rolling windows.
type WebhookLogEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RequestID        string    `gorm:"size:64;index" json:"request_id"`
	Status           string    `gorm:"size:20;not null;index" json:"status"`
	StrategySymbol   string    `gorm:"size:50;index" json:"strategy_symbol"`
	Direction        string    `gorm:"size:10" json:"direction"`
	EntryPrice       *float64  `json:"entry_price,omitempty"`
	Pnl              *float64  `json:"pnl,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	ErrorMessage     string    `gorm:"size:1024" json:"error_message"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (WebhookLogEntry) TableName() string {
	return "webhook_logs"
}
