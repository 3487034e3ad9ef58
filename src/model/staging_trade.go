package model

import "time"

const (
	StagingStatusPending  = "pending"
	StagingStatusEdited   = "edited"
	StagingStatusApproved = "approved"
	StagingStatusRejected = "rejected"
)

// StagingTrade is a matched trade awaiting operator review before it is
// copied into the production trade store. An entry signal creates an
// isOpen=true placeholder immediately; the matching exit fills exit fields
// and flips isOpen off. Open rows can never be approved or rejected.
type StagingTrade struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StrategyID     uint       `gorm:"index;not null" json:"strategy_id"`
	PositionID     *uint      `gorm:"index" json:"position_id,omitempty"`
	StrategySymbol string     `gorm:"size:50;index" json:"strategy_symbol"`
	Direction      string     `gorm:"size:10;not null" json:"direction"`
	EntryPrice     float64    `json:"entry_price"`
	ExitPrice      *float64   `json:"exit_price,omitempty"`
	Quantity       float64    `json:"quantity"`
	Pnl            *float64   `json:"pnl,omitempty"`
	Commission     float64    `gorm:"not null;default:0" json:"commission"`
	EntryTime      time.Time  `json:"entry_time"`
	ExitTime       *time.Time `json:"exit_time,omitempty"`
	IsOpen         bool       `gorm:"not null;default:false;index" json:"is_open"`
	Status         string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	ReviewNotes    string     `gorm:"size:2048" json:"review_notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (StagingTrade) TableName() string {
	return "staging_trades"
}

// StagingTradeUpdate carries the reviewable field overrides applied by an
// operator edit. Nil fields are left untouched; edits never alter the
// original raw signal data captured in the webhook log.
type StagingTradeUpdate struct {
	EntryPrice *float64 `json:"entry_price,omitempty"`
	ExitPrice  *float64 `json:"exit_price,omitempty"`
	Quantity   *float64 `json:"quantity,omitempty"`
	Pnl        *float64 `json:"pnl,omitempty"`
	Direction  *string  `json:"direction,omitempty"`
}

// StagingStats summarizes the review queue for the admin dashboard.
type StagingStats struct {
	Pending  int64 `json:"pending"`
	Edited   int64 `json:"edited"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Open     int64 `json:"open"`
}
