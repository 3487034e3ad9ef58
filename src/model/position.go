package model

import "time"

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

// Position is an open trade in progress. At most one open position exists
// per strategy at any time. Rows are immutable while open; a matching exit
// signal marks them closed instead of deleting them, preserving history.
type Position struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StrategyID     uint       `gorm:"index;not null" json:"strategy_id"`
	StrategySymbol string     `gorm:"size:50;index" json:"strategy_symbol"`
	Direction      string     `gorm:"size:10;not null" json:"direction"`
	EntryPrice     float64    `json:"entry_price"`
	Quantity       float64    `json:"quantity"`
	EntryTime      time.Time  `json:"entry_time"`
	SignalID       string     `gorm:"size:64" json:"signal_id"`
	Status         string     `gorm:"size:20;not null;default:open;index" json:"status"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}
