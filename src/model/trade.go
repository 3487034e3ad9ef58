package model

import "time"

const (
	TradeSourceMatched = "matched"
	TradeSourceImport  = "import"
)

// Trade is a row of the production trade ledger. Rows arrive either by
// approving a staging trade or through the bulk import path, which bypasses
// staging by design.
type Trade struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StrategyID     uint      `gorm:"index;not null" json:"strategy_id"`
	StrategySymbol string    `gorm:"size:50;index" json:"strategy_symbol"`
	Direction      string    `gorm:"size:10;not null" json:"direction"`
	EntryPrice     float64   `json:"entry_price"`
	ExitPrice      float64   `json:"exit_price"`
	Quantity       float64   `json:"quantity"`
	Pnl            float64   `json:"pnl"`
	Commission     float64   `gorm:"not null;default:0" json:"commission"`
	EntryTime      time.Time `json:"entry_time"`
	ExitTime       time.Time `json:"exit_time"`
	Source         string    `gorm:"size:20;not null;default:matched" json:"source"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// BulkTradeUpload is the bulk import request body. overwrite=true replaces
// the strategy's entire production history and is an explicitly confirmed,
// destructive operation at the UI boundary.
type BulkTradeUpload struct {
	StrategyID uint        `json:"strategy_id"`
	Overwrite  bool        `json:"overwrite"`
	Trades     []BulkTrade `json:"trades"`
}

type BulkTrade struct {
	Direction  string    `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	Pnl        float64   `json:"pnl"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
}
