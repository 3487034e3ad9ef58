package model

import "time"

const (
	QuantityModeDynamic = "dynamic"
	QuantityModeFixed   = "fixed"
)

// Strategy is one entry of the strategy directory: the alert symbol it is
// keyed by, whether it is accepting signals, and its position sizing policy.
type Strategy struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Symbol      string `gorm:"size:50;uniqueIndex;not null" json:"symbol"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:512" json:"description"`
	Active      bool   `gorm:"not null;default:true" json:"active"`

	// QuantityMode selects sizing: "fixed" replaces the alert quantity with
	// FixedQuantity, "dynamic" scales the alert quantity by QuantityMultiplier.
	QuantityMode       string  `gorm:"size:20;not null;default:dynamic" json:"quantity_mode"`
	FixedQuantity      float64 `gorm:"not null;default:1" json:"fixed_quantity"`
	QuantityMultiplier float64 `gorm:"not null;default:1" json:"quantity_multiplier"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Strategy) TableName() string {
	return "strategies"
}
