package model

import "time"

const (
	DirectionLong  = "Long"
	DirectionShort = "Short"
)

// SignalKind tags a normalized alert as opening or closing a position.
// It is resolved once, during validation; nothing downstream re-derives
// intent from raw payload fields.
type SignalKind string

const (
	SignalKindEntry SignalKind = "entry"
	SignalKindExit  SignalKind = "exit"
)

// AlertPayload is the raw JSON body posted by the charting platform.
// When signalType is absent, data/position jointly determine entry vs exit
// (position turning "flat" means exit).
type AlertPayload struct {
	Symbol             string   `json:"symbol"`
	Date               string   `json:"date"`
	Data               string   `json:"data"`
	Position           string   `json:"position"`
	Quantity           *float64 `json:"quantity"`
	Price              *float64 `json:"price"`
	EntryPrice         *float64 `json:"entryPrice,omitempty"`
	Pnl                *float64 `json:"pnl,omitempty"`
	Token              string   `json:"token"`
	SignalType         string   `json:"signalType,omitempty"`
	QuantityMultiplier *float64 `json:"quantityMultiplier,omitempty"`
}

// Signal is the normalized, authenticated form of one inbound alert.
// Quantity is already scaled by the strategy's sizing policy. Signals are
// ephemeral; only the webhook log keeps a trace of them.
type Signal struct {
	RequestID      string
	StrategyID     uint
	StrategySymbol string
	Kind           SignalKind
	// Direction is empty on exit signals that only declare "flat"; the
	// matcher resolves it from the open position.
	Direction  string
	Price      float64
	Quantity   float64
	ClientTime time.Time
	ReceivedAt time.Time
	Raw        string
}

// WebhookResponse is returned to the alert source for every inbound request.
type WebhookResponse struct {
	Status           string `json:"status"` // processed, duplicate, rejected
	RequestID        string `json:"request_id"`
	Error            string `json:"error,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeRejected  = "rejected"
)
