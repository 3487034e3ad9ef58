package pipeline

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"signalengine/src/model"
)

// MatchAction says what the processor has to persist for a match result.
type MatchAction string

const (
	MatchActionOpen  MatchAction = "open"
	MatchActionClose MatchAction = "close"
)

// MatchResult is the outcome of feeding one signal through the per-strategy
// state machine. Match itself is pure; the caller applies the result
// transactionally while holding the strategy's lock.
type MatchResult struct {
	Action MatchAction

	// Open transition: the position to create and its visibility
	// placeholder in the staging ledger.
	Position     *model.Position
	StagingTrade *model.StagingTrade

	// Close transition: the fill resolving the open position.
	ExitPrice float64
	ExitTime  time.Time
	Pnl       float64
}

// Match advances the strategy's Flat/InPosition state machine by one
// signal. open is nil when the strategy is flat. The existing position is
// never mutated on error, so a corrective alert can still succeed.
func Match(open *model.Position, sig *model.Signal) (*MatchResult, error) {
	switch sig.Kind {
	case model.SignalKindEntry:
		if open != nil {
			return nil, fmt.Errorf("%w: %s", ErrPositionAlreadyOpen, sig.StrategySymbol)
		}
		return openResult(sig), nil

	case model.SignalKindExit:
		if open == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoOpenPosition, sig.StrategySymbol)
		}
		return closeResult(open, sig), nil

	default:
		return nil, fmt.Errorf("%w: unresolved signal kind %q", ErrMalformedPayload, sig.Kind)
	}
}

func openResult(sig *model.Signal) *MatchResult {
	position := &model.Position{
		StrategyID:     sig.StrategyID,
		StrategySymbol: sig.StrategySymbol,
		Direction:      sig.Direction,
		EntryPrice:     sig.Price,
		Quantity:       sig.Quantity,
		EntryTime:      sig.ClientTime,
		SignalID:       sig.RequestID,
		Status:         model.PositionStatusOpen,
	}

	staging := &model.StagingTrade{
		StrategyID:     sig.StrategyID,
		StrategySymbol: sig.StrategySymbol,
		Direction:      sig.Direction,
		EntryPrice:     sig.Price,
		Quantity:       sig.Quantity,
		EntryTime:      sig.ClientTime,
		IsOpen:         true,
		Status:         model.StagingStatusPending,
	}

	return &MatchResult{
		Action:       MatchActionOpen,
		Position:     position,
		StagingTrade: staging,
	}
}

func closeResult(open *model.Position, sig *model.Signal) *MatchResult {
	return &MatchResult{
		Action:    MatchActionClose,
		Position:  open,
		ExitPrice: sig.Price,
		ExitTime:  sig.ClientTime,
		Pnl:       ComputePnl(open.Direction, open.EntryPrice, sig.Price, open.Quantity),
	}
}

// ComputePnl is (exit − entry) × qty × direction sign, commission zero.
// Decimal arithmetic avoids float drift on price differences.
func ComputePnl(direction string, entryPrice, exitPrice, quantity float64) float64 {
	diff := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(entryPrice))
	pnl := diff.Mul(decimal.NewFromFloat(quantity))
	if direction == model.DirectionShort {
		pnl = pnl.Neg()
	}
	value, _ := pnl.Float64()
	return value
}
