package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"signalengine/src/model"
	"signalengine/src/security"
)

// StrategyDirectory resolves an alert symbol to a configured strategy.
// Implementations return (nil, nil) when the symbol is unknown.
type StrategyDirectory interface {
	FindActiveBySymbol(ctx context.Context, symbol string) (*model.Strategy, error)
}

// Validator authenticates and normalizes raw alert payloads. Validation is
// pure: it commits nothing, which is what lets the dry-run endpoint share
// this exact code path with the live pipeline.
type Validator struct {
	tokenHash  string
	strategies StrategyDirectory
	now        func() time.Time
}

// NewValidator takes the bcrypt hash of the deployment's shared webhook
// token and the strategy directory to resolve symbols against.
func NewValidator(tokenHash string, strategies StrategyDirectory) *Validator {
	return &Validator{
		tokenHash:  tokenHash,
		strategies: strategies,
		now:        time.Now,
	}
}

// Validate verifies token and strategy, checks required fields, resolves
// the signal kind and direction, and applies the strategy's quantity
// policy. The returned Signal is fully normalized; the matcher never looks
// at raw payload fields again.
func (v *Validator) Validate(ctx context.Context, payload *model.AlertPayload) (*model.Signal, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	if payload.Token == "" {
		return nil, fmt.Errorf("%w: token missing", ErrAuth)
	}
	if !security.VerifyToken(v.tokenHash, payload.Token) {
		return nil, ErrAuth
	}

	symbol := strings.TrimSpace(payload.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol missing", ErrMalformedPayload)
	}

	strat, err := v.strategies.FindActiveBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("strategy lookup failed: %w", err)
	}
	if strat == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, symbol)
	}

	if payload.Price == nil || *payload.Price <= 0 {
		return nil, fmt.Errorf("%w: price missing or non-positive", ErrMalformedPayload)
	}

	kind, err := resolveKind(payload)
	if err != nil {
		return nil, err
	}

	direction, err := resolveDirection(payload, kind)
	if err != nil {
		return nil, err
	}

	quantity, err := resolveQuantity(payload, strat, kind)
	if err != nil {
		return nil, err
	}

	now := v.now()

	clientTime, err := parseClientTime(payload.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if clientTime.IsZero() {
		clientTime = now
	}

	raw, _ := json.Marshal(payload)

	sig := &model.Signal{
		StrategyID:     strat.ID,
		StrategySymbol: strat.Symbol,
		Kind:           kind,
		Direction:      direction,
		Price:          *payload.Price,
		Quantity:       quantity,
		ClientTime:     clientTime,
		ReceivedAt:     now,
		Raw:            string(raw),
	}

	logger.WithFields(logger.Fields{
		"strategy": strat.Symbol,
		"kind":     kind,
		"price":    sig.Price,
		"quantity": sig.Quantity,
	}).Debug("alert payload validated")

	return sig, nil
}

// resolveKind prefers the explicit signalType and otherwise infers exit
// from the position field turning flat.
func resolveKind(payload *model.AlertPayload) (model.SignalKind, error) {
	switch strings.ToLower(strings.TrimSpace(payload.SignalType)) {
	case "entry":
		return model.SignalKindEntry, nil
	case "exit":
		return model.SignalKindExit, nil
	case "":
		// fall through to position inference
	default:
		return "", fmt.Errorf("%w: unknown signalType %q", ErrMalformedPayload, payload.SignalType)
	}

	position := strings.ToLower(strings.TrimSpace(payload.Position))
	if position == "" {
		return "", fmt.Errorf("%w: neither signalType nor position present", ErrMalformedPayload)
	}
	if position == "flat" {
		return model.SignalKindExit, nil
	}
	return model.SignalKindEntry, nil
}

// resolveDirection maps position/data wording onto Long/Short. Exit alerts
// are allowed to omit it; the matcher takes direction from the open
// position in that case.
func resolveDirection(payload *model.AlertPayload, kind model.SignalKind) (string, error) {
	switch strings.ToLower(strings.TrimSpace(payload.Position)) {
	case "long":
		return model.DirectionLong, nil
	case "short":
		return model.DirectionShort, nil
	}

	switch strings.ToLower(strings.TrimSpace(payload.Data)) {
	case "buy", "long":
		return model.DirectionLong, nil
	case "sell", "short":
		return model.DirectionShort, nil
	}

	if kind == model.SignalKindExit {
		return "", nil
	}
	return "", fmt.Errorf("%w: entry signal without direction", ErrMalformedPayload)
}

// resolveQuantity applies the sizing policy once, before matching. Fixed
// mode replaces the alert quantity entirely; the multiplier only applies in
// dynamic mode, with a payload-level override winning over the strategy's.
func resolveQuantity(payload *model.AlertPayload, strat *model.Strategy, kind model.SignalKind) (float64, error) {
	if strat.QuantityMode == model.QuantityModeFixed {
		if strat.FixedQuantity <= 0 {
			return 0, fmt.Errorf("%w: strategy fixed quantity not configured", ErrMalformedPayload)
		}
		return strat.FixedQuantity, nil
	}

	if payload.Quantity == nil || *payload.Quantity <= 0 {
		if kind == model.SignalKindExit {
			// exit consumes whatever the open position holds
			return 0, nil
		}
		return 0, fmt.Errorf("%w: quantity missing or non-positive", ErrMalformedPayload)
	}

	multiplier := strat.QuantityMultiplier
	if payload.QuantityMultiplier != nil && *payload.QuantityMultiplier > 0 {
		multiplier = *payload.QuantityMultiplier
	}
	if multiplier <= 0 {
		multiplier = 1
	}

	return *payload.Quantity * multiplier, nil
}

// parseClientTime handles the timestamp formats the charting platform is
// known to emit.
func parseClientTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", raw, lastErr)
}
