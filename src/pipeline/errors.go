package pipeline

import "errors"

// Pipeline error taxonomy. Every error here is caught at the ingestion
// boundary, turned into a webhook log row, and returned to the caller as a
// structured failure; none of them crash the process or leave a
// half-updated position.
var (
	// Bad input, always rejected, logged failed.
	ErrAuth             = errors.New("invalid or missing webhook token")
	ErrUnknownStrategy  = errors.New("strategy symbol not recognized or inactive")
	ErrMalformedPayload = errors.New("malformed payload")

	// Benign replay outcomes, no state mutation.
	ErrDuplicateSignal = errors.New("duplicate signal inside replay window")
	ErrReplayTooOld    = errors.New("declared timestamp older than replay threshold")

	// Matcher state violations. The existing position is left untouched so
	// a corrective alert can still succeed.
	ErrPositionAlreadyOpen = errors.New("position already open for strategy")
	ErrNoOpenPosition      = errors.New("no open position for strategy")

	// Gate rejections, pipeline never entered.
	ErrProcessingPaused = errors.New("processing manually paused")
	ErrCircuitOpen      = errors.New("circuit breaker open")
)
