package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"signalengine/src/model"
	"signalengine/src/pipeline"
)

func testBreakerConfig() Config {
	return Config{
		BreakerWindow:     10,
		BreakerThreshold:  0.5,
		BreakerMinSamples: 4,
		BreakerSampleTTL:  10 * time.Minute,
	}
}

func TestCircuitBreakerStaysClosedBelowMinSamples(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	cb.Record(true)
	cb.Record(true)
	cb.Record(true)

	if cb.Open() {
		t.Fatalf("breaker must not open below the minimum sample count")
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	cb.Record(true)
	cb.Record(true)
	cb.Record(false)
	cb.Record(true)

	if !cb.Open() {
		t.Fatalf("breaker should open at 75%% failure rate over 4 samples")
	}
	if err := cb.Allow(); !errors.Is(err, pipeline.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen from Allow, got %v", err)
	}
}

func TestCircuitBreakerRecoversStatistically(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	for i := 0; i < 5; i++ {
		cb.Record(true)
	}
	if !cb.Open() {
		t.Fatalf("breaker should be open after 5 failures")
	}

	// Fresh successes displace the failures in the ring.
	for i := 0; i < 9; i++ {
		cb.Record(false)
	}
	if cb.Open() {
		rate, samples := cb.FailureRate()
		t.Fatalf("breaker should close as the window refills, rate=%v samples=%d", rate, samples)
	}
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected Allow to pass, got %v", err)
	}
}

func TestCircuitBreakerExpiresStaleSamples(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	current := time.Now()
	cb.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		cb.Record(true)
	}
	if !cb.Open() {
		t.Fatalf("breaker should be open after 5 failures")
	}

	current = current.Add(11 * time.Minute)

	if cb.Open() {
		t.Fatalf("breaker must close once every failure in the window is stale")
	}
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected Allow to pass after the window aged out, got %v", err)
	}
	if _, samples := cb.FailureRate(); samples != 0 {
		t.Fatalf("expected no live samples, got %d", samples)
	}
}

func TestCircuitBreakerStateChangeCallback(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	var transitions []bool
	cb.OnStateChange(func(open bool, _ float64) {
		transitions = append(transitions, open)
	})

	for i := 0; i < 5; i++ {
		cb.Record(true)
	}
	for i := 0; i < 9; i++ {
		cb.Record(false)
	}

	if len(transitions) != 2 || transitions[0] != true || transitions[1] != false {
		t.Fatalf("expected open then close transitions, got %v", transitions)
	}
}

const breakerTestToken = "breaker-test-token"

type stubDirectory struct{ strat *model.Strategy }

func (d *stubDirectory) FindActiveBySymbol(_ context.Context, symbol string) (*model.Strategy, error) {
	if d.strat != nil && d.strat.Symbol == symbol {
		return d.strat, nil
	}
	return nil, nil
}

type stubMatchStore struct {
	open      *model.Position
	openCalls int
}

func (s *stubMatchStore) FindOpenByStrategy(_ context.Context, _ uint) (*model.Position, error) {
	return s.open, nil
}

func (s *stubMatchStore) OpenPosition(_ context.Context, position *model.Position, _ *model.StagingTrade) error {
	s.openCalls++
	s.open = position
	return nil
}

func (s *stubMatchStore) ClosePosition(_ context.Context, _ *model.Position, _, _ float64, _ time.Time) error {
	s.open = nil
	return nil
}

type stubLogStore struct{ entries int }

func (s *stubLogStore) Append(_ context.Context, _ *model.WebhookLogEntry) error {
	s.entries++
	return nil
}

func breakerTestAlert(token string) *model.AlertPayload {
	price := 4500.0
	qty := 2.0
	return &model.AlertPayload{
		Symbol:   "ESTrend",
		Date:     time.Now().UTC().Format(time.RFC3339),
		Data:     "buy",
		Position: "long",
		Quantity: &qty,
		Price:    &price,
		Token:    token,
	}
}

// The breaker is wired into the pipeline twice, as the gate and as the
// outcome recorder. Its own rejections must not count as failures, or the
// window would pin at 100% and the breaker would never close.
func TestCircuitBreakerRecoversWhileRejecting(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	current := time.Now()
	cb.now = func() time.Time { return current }

	hash, err := bcrypt.GenerateFromPassword([]byte(breakerTestToken), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test token: %v", err)
	}
	directory := &stubDirectory{strat: &model.Strategy{
		ID: 1, Symbol: "ESTrend", Active: true,
		QuantityMode: model.QuantityModeDynamic, QuantityMultiplier: 1,
	}}
	store := &stubMatchStore{}
	logs := &stubLogStore{}
	dedup := pipeline.NewDuplicateFilter(pipeline.Config{
		ReplayWindow:           24 * time.Hour,
		ReplayMaxAge:           5 * time.Minute,
		FingerprintGranularity: time.Minute,
	})
	proc := pipeline.NewProcessor(
		pipeline.NewValidator(string(hash), directory),
		dedup, store, logs, cb, nil, cb,
	)

	for i := 0; i < 4; i++ {
		resp := proc.Process(context.Background(), breakerTestAlert("wrong-token"))
		if resp.Status != model.WebhookOutcomeRejected {
			t.Fatalf("expected auth rejection, got %s", resp.Status)
		}
	}
	if !cb.Open() {
		t.Fatalf("breaker should open after repeated auth failures")
	}

	for i := 0; i < 100; i++ {
		resp := proc.Process(context.Background(), breakerTestAlert(breakerTestToken))
		if resp.Error != pipeline.ErrCircuitOpen.Error() {
			t.Fatalf("expected circuit-open rejection, got %q", resp.Error)
		}
	}
	if _, samples := cb.FailureRate(); samples != 4 {
		t.Fatalf("open breaker must not record its own rejections, samples=%d", samples)
	}

	current = current.Add(11 * time.Minute)

	resp := proc.Process(context.Background(), breakerTestAlert(breakerTestToken))
	if resp.Status != model.WebhookOutcomeProcessed {
		t.Fatalf("expected processed alert after the failures aged out, got %s (%s)", resp.Status, resp.Error)
	}
	if store.openCalls != 1 {
		t.Fatalf("expected one opened position, got %d", store.openCalls)
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	for i := 0; i < 5; i++ {
		cb.Record(true)
	}
	if !cb.Open() {
		t.Fatalf("breaker should be open before reset")
	}

	cb.Reset()

	if cb.Open() {
		t.Fatalf("breaker must be closed after reset")
	}
	if _, samples := cb.FailureRate(); samples != 0 {
		t.Fatalf("expected empty window after reset, got %d samples", samples)
	}
}
