package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"signalengine/src/model"
)

// Gate is checked before the pipeline runs. Both the manual pause switch
// and the circuit breaker sit behind this interface.
type Gate interface {
	Allow() error
}

// MatchStore persists match results. Open and close are transactional: a
// position and its staging row move together or not at all.
type MatchStore interface {
	FindOpenByStrategy(ctx context.Context, strategyID uint) (*model.Position, error)
	OpenPosition(ctx context.Context, position *model.Position, placeholder *model.StagingTrade) error
	ClosePosition(ctx context.Context, position *model.Position, exitPrice, pnl float64, exitTime time.Time) error
}

// LogStore appends webhook log entries.
type LogStore interface {
	Append(ctx context.Context, entry *model.WebhookLogEntry) error
}

// OutcomeRecorder receives one observation per request that passed the
// gates; the circuit breaker's rolling window lives behind it.
type OutcomeRecorder interface {
	Record(failed bool)
}

// Broadcaster pushes pipeline events to live admin clients. Implementations
// must not block the caller.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// Processor runs the full ingestion pipeline for one inbound alert:
// gates, validation, duplicate filtering, per-strategy matching,
// persistence, and exactly one webhook log entry per request.
type Processor struct {
	gates     []Gate
	validator *Validator
	dedup     *DuplicateFilter
	locks     *KeyedMutex
	store     MatchStore
	logs      LogStore
	recorder  OutcomeRecorder
	broadcast Broadcaster
	now       func() time.Time
}

func NewProcessor(
	validator *Validator,
	dedup *DuplicateFilter,
	store MatchStore,
	logs LogStore,
	recorder OutcomeRecorder,
	broadcast Broadcaster,
	gates ...Gate,
) *Processor {
	return &Processor{
		gates:     gates,
		validator: validator,
		dedup:     dedup,
		locks:     NewKeyedMutex(),
		store:     store,
		logs:      logs,
		recorder:  recorder,
		broadcast: broadcast,
		now:       time.Now,
	}
}

// Process never returns an error: every outcome, including gate rejections
// and validation failures, becomes a structured response plus a webhook log
// entry.
func (p *Processor) Process(ctx context.Context, payload *model.AlertPayload) *model.WebhookResponse {
	started := p.now()
	requestID := uuid.NewString()

	entry := &model.WebhookLogEntry{
		RequestID: requestID,
		CreatedAt: started,
	}
	if payload != nil {
		entry.StrategySymbol = payload.Symbol
	}

	for _, gate := range p.gates {
		if err := gate.Allow(); err != nil {
			// Gate rejections never enter the pipeline and must not feed
			// the breaker window, or an open breaker would count its own
			// rejections as failures and latch open.
			return p.finish(ctx, entry, started, model.WebhookStatusFailed, err, false)
		}
	}

	sig, err := p.validator.Validate(ctx, payload)
	if err != nil {
		return p.finish(ctx, entry, started, model.WebhookStatusFailed, err, true)
	}
	sig.RequestID = requestID
	entry.StrategySymbol = sig.StrategySymbol
	entry.Direction = sig.Direction

	if err := p.dedup.Check(sig); err != nil {
		if errors.Is(err, ErrDuplicateSignal) {
			return p.finish(ctx, entry, started, model.WebhookStatusDuplicate, err, true)
		}
		return p.finish(ctx, entry, started, model.WebhookStatusFailed, err, true)
	}

	var result *MatchResult
	err = p.locks.WithLock(sig.StrategyID, func() error {
		open, err := p.store.FindOpenByStrategy(ctx, sig.StrategyID)
		if err != nil {
			return err
		}

		result, err = Match(open, sig)
		if err != nil {
			return err
		}

		switch result.Action {
		case MatchActionOpen:
			return p.store.OpenPosition(ctx, result.Position, result.StagingTrade)
		case MatchActionClose:
			return p.store.ClosePosition(ctx, result.Position, result.ExitPrice, result.Pnl, result.ExitTime)
		}
		return nil
	})
	if err != nil {
		return p.finish(ctx, entry, started, model.WebhookStatusFailed, err, true)
	}

	switch result.Action {
	case MatchActionOpen:
		entry.EntryPrice = &result.Position.EntryPrice
		p.emit("position_opened", result.Position)
	case MatchActionClose:
		entry.EntryPrice = &result.Position.EntryPrice
		pnl := result.Pnl
		entry.Pnl = &pnl
		p.emit("trade_closed", map[string]any{
			"strategy_symbol": sig.StrategySymbol,
			"direction":       result.Position.Direction,
			"entry_price":     result.Position.EntryPrice,
			"exit_price":      result.ExitPrice,
			"quantity":        result.Position.Quantity,
			"pnl":             pnl,
		})
	}

	return p.finish(ctx, entry, started, model.WebhookStatusSuccess, nil, true)
}

// finish writes the single webhook log entry for the request and shapes the
// caller-facing response. record is false for gate rejections; only requests
// that entered the pipeline count toward the rolling outcome window.
func (p *Processor) finish(ctx context.Context, entry *model.WebhookLogEntry, started time.Time, status string, cause error, record bool) *model.WebhookResponse {
	elapsed := p.now().Sub(started).Milliseconds()

	entry.Status = status
	entry.ProcessingTimeMs = elapsed
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}

	if err := p.logs.Append(ctx, entry); err != nil {
		logger.WithError(err).WithField("request_id", entry.RequestID).
			Error("failed to append webhook log entry")
	}

	if record && p.recorder != nil {
		p.recorder.Record(status == model.WebhookStatusFailed)
	}

	resp := &model.WebhookResponse{
		RequestID:        entry.RequestID,
		ProcessingTimeMs: elapsed,
	}
	switch status {
	case model.WebhookStatusSuccess:
		resp.Status = model.WebhookOutcomeProcessed
	case model.WebhookStatusDuplicate:
		resp.Status = model.WebhookOutcomeDuplicate
	default:
		resp.Status = model.WebhookOutcomeRejected
	}
	if cause != nil {
		resp.Error = cause.Error()

		logger.WithFields(logger.Fields{
			"request_id": entry.RequestID,
			"strategy":   entry.StrategySymbol,
			"status":     status,
		}).WithError(cause).Warn("webhook request not processed")
	}

	return resp
}

func (p *Processor) emit(event string, payload any) {
	if p.broadcast != nil {
		p.broadcast.Broadcast(event, payload)
	}
}
