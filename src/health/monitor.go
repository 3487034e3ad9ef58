package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"signalengine/src/model"
)

// LogWindow reads the recent webhook log slice the monitor derives its
// statistics from.
type LogWindow interface {
	Recent(ctx context.Context, limit int) ([]model.WebhookLogEntry, error)
	Stats(ctx context.Context) (*model.WebhookStatus, error)
}

// Monitor computes on-demand health snapshots from a bounded recent window
// of webhook log entries. It observes only; gating is the breaker's and
// pause switch's job.
type Monitor struct {
	logs    LogWindow
	breaker *CircuitBreaker
	pause   *PauseSwitch

	windowSize       int
	inactivity       time.Duration
	errorRateWarning float64
	now              func() time.Time
}

func NewMonitor(logs LogWindow, breaker *CircuitBreaker, pause *PauseSwitch, cfg Config) *Monitor {
	return &Monitor{
		logs:             logs,
		breaker:          breaker,
		pause:            pause,
		windowSize:       cfg.HealthWindow,
		inactivity:       cfg.InactivityThreshold,
		errorRateWarning: cfg.ErrorRateWarning,
		now:              time.Now,
	}
}

// Snapshot builds the health report: rolling success rate, latency
// aggregates, and a free-text issues list for operator triage.
func (m *Monitor) Snapshot(ctx context.Context) (*model.HealthSnapshot, error) {
	entries, err := m.logs.Recent(ctx, m.windowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook log window: %w", err)
	}

	now := m.now()
	snapshot := &model.HealthSnapshot{
		IsPaused:       m.pause.IsPaused(),
		CircuitOpen:    m.breaker.Open(),
		WindowRequests: len(entries),
		Issues:         []string{},
		GeneratedAt:    now,
	}

	if len(entries) > 0 {
		var success int
		var totalMs int64
		latencies := make([]int64, 0, len(entries))
		newest := entries[0].CreatedAt

		for _, entry := range entries {
			if entry.Status == model.WebhookStatusSuccess {
				success++
			}
			totalMs += entry.ProcessingTimeMs
			latencies = append(latencies, entry.ProcessingTimeMs)
			if entry.CreatedAt.After(newest) {
				newest = entry.CreatedAt
			}
		}

		snapshot.SuccessRate = float64(success) / float64(len(entries))
		snapshot.AvgLatencyMs = float64(totalMs) / float64(len(entries))
		snapshot.P95LatencyMs = float64(percentile(latencies, 0.95))

		failureRate := 1 - snapshot.SuccessRate
		if failureRate > m.errorRateWarning {
			snapshot.Issues = append(snapshot.Issues,
				fmt.Sprintf("error rate above %.0f%% (currently %.0f%%)", m.errorRateWarning*100, failureRate*100))
		}
		if quiet := now.Sub(newest); quiet > m.inactivity {
			snapshot.Issues = append(snapshot.Issues,
				fmt.Sprintf("no activity in %d minutes", int(quiet.Minutes())))
		}
	} else {
		snapshot.Issues = append(snapshot.Issues, "no webhook activity recorded")
	}

	if snapshot.CircuitOpen {
		rate, _ := m.breaker.FailureRate()
		snapshot.Issues = append(snapshot.Issues,
			fmt.Sprintf("circuit breaker open (failure rate %.0f%%)", rate*100))
	}
	if snapshot.IsPaused {
		snapshot.Issues = append(snapshot.Issues, "processing manually paused")
	}

	return snapshot, nil
}

// Status returns the aggregate counter view plus current gate states.
func (m *Monitor) Status(ctx context.Context) (*model.WebhookStatus, error) {
	status, err := m.logs.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook log stats: %w", err)
	}
	status.IsPaused = m.pause.IsPaused()
	status.CircuitOpen = m.breaker.Open()
	return status, nil
}

// percentile takes the pth value of the sorted latency slice using the
// nearest-rank method.
func percentile(values []int64, p float64) int64 {
	if len(values) == 0 {
		return 0
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	rank := int(p*float64(len(values))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(values) {
		rank = len(values) - 1
	}
	return values[rank]
}
