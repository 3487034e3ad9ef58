package model

import "time"

// HealthSnapshot is derived on demand from the recent webhook log window;
// it is never stored.
type HealthSnapshot struct {
	IsPaused       bool      `json:"is_paused"`
	CircuitOpen    bool      `json:"circuit_open"`
	SuccessRate    float64   `json:"success_rate"`
	AvgLatencyMs   float64   `json:"avg_latency_ms"`
	P95LatencyMs   float64   `json:"p95_latency_ms"`
	WindowRequests int       `json:"window_requests"`
	Issues         []string  `json:"issues"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// WebhookStatus is the aggregate counter view shown on the admin dashboard.
type WebhookStatus struct {
	IsPaused       bool       `json:"is_paused"`
	CircuitOpen    bool       `json:"circuit_open"`
	TotalRequests  int64      `json:"total_requests"`
	SuccessCount   int64      `json:"success_count"`
	FailedCount    int64      `json:"failed_count"`
	DuplicateCount int64      `json:"duplicate_count"`
	LastReceivedAt *time.Time `json:"last_received_at,omitempty"`
}
