package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"signalengine/src/model"
)

type mockHealthReporter struct {
	snapshot *model.HealthSnapshot
	status   *model.WebhookStatus
	err      error
}

func (m *mockHealthReporter) Snapshot(_ context.Context) (*model.HealthSnapshot, error) {
	return m.snapshot, m.err
}

func (m *mockHealthReporter) Status(_ context.Context) (*model.WebhookStatus, error) {
	return m.status, m.err
}

type mockToggle struct {
	paused bool
	err    error
}

func (m *mockToggle) Pause(_ context.Context) error {
	if m.err == nil {
		m.paused = true
	}
	return m.err
}

func (m *mockToggle) Resume(_ context.Context) error {
	if m.err == nil {
		m.paused = false
	}
	return m.err
}

func TestWebhookHealthHandler(t *testing.T) {
	monitor := &mockHealthReporter{snapshot: &model.HealthSnapshot{
		SuccessRate:    0.95,
		WindowRequests: 100,
		Issues:         []string{},
		GeneratedAt:    time.Now(),
	}}
	handler := WebhookHealthHandler(monitor)

	req := httptest.NewRequest(http.MethodGet, "/api/webhook/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var snapshot model.HealthSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snapshot.SuccessRate != 0.95 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestWebhookStatusHandler_Error(t *testing.T) {
	handler := WebhookStatusHandler(&mockHealthReporter{err: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/api/webhook/status", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

func TestPauseResumeHandlers(t *testing.T) {
	toggle := &mockToggle{}

	req := httptest.NewRequest(http.MethodPost, "/api/processing/pause", nil)
	rr := httptest.NewRecorder()
	PauseProcessingHandler(toggle).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !toggle.paused {
		t.Fatalf("expected toggle to be paused")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/processing/resume", nil)
	rr = httptest.NewRecorder()
	ResumeProcessingHandler(toggle).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if toggle.paused {
		t.Fatalf("expected toggle to be resumed")
	}
}

func TestPauseProcessingHandler_Error(t *testing.T) {
	handler := PauseProcessingHandler(&mockToggle{err: assert.AnError})

	req := httptest.NewRequest(http.MethodPost, "/api/processing/pause", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
