package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"signalengine/src/model"
)

type mockPositionStore struct {
	positions []model.Position
	position  *model.Position
	err       error
	closeErr  error

	closedPrice float64
	closedPnl   float64
	closeCalls  int
}

func (m *mockPositionStore) ListOpen(_ context.Context, _ *string) ([]model.Position, error) {
	return m.positions, m.err
}

func (m *mockPositionStore) FindByID(_ context.Context, _ uint) (*model.Position, error) {
	return m.position, m.err
}

func (m *mockPositionStore) ClosePosition(_ context.Context, _ *model.Position, exitPrice, pnl float64, _ time.Time) error {
	m.closeCalls++
	m.closedPrice = exitPrice
	m.closedPnl = pnl
	return m.closeErr
}

func positionsRouter(repo positionStore) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/positions", ListOpenPositionsHandler(repo))
	r.Post("/api/positions/{id}/close", ClosePositionHandler(repo))
	return r
}

func TestListOpenPositionsHandler(t *testing.T) {
	mockRepo := &mockPositionStore{positions: []model.Position{{ID: 1, StrategySymbol: "ESTrend", Status: model.PositionStatusOpen}}}
	router := positionsRouter(mockRepo)

	req := httptest.NewRequest(http.MethodGet, "/api/positions?symbol=ESTrend", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() == "" {
		t.Fatalf("expected response body to be set")
	}
}

func TestClosePositionHandler(t *testing.T) {
	openPos := func() *model.Position {
		return &model.Position{
			ID:             3,
			StrategySymbol: "ESTrend",
			Direction:      model.DirectionLong,
			EntryPrice:     4500,
			Quantity:       2,
			Status:         model.PositionStatusOpen,
		}
	}

	t.Run("closes at the supplied price", func(t *testing.T) {
		mockRepo := &mockPositionStore{position: openPos()}
		router := positionsRouter(mockRepo)

		req := httptest.NewRequest(http.MethodPost, "/api/positions/3/close", strings.NewReader(`{"exit_price":4520}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if mockRepo.closeCalls != 1 {
			t.Fatalf("expected one close call, got %d", mockRepo.closeCalls)
		}
		if mockRepo.closedPrice != 4520 || mockRepo.closedPnl != 40.0 {
			t.Fatalf("unexpected close values: price=%v pnl=%v", mockRepo.closedPrice, mockRepo.closedPnl)
		}
	})

	t.Run("unknown position answers 404", func(t *testing.T) {
		router := positionsRouter(&mockPositionStore{})

		req := httptest.NewRequest(http.MethodPost, "/api/positions/99/close", strings.NewReader(`{"exit_price":4520}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("closed position answers 409", func(t *testing.T) {
		closed := openPos()
		closed.Status = model.PositionStatusClosed
		router := positionsRouter(&mockPositionStore{position: closed})

		req := httptest.NewRequest(http.MethodPost, "/api/positions/3/close", strings.NewReader(`{"exit_price":4520}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", rr.Code)
		}
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		mockRepo := &mockPositionStore{position: openPos()}
		router := positionsRouter(mockRepo)

		req := httptest.NewRequest(http.MethodPost, "/api/positions/3/close", strings.NewReader(`{"exit_price":0}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
		if mockRepo.closeCalls != 0 {
			t.Fatalf("invalid price must not close the position")
		}
	})
}
