package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"signalengine/src/model"
)

func stagingRow(id uint, isOpen bool, status string) *sqlmock.Rows {
	entryTime := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "strategy_id", "strategy_symbol", "direction", "entry_price", "exit_price", "quantity", "pnl", "entry_time", "exit_time", "is_open", "status"})
	if isOpen {
		rows.AddRow(id, 1, "ESTrend", model.DirectionLong, 4500.0, nil, 2.0, nil, entryTime, nil, true, status)
	} else {
		exitTime := entryTime.Add(45 * time.Minute)
		rows.AddRow(id, 1, "ESTrend", model.DirectionLong, 4500.0, 4520.0, 2.0, 40.0, entryTime, exitTime, false, status)
	}
	return rows
}

func TestStagingTradeRepositoryFindByID(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &StagingTradeRepository{db: mockDB}

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1 ORDER BY "staging_trades"."id" LIMIT $2`)).
			WithArgs(uint(7), 1).
			WillReturnRows(stagingRow(7, false, model.StagingStatusPending))

		trade, err := repo.FindByID(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if trade == nil || trade.ID != 7 {
			t.Fatalf("unexpected trade: %+v", trade)
		}
	})

	t.Run("absent returns nil nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1 ORDER BY "staging_trades"."id" LIMIT $2`)).
			WithArgs(uint(8), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		trade, err := repo.FindByID(context.Background(), 8)
		if err != nil {
			t.Fatalf("expected nil error for absent trade, got %v", err)
		}
		if trade != nil {
			t.Fatalf("expected nil trade, got %+v", trade)
		}
	})
}

func TestStagingTradeRepositoryApproveGuards(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &StagingTradeRepository{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1`)).
			WithArgs(uint(1), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, err := repo.Approve(context.Background(), 1)
		if !errors.Is(err, ErrStagingTradeNotFound) {
			t.Fatalf("expected ErrStagingTradeNotFound, got %v", err)
		}
	})

	t.Run("still open", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &StagingTradeRepository{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1`)).
			WithArgs(uint(2), 1).
			WillReturnRows(stagingRow(2, true, model.StagingStatusPending))
		mock.ExpectRollback()

		_, err := repo.Approve(context.Background(), 2)
		if !errors.Is(err, ErrTradeStillOpen) {
			t.Fatalf("expected ErrTradeStillOpen, got %v", err)
		}
	})

	t.Run("already reviewed", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &StagingTradeRepository{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1`)).
			WithArgs(uint(3), 1).
			WillReturnRows(stagingRow(3, false, model.StagingStatusApproved))
		mock.ExpectRollback()

		_, err := repo.Approve(context.Background(), 3)
		if !errors.Is(err, ErrStaleState) {
			t.Fatalf("expected ErrStaleState, got %v", err)
		}
	})
}

func TestStagingTradeRepositoryApprove(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &StagingTradeRepository{db: mockDB}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1`)).
		WithArgs(uint(5), 1).
		WillReturnRows(stagingRow(5, false, model.StagingStatusPending))
	mock.ExpectExec(`UPDATE "staging_trades" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "trades"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectCommit()

	trade, err := repo.Approve(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error approving trade: %v", err)
	}

	if trade.ID != 100 {
		t.Fatalf("expected promoted trade id 100, got %d", trade.ID)
	}
	if trade.ExitPrice != 4520.0 || trade.Pnl != 40.0 {
		t.Fatalf("unexpected promoted trade values: %+v", trade)
	}
	if trade.Source != model.TradeSourceMatched {
		t.Fatalf("expected matched source, got %s", trade.Source)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestStagingTradeRepositoryRejectStale(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &StagingTradeRepository{db: mockDB}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1`)).
		WithArgs(uint(6), 1).
		WillReturnRows(stagingRow(6, false, model.StagingStatusPending))
	mock.ExpectExec(`UPDATE "staging_trades" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Reject(context.Background(), 6)
	if !errors.Is(err, ErrStaleState) {
		t.Fatalf("expected ErrStaleState on concurrent change, got %v", err)
	}
}

func TestStagingTradeRepositoryDeleteGuard(t *testing.T) {
	t.Run("pending rows are protected", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &StagingTradeRepository{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1`)).
			WithArgs(uint(9), 1).
			WillReturnRows(stagingRow(9, false, model.StagingStatusPending))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), 9)
		if !errors.Is(err, ErrDeleteNotAllowed) {
			t.Fatalf("expected ErrDeleteNotAllowed, got %v", err)
		}
	})

	t.Run("rejected rows are deletable", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &StagingTradeRepository{db: mockDB}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "staging_trades" WHERE id = $1`)).
			WithArgs(uint(10), 1).
			WillReturnRows(stagingRow(10, false, model.StagingStatusRejected))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "staging_trades" WHERE id = $1 AND status = $2`)).
			WithArgs(uint(10), model.StagingStatusRejected).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := repo.Delete(context.Background(), 10); err != nil {
			t.Fatalf("unexpected error deleting rejected trade: %v", err)
		}
	})
}
