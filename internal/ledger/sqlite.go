package ledger

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "reemtable-ledger.db"

// sqliteService is the single-binary deployment backend: same schema and
// transaction shape as postgresService, but self-migrating since there is
// no separate schema-management step for an embedded database.
type sqliteService struct {
	db *sql.DB
}

func NewSQLiteServiceFromEnv() (Service, error) {
	path := strings.TrimSpace(os.Getenv("LEDGER_SQLITE_PATH"))
	if path == "" {
		path = defaultSQLitePath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: single writer avoids SQLITE_BUSY

	svc := &sqliteService{db: db}
	if err := svc.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return svc, nil
}

func (s *sqliteService) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS accounts (
    user_id TEXT PRIMARY KEY,
    balance INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS ledger_transactions (
    id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    table_id TEXT NOT NULL,
    game_id TEXT,
    kind TEXT NOT NULL,
    amount INTEGER NOT NULL,
    balance_before INTEGER NOT NULL,
    balance_after INTEGER NOT NULL,
    win_type TEXT,
    status TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_transactions_id ON ledger_transactions(id);
`)
	return err
}

func (s *sqliteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteService) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnknownUser
	}
	return balance, err
}

func (s *sqliteService) alreadyApplied(ctx context.Context, txID string) ([]Transaction, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, table_id, game_id, kind, amount, balance_before, balance_after, win_type, status, created_at
FROM ledger_transactions
WHERE id = ? OR id LIKE ?
ORDER BY created_at ASC
`, txID, txID+"-credit-%")
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var gameID, winType sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.TableID, &gameID, &t.Kind, &t.Amount, &t.BalanceBefore, &t.BalanceAfter, &winType, &t.Status, &t.Timestamp); err != nil {
			return nil, false, err
		}
		t.GameID = gameID.String
		t.WinType = winType.String
		out = append(out, t)
	}
	return out, len(out) > 0, rows.Err()
}

func (s *sqliteService) ensureAccount(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO accounts (user_id, balance) VALUES (?, 0)`, userID); err != nil {
		return 0, err
	}
	var balance int64
	err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&balance)
	return balance, err
}

func (s *sqliteService) DeductStakes(ctx context.Context, txID string, seats []SeatStake, stake int64, tableID string) (Result, error) {
	if existing, ok, err := s.alreadyApplied(ctx, txID); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Transactions: existing}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	rows := make([]Transaction, 0, len(seats))
	for _, seat := range seats {
		before, err := s.ensureAccount(ctx, tx, seat.UserID)
		if err != nil {
			return Result{}, err
		}
		if before < stake {
			return Result{}, ErrInsufficientBalance
		}
		after := before - stake
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE user_id = ?`, after, seat.UserID); err != nil {
			return Result{}, err
		}
		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_transactions (id, user_id, table_id, game_id, kind, amount, balance_before, balance_after, win_type, status, created_at)
VALUES (?, ?, ?, '', 'stake', ?, ?, ?, '', 'completed', ?)
`, txID, seat.UserID, tableID, stake, before, after, now); err != nil {
			return Result{}, err
		}
		rows = append(rows, Transaction{
			ID: txID, UserID: seat.UserID, TableID: tableID, Kind: KindStake,
			Amount: stake, BalanceBefore: before, BalanceAfter: after,
			Status: StatusCompleted, Timestamp: now,
		})
	}

	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	return Result{Transactions: rows}, nil
}

func (s *sqliteService) DistributeWinnings(ctx context.Context, txID string, seats []SeatStake, winners []int, winType string, stake int64, tableID, gameID string) (Result, error) {
	if existing, ok, err := s.alreadyApplied(ctx, txID); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Transactions: existing}, nil
	}

	pot := stake * int64(len(seats))
	share := Payout(winType, pot, len(winners))
	winnerSet := make(map[int]bool, len(winners))
	for _, w := range winners {
		winnerSet[w] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	rows := make([]Transaction, 0, len(winners))
	for i, seat := range seats {
		if !winnerSet[i] {
			continue
		}
		before, err := s.ensureAccount(ctx, tx, seat.UserID)
		if err != nil {
			return Result{}, err
		}
		after := before + share
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE user_id = ?`, after, seat.UserID); err != nil {
			return Result{}, err
		}
		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_transactions (id, user_id, table_id, game_id, kind, amount, balance_before, balance_after, win_type, status, created_at)
VALUES (?, ?, ?, ?, 'payout', ?, ?, ?, ?, 'completed', ?)
`, txID, seat.UserID, tableID, gameID, share, before, after, winType, now); err != nil {
			return Result{}, err
		}
		rows = append(rows, Transaction{
			ID: txID, UserID: seat.UserID, TableID: tableID, GameID: gameID, Kind: KindPayout,
			Amount: share, BalanceBefore: before, BalanceAfter: after, WinType: winType,
			Status: StatusCompleted, Timestamp: now,
		})
	}

	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	return Result{Transactions: rows}, nil
}

func (s *sqliteService) ApplyDropPenalty(ctx context.Context, txID string, seats []SeatStake, dropperIdx int, roundScores []int, stake int64, tableID, gameID string) (Result, error) {
	if existing, ok, err := s.alreadyApplied(ctx, txID); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Transactions: existing}, nil
	}

	dropperScore := roundScores[dropperIdx]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	rows := make([]Transaction, 0)
	totalPaid := int64(0)
	for i, score := range roundScores {
		if i == dropperIdx || score >= dropperScore {
			continue
		}
		before, err := s.ensureAccount(ctx, tx, seats[i].UserID)
		if err != nil {
			return Result{}, err
		}
		after := before + stake
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE user_id = ?`, after, seats[i].UserID); err != nil {
			return Result{}, err
		}
		now := time.Now()
		creditID := txID + "-credit-" + seats[i].UserID
		if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_transactions (id, user_id, table_id, game_id, kind, amount, balance_before, balance_after, win_type, status, created_at)
VALUES (?, ?, ?, ?, 'penalty', ?, ?, ?, 'DROP_CAUGHT', 'completed', ?)
`, creditID, seats[i].UserID, tableID, gameID, stake, before, after, now); err != nil {
			return Result{}, err
		}
		rows = append(rows, Transaction{
			ID: creditID, UserID: seats[i].UserID, TableID: tableID, GameID: gameID, Kind: KindPenalty,
			Amount: stake, BalanceBefore: before, BalanceAfter: after, WinType: "DROP_CAUGHT",
			Status: StatusCompleted, Timestamp: now,
		})
		totalPaid += stake
	}

	dropperBefore, err := s.ensureAccount(ctx, tx, seats[dropperIdx].UserID)
	if err != nil {
		return Result{}, err
	}
	dropperAfter := dropperBefore - totalPaid
	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE user_id = ?`, dropperAfter, seats[dropperIdx].UserID); err != nil {
		return Result{}, err
	}
	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO ledger_transactions (id, user_id, table_id, game_id, kind, amount, balance_before, balance_after, win_type, status, created_at)
VALUES (?, ?, ?, ?, 'penalty', ?, ?, ?, 'DROP_CAUGHT', 'completed', ?)
`, txID, seats[dropperIdx].UserID, tableID, gameID, totalPaid, dropperBefore, dropperAfter, now); err != nil {
		return Result{}, err
	}
	rows = append(rows, Transaction{
		ID: txID, UserID: seats[dropperIdx].UserID, TableID: tableID, GameID: gameID, Kind: KindPenalty,
		Amount: totalPaid, BalanceBefore: dropperBefore, BalanceAfter: dropperAfter, WinType: "DROP_CAUGHT",
		Status: StatusCompleted, Timestamp: now,
	})

	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	return Result{Transactions: rows}, nil
}
