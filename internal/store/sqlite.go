package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultStoreSQLitePath = "reemtable-store.db"

// sqliteService is the single-binary deployment backend for the four
// durable collections, schema-migrated on open exactly like the ledger's
// sqliteService.
type sqliteService struct {
	db *sql.DB
}

func NewSQLiteServiceFromEnv() (Service, error) {
	path := strings.TrimSpace(os.Getenv("STORE_SQLITE_PATH"))
	if path == "" {
		path = defaultStoreSQLitePath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	svc := &sqliteService{db: db}
	if err := svc.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return svc, nil
}

func (s *sqliteService) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS tables (
    table_id TEXT PRIMARY KEY,
    stake INTEGER NOT NULL,
    is_preset INTEGER NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS games (
    game_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    stake INTEGER NOT NULL,
    seats TEXT NOT NULL,
    win_type TEXT NOT NULL,
    winners TEXT NOT NULL,
    round_scores TEXT NOT NULL,
    state_hash INTEGER NOT NULL,
    started_at DATETIME NOT NULL,
    ended_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_table_id ON games(table_id);
CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    chips INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS store_transactions (
    id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    table_id TEXT NOT NULL,
    game_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    amount INTEGER NOT NULL,
    balance_before INTEGER NOT NULL,
    balance_after INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_store_transactions_game_id ON store_transactions(game_id);
`)
	return err
}

func (s *sqliteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteService) ListTables() ([]TableRecord, error) {
	rows, err := s.db.Query(`SELECT table_id, stake, is_preset, created_at, updated_at FROM tables ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TableRecord
	for rows.Next() {
		var r TableRecord
		var preset int
		if err := rows.Scan(&r.TableID, &r.Stake, &preset, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.IsPreset = preset != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteService) UpsertTable(rec TableRecord) error {
	_, err := s.db.Exec(`
INSERT INTO tables (table_id, stake, is_preset, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(table_id) DO UPDATE SET stake = excluded.stake, updated_at = excluded.updated_at
`, rec.TableID, rec.Stake, boolToInt(rec.IsPreset), rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (s *sqliteService) DeleteTable(tableID string) error {
	_, err := s.db.Exec(`DELETE FROM tables WHERE table_id = ? AND is_preset = 0`, tableID)
	return err
}

func (s *sqliteService) SaveGame(rec GameRecord) error {
	seats, err := json.Marshal(rec.Seats)
	if err != nil {
		return err
	}
	winners, err := json.Marshal(rec.Winners)
	if err != nil {
		return err
	}
	scores, err := json.Marshal(rec.RoundScores)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO games (game_id, table_id, stake, seats, win_type, winners, round_scores, state_hash, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, rec.GameID, rec.TableID, rec.Stake, string(seats), rec.WinType, string(winners), string(scores), rec.StateHash, rec.StartedAt, rec.EndedAt)
	return err
}

func (s *sqliteService) GamesForTable(tableID string, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
SELECT game_id, table_id, stake, seats, win_type, winners, round_scores, state_hash, started_at, ended_at
FROM games WHERE table_id = ? ORDER BY ended_at DESC LIMIT ?
`, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		var r GameRecord
		var seats, winners, scores string
		if err := rows.Scan(&r.GameID, &r.TableID, &r.Stake, &seats, &r.WinType, &winners, &scores, &r.StateHash, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(seats), &r.Seats)
		_ = json.Unmarshal([]byte(winners), &r.Winners)
		_ = json.Unmarshal([]byte(scores), &r.RoundScores)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteService) User(userID string) (UserRecord, error) {
	var r UserRecord
	r.UserID = userID
	err := s.db.QueryRow(`SELECT chips FROM users WHERE user_id = ?`, userID).Scan(&r.Chips)
	if err == sql.ErrNoRows {
		return r, nil
	}
	return r, err
}

func (s *sqliteService) RecordTransaction(rec TransactionRecord) error {
	_, err := s.db.Exec(`
INSERT INTO store_transactions (id, user_id, table_id, game_id, kind, amount, balance_before, balance_after, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, rec.ID, rec.UserID, rec.TableID, rec.GameID, rec.Kind, rec.Amount, rec.BalanceBefore, rec.BalanceAfter, rec.Status, rec.Timestamp)
	return err
}

func (s *sqliteService) TransactionsForGame(gameID string) ([]TransactionRecord, error) {
	rows, err := s.db.Query(`
SELECT id, user_id, table_id, game_id, kind, amount, balance_before, balance_after, status, created_at
FROM store_transactions WHERE game_id = ? ORDER BY created_at ASC
`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionRecord
	for rows.Next() {
		var r TransactionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.TableID, &r.GameID, &r.Kind, &r.Amount, &r.BalanceBefore, &r.BalanceAfter, &r.Status, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
