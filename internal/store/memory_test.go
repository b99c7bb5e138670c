package store

import (
	"testing"
	"time"
)

func TestUpsertTableThenList(t *testing.T) {
	s := NewMemoryService()
	defer s.Close()

	now := time.Now()
	if err := s.UpsertTable(TableRecord{TableID: "stake10-a", Stake: 10, IsPreset: true, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("UpsertTable: %v", err)
	}
	if err := s.UpsertTable(TableRecord{TableID: "stake10-b", Stake: 10, IsPreset: true, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("UpsertTable: %v", err)
	}

	tables, err := s.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
}

func TestDeleteTableRemovesOverflowTable(t *testing.T) {
	s := NewMemoryService()
	defer s.Close()

	now := time.Now()
	_ = s.UpsertTable(TableRecord{TableID: "overflow-1", Stake: 10, CreatedAt: now, UpdatedAt: now})
	if err := s.DeleteTable("overflow-1"); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	tables, _ := s.ListTables()
	if len(tables) != 0 {
		t.Fatalf("expected table removed, got %v", tables)
	}
}

func TestSaveGameThenGamesForTableMostRecentFirst(t *testing.T) {
	s := NewMemoryService()
	defer s.Close()

	base := time.Now()
	_ = s.SaveGame(GameRecord{GameID: "g1", TableID: "t1", EndedAt: base})
	_ = s.SaveGame(GameRecord{GameID: "g2", TableID: "t1", EndedAt: base.Add(time.Minute)})

	games, err := s.GamesForTable("t1", 10)
	if err != nil {
		t.Fatalf("GamesForTable: %v", err)
	}
	if len(games) != 2 || games[0].GameID != "g2" {
		t.Fatalf("expected most recent game first, got %+v", games)
	}
}

func TestRecordTransactionThenTransactionsForGame(t *testing.T) {
	s := NewMemoryService()
	defer s.Close()

	_ = s.RecordTransaction(TransactionRecord{ID: "tx1", GameID: "g1", UserID: "alice", Amount: 10})
	txs, err := s.TransactionsForGame("g1")
	if err != nil {
		t.Fatalf("TransactionsForGame: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "tx1" {
		t.Fatalf("expected one transaction for g1, got %+v", txs)
	}
}

func TestUserReturnsZeroValueForUnknownUser(t *testing.T) {
	s := NewMemoryService()
	defer s.Close()

	rec, err := s.User("nobody")
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if rec.UserID != "nobody" || rec.Chips != 0 {
		t.Fatalf("expected zero-value record for unknown user, got %+v", rec)
	}
}
