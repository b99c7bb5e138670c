package main

import (
	"log"
	"net/http"
	"time"

	"holdem-lite/internal/auth"
	"holdem-lite/internal/config"
	"holdem-lite/internal/gateway"
	"holdem-lite/internal/ledger"
	"holdem-lite/internal/matchmaker"
	"holdem-lite/internal/queue"
	"holdem-lite/internal/store"
	"holdem-lite/internal/table"
)

func main() {
	cfg := config.FromEnv()

	ledgerService, ledgerMode, err := ledger.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[server] failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	storeService, err := store.NewServiceFromEnv(ledgerMode)
	if err != nil {
		log.Fatalf("[server] failed to init store service: %v", err)
	}
	defer storeService.Close()

	verifier := auth.NewVerifier(cfg.TokenSecret)
	queueMgr := queue.NewManager()
	queueMgr.Start(cfg.CleanupInterval)
	defer queueMgr.Stop()

	gw := gateway.New(verifier, queueMgr, cfg.PingInterval, cfg.CORSOrigins)

	newTable := func(id string, stake int64) *table.Table {
		notifyDirty := func() {
			now := time.Now()
			_ = storeService.UpsertTable(store.TableRecord{TableID: id, Stake: stake, CreatedAt: now, UpdatedAt: now})
		}
		return table.New(id, stake, gw, ledgerService, storeService, notifyDirty)
	}

	mm := matchmaker.New(queueMgr, config.StakeLadder, config.TablesPerStake, cfg.MatchmakerInterval, newTable)
	gw.SetMatchmaker(mm)
	mm.Start()
	defer mm.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", gw.HandleHealth)
	mux.HandleFunc("/tables/", gw.HandleValidateState)

	log.Printf("[server] ledger driver: %s", ledgerMode)
	log.Printf("[server] starting on %s", cfg.ServerAddr)
	if err := http.ListenAndServe(cfg.ServerAddr, gw.WithCORS(mux)); err != nil {
		log.Fatalf("[server] failed to start: %v", err)
	}
}
