// hangard runs the cross-server market node: it replicates the market
// board with peer nodes over websocket and mirrors it into sqlite. The
// hangar command surface itself is a library the game server embeds; this
// daemon only needs the board.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gridhangar/internal/config"
	"gridhangar/internal/market"
	marketsync "gridhangar/internal/market/sync"
	"gridhangar/internal/persistence/marketdb"
)

func main() {
	var (
		settingsPath = flag.String("settings", "./configs/settings.yaml", "hangar settings path")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite market mirror")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[hangard] ", log.LstdFlags|log.Lmicroseconds)

	rt, err := config.LoadRuntime()
	if err != nil {
		logger.Fatalf("load runtime: %v", err)
	}

	// Settings are only read here to fail fast on a broken deploy; the
	// embedding game server holds the live snapshot.
	if _, err := config.Load(*settingsPath); err != nil && !os.IsNotExist(err) {
		logger.Fatalf("load settings: %v", err)
	}

	var db *marketdb.DB
	if !*disableDB {
		db, err = marketdb.Open(filepath.Join(rt.DataDir, "market", "market.db"))
		if err != nil {
			logger.Fatalf("open market db: %v", err)
		}
		defer db.Close()
	}

	board, err := market.NewBoard(rt.NodeID, logger, db)
	if err != nil {
		logger.Fatalf("build market board: %v", err)
	}

	node := marketsync.NewNode(rt.NodeID, board, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/market", node.Handler())

	srv := &http.Server{Addr: rt.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if peer := strings.TrimSpace(rt.PeerWSURL); peer != "" {
		if err := node.Dial(ctx, peer); err != nil {
			logger.Printf("dial peer %s: %v", peer, err)
		}
	}

	go func() {
		logger.Printf("market node %s listening on %s", rt.NodeID, rt.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
