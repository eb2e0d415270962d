/*
main.go - Application entry point

PURPOSE:
  Wires configuration, the snapshot store, the voucher engine, the QR
  codec, the PDF renderer and the operator bot, then runs until
  SIGINT/SIGTERM.

COMMAND-LINE FLAGS:
  -config  Path to the YAML config file (optional; env vars BOT_TOKEN,
           ADMIN_ID and DATA_DIR override or replace it)

STARTUP SEQUENCE:
  1. Parse flags, load config
  2. Open the snapshot store (file or sqlite backend)
  3. Load the ledger into the engine (corrupt snapshots load empty,
     loudly)
  4. Start the long-poll bot

SEE ALSO:
  - config/config.go: configuration keys
  - bot/bot.go:       the update loop
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/warp/voucher-engine/bot"
	"github.com/warp/voucher-engine/config"
	"github.com/warp/voucher-engine/pdf"
	"github.com/warp/voucher-engine/qr"
	"github.com/warp/voucher-engine/store/file"
	"github.com/warp/voucher-engine/store/sqlite"
	"github.com/warp/voucher-engine/voucher"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration", "err", err)
		os.Exit(1)
	}

	var st voucher.Store
	switch cfg.Store {
	case config.BackendSQLite:
		s, err := sqlite.New(filepath.Join(cfg.DataDir, "vouchers.db"))
		if err != nil {
			log.Error("open sqlite store", "err", err)
			os.Exit(1)
		}
		defer s.Close()
		st = s
	default:
		s, err := file.New(cfg.DataDir)
		if err != nil {
			log.Error("open file store", "err", err)
			os.Exit(1)
		}
		st = s
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	codec := qr.New()
	engine, err := voucher.NewEngine(ctx, st, codec)
	if err != nil {
		log.Error("load ledger", "err", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg.BotToken, cfg.AdminID, engine, pdf.NewRenderer(codec))
	if err != nil {
		log.Error("connect bot", "err", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("shutting down")
		cancel()
	}()

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		log.Error("bot stopped", "err", err)
		os.Exit(1)
	}
	log.Info("stopped")
}
