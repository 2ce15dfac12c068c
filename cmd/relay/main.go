package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npardo/go-relay/internal/api"
	"github.com/npardo/go-relay/internal/config"
	"github.com/npardo/go-relay/internal/relay"
	"github.com/npardo/go-relay/internal/stats"
)

func main() {
	logger := log.New(os.Stderr, "[go-relay] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	relayServer, err := relay.NewRelay(logger, statsUpdater)
	if err != nil {
		logger.Fatal("new relay:", err)
	}

	srv := api.NewRelayApp(mux, logger, relayServer, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down relay...")
	relayServer.Shutdown()

	logger.Println("shutdown complete")
}
