package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/park285/Cheese-board-controller/internal/config"
	"github.com/park285/Cheese-board-controller/internal/bridge"
	"github.com/park285/Cheese-board-controller/internal/gameapi"
	"github.com/park285/Cheese-board-controller/internal/msgcat"
	"github.com/park285/Cheese-board-controller/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv("boardctl"); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.LoadBridge()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}
	msgs, err := msgcat.New(cfg.NoticeTemplateDir)
	if err != nil {
		logger.Fatal("message_catalog_error", zap.Error(err))
	}

	client := gameapi.NewClient(cfg.GameServiceURL,
		gameapi.WithTimeout(cfg.RequestTimeout),
		gameapi.WithRetry(cfg.RetryMax),
		gameapi.WithLogger(logger.Named("gameapi")),
	)

	mux := http.NewServeMux()
	mux.Handle("/ws", bridge.NewHandler(client, bridge.Options{
		ExplicitTurn:   cfg.ExplicitTurn,
		RequestTimeout: cfg.RequestTimeout,
		EngineTimeout:  cfg.EngineTimeout,
		Messages:       msgs,
		Logger:         logger.Named("bridge"),
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr), zap.String("game_service", cfg.GameServiceURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen_error", zap.Error(err))
		}
	}()

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
}
