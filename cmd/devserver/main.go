package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "github.com/park285/Cheese-board-controller/internal/config"
	"github.com/park285/Cheese-board-controller/internal/devserver"
	"github.com/park285/Cheese-board-controller/internal/obslog"
	"github.com/park285/Cheese-board-controller/internal/uci"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv("devserver"); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.LoadDevServer()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	opts, err := devserver.ParseRedisURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis_url_error", zap.Error(err))
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Fatal("redis_ping_error", zap.Error(err))
	}
	pingCancel()

	var chooser devserver.MoveChooser = devserver.FirstLegal{}
	if cfg.EnginePath != "" {
		engineCtx, engineCancel := context.WithTimeout(context.Background(), 10*time.Second)
		engine, err := uci.Start(engineCtx, cfg.EnginePath, uci.Options{
			Threads:    cfg.EngineThreads,
			HashMB:     cfg.EngineHashMB,
			SkillLevel: cfg.EngineSkill,
		}, logger.Named("uci"))
		if err == nil {
			err = engine.NewGame(engineCtx)
		}
		engineCancel()
		if err != nil {
			logger.Fatal("engine_start_error", zap.String("path", cfg.EnginePath), zap.Error(err))
		}
		defer engine.Close()
		chooser = devserver.EngineChooser{Engine: engine, MoveTime: time.Duration(cfg.EngineMoveTime) * time.Millisecond}
	} else {
		logger.Info("engine_not_configured", zap.String("fallback", "first_legal"))
	}

	srv := devserver.NewServer(devserver.NewStore(rdb, cfg.GameTTL), chooser, logger.Named("devserver"))
	httpSrv := &fasthttp.Server{Handler: srv.Handler, Name: "devserver", ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(cfg.ListenAddr); err != nil {
			logger.Fatal("listen_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	if err := httpSrv.Shutdown(); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
}
