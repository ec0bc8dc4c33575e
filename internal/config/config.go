package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingRequired is wrapped by Load* when a required variable is unset.
var ErrMissingRequired = errors.New("required setting missing")

type BridgeConfig struct {
	GameServiceURL string
	ListenAddr     string

	RequestTimeout time.Duration
	EngineTimeout  time.Duration
	RetryMax       int
	// ExplicitTurn asks the service's /turn route for the side to move.
	ExplicitTurn bool

	NoticeTemplateDir string
}

type DevServerConfig struct {
	ListenAddr string
	RedisURL   string
	GameTTL    time.Duration

	EnginePath     string
	EngineMoveTime int
	EngineThreads  int
	EngineHashMB   int
	EngineSkill    int
}

func LoadBridge() (*BridgeConfig, error) {
	cfg := &BridgeConfig{
		ListenAddr:     ":8080",
		RequestTimeout: 10 * time.Second,
		EngineTimeout:  30 * time.Second,
		RetryMax:       3,
	}

	cfg.GameServiceURL = strings.TrimRight(strings.TrimSpace(os.Getenv("GAME_SERVICE_URL")), "/")
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if n, ok := positiveInt("REQUEST_TIMEOUT_MS"); ok {
		cfg.RequestTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := positiveInt("ENGINE_TIMEOUT_MS"); ok {
		cfg.EngineTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := positiveInt("GAME_SERVICE_RETRY_MAX"); ok {
		cfg.RetryMax = n
	}
	if v := strings.TrimSpace(os.Getenv("EXPLICIT_TURN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ExplicitTurn = b
		}
	}
	cfg.NoticeTemplateDir = strings.TrimSpace(os.Getenv("NOTICE_TEMPLATE_DIR"))

	if cfg.GameServiceURL == "" {
		return nil, missing("GAME_SERVICE_URL")
	}
	return cfg, nil
}

func LoadDevServer() (*DevServerConfig, error) {
	cfg := &DevServerConfig{
		ListenAddr:     ":8081",
		GameTTL:        24 * time.Hour,
		EngineMoveTime: 1000,
		EngineThreads:  1,
		EngineHashMB:   16,
		EngineSkill:    20,
	}

	if v := strings.TrimSpace(os.Getenv("DEV_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if n, ok := positiveInt("GAME_TTL_SEC"); ok {
		cfg.GameTTL = time.Duration(n) * time.Second
	}
	cfg.EnginePath = strings.TrimSpace(os.Getenv("ENGINE_PATH"))
	if n, ok := positiveInt("ENGINE_MOVETIME_MS"); ok {
		cfg.EngineMoveTime = n
	}
	if n, ok := positiveInt("ENGINE_THREADS"); ok {
		cfg.EngineThreads = n
	}
	if n, ok := positiveInt("ENGINE_HASH_MB"); ok {
		cfg.EngineHashMB = n
	}
	// skill 0 is a valid level, so only negatives are ignored here
	if v := strings.TrimSpace(os.Getenv("ENGINE_SKILL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.EngineSkill = n
		}
	}

	if cfg.RedisURL == "" {
		return nil, missing("REDIS_URL")
	}
	return cfg, nil
}

func positiveInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func missing(key string) error {
	return &missingError{key: key}
}

type missingError struct{ key string }

func (e *missingError) Error() string { return e.key + " is required" }

func (e *missingError) Unwrap() error { return ErrMissingRequired }
