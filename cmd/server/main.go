package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/auth"
	"github.com/hongminglow/jiahe-fees/internal/billing"
	"github.com/hongminglow/jiahe-fees/internal/config"
	"github.com/hongminglow/jiahe-fees/internal/feeconfig"
	"github.com/hongminglow/jiahe-fees/internal/ledger"
	"github.com/hongminglow/jiahe-fees/internal/logging"
	"github.com/hongminglow/jiahe-fees/internal/registration"
	"github.com/hongminglow/jiahe-fees/internal/residents"
	"github.com/hongminglow/jiahe-fees/internal/server"
	"github.com/hongminglow/jiahe-fees/internal/storage"
	"github.com/hongminglow/jiahe-fees/internal/storage/memory"
	"github.com/hongminglow/jiahe-fees/internal/storage/postgres"
	"github.com/hongminglow/jiahe-fees/internal/storage/redis"
	"github.com/hongminglow/jiahe-fees/internal/storage/sqlite"
	"github.com/hongminglow/jiahe-fees/internal/users"
)

const serviceName = "jiahe-fees"

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	if envErr != nil {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("init store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	svc, err := buildServices(ctx, cfg, kv, logger)
	if err != nil {
		logger.Fatal("init services", zap.Error(err))
	}

	srv := server.New(cfg, svc, logger)

	go func() {
		logger.Info("jiahe fee desk listening",
			zap.String("addr", cfg.HTTPAddress()),
			zap.String("store", cfg.StoreDriver))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
}

// openStore selects the persistence adapter named by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config) (storage.KV, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.DriverPostgres:
		s, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverRedis:
		s, err := redis.NewStore(ctx, redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// buildServices loads every collection and seeds the bootstrap admin.
func buildServices(ctx context.Context, cfg config.Config, kv storage.KV, logger *zap.Logger) (server.Services, error) {
	keys := storage.NewKeys(cfg.KeyPrefix)

	dir, err := residents.Open(ctx, kv, keys, logger.Named("residents"))
	if err != nil {
		return server.Services{}, fmt.Errorf("residents: %w", err)
	}
	l, err := ledger.Open(ctx, kv, keys, dir, logger.Named("ledger"))
	if err != nil {
		return server.Services{}, fmt.Errorf("ledger: %w", err)
	}
	rates, err := feeconfig.Open(ctx, kv, keys, logger.Named("feeconfig"))
	if err != nil {
		return server.Services{}, fmt.Errorf("fee config: %w", err)
	}
	userDir, err := users.Open(ctx, kv, keys, logger.Named("users"))
	if err != nil {
		return server.Services{}, fmt.Errorf("users: %w", err)
	}
	hash, err := auth.HashPassword(cfg.AdminBootstrapPassword)
	if err != nil {
		return server.Services{}, fmt.Errorf("hash bootstrap password: %w", err)
	}
	if _, err := userDir.EnsureAdmin(ctx, hash); err != nil {
		return server.Services{}, fmt.Errorf("bootstrap admin: %w", err)
	}
	flow, err := registration.Open(ctx, kv, keys, userDir, logger.Named("registration"))
	if err != nil {
		return server.Services{}, fmt.Errorf("registrations: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	return server.Services{
		Residents:     dir,
		Ledger:        l,
		FeeConfig:     rates,
		Users:         userDir,
		Registrations: flow,
		Sessions:      auth.NewManager(userDir, tokens, kv, keys, logger.Named("auth")),
		Desk:          billing.NewDesk(dir, l, rates, cfg.DeleteWindowDays, logger.Named("billing")),
	}, nil
}
