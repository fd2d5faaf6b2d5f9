package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"copro-edd-import/internal/config"
	"copro-edd-import/internal/database"
	httpapi "copro-edd-import/internal/http"
	"copro-edd-import/internal/logger"
	"copro-edd-import/internal/notify"
	"copro-edd-import/internal/repository"
	"copro-edd-import/internal/service"
	"copro-edd-import/internal/storage"
	"copro-edd-import/internal/store"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "edd-import")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Redis 不可用时退化为进程内 KV（单实例联调）
	var kv store.KV = store.NewMemoryKV()
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = store.NewRedisClient(&cfg.Redis)
		rkv := store.NewRedisKV(redisClient)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rkv.Ping(pingCtx); err != nil {
			log.Warn("Redis unreachable, using in-process KV", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			kv = rkv
		}
		cancel()
	}

	var db *sql.DB
	var importRepo repository.ImportRepository
	var jobs repository.JobRecorder
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for edd-import")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}
	if db != nil {
		if cfg.DBMigrate {
			migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := repository.Migrate(migrateCtx, db)
			cancel()
			if err != nil {
				log.Fatal("schema migration failed", zap.Error(err))
			}
		}
		importRepo = repository.NewPostgresImportRepository(db, log)
		jobs = repository.NewPostgresJobRecorder(db, log, cfg.Import.StaleAfter)
	} else {
		// DB 未就绪：使用内存 repo（结果不落盘）
		importRepo = repository.NewMemoryImportRepository()
		jobs = repository.NewMemoryJobRecorder()
	}

	var notifier notify.Notifier = notify.Nop{}
	var mqttClient mqtt.Client
	if cfg.MQTT.Enabled {
		if c, err := notify.Connect(&cfg.MQTT); err == nil {
			mqttClient = c
			notifier = notify.NewMQTTNotifier(c, cfg.MQTT.Topic, log)
			log.Info("MQTT notifications enabled", zap.String("broker", cfg.MQTT.Broker))
		} else {
			log.Warn("MQTT enabled but connection failed, notifications disabled", zap.Error(err))
		}
	}

	svc := service.NewImportService(service.Options{
		Source:   storage.NewSupabaseStorage(cfg.Storage, log),
		Repo:     importRepo,
		Jobs:     jobs,
		Cache:    store.NewJobCache(kv, cfg.Import.JobCacheTTL),
		Lock:     store.NewImportLock(kv, cfg.Import.LockTTL),
		Notifier: notifier,
		Logger:   log,
	})

	router := httpapi.NewRouter(log)
	router.RegisterImportRoutes(httpapi.NewImportHandler(svc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
