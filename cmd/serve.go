package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/DivyanshuTiwari-1/makeupai/internal/config"
	"github.com/DivyanshuTiwari-1/makeupai/internal/db"
	httpSrv "github.com/DivyanshuTiwari-1/makeupai/internal/http"
	"github.com/DivyanshuTiwari-1/makeupai/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)

		mysqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		// Redis only holds rate-limit counters; the service runs without it
		// on a per-process limiter.
		var redisClient *redis.Client
		if cfg.Redis.Addr != "" {
			redisClient, err = db.NewRedisClient(cfg.Redis)
			if err != nil {
				log.Printf("redis unavailable, using in-process rate limiter: %v", err)
				redisClient = nil
			} else {
				defer func() { _ = redisClient.Close() }()
			}
		}

		// ClickHouse only receives billing analytics rows.
		var chDB *sqlx.DB
		if cfg.ClickHouse.DSN != "" {
			chDB, err = db.NewClickHouseConnection(cfg.ClickHouse)
			if err != nil {
				log.Printf("clickhouse unavailable, billing analytics disabled: %v", err)
				chDB = nil
			} else {
				defer func() { _ = chDB.Close() }()
			}
		}

		server := httpSrv.NewServer(cfg, mysqlDB, chDB, redisClient)

		errCh := make(chan error, 1)
		go func() {
			log.Printf("starting http on %s", cfg.HTTP.Addr)
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Printf("signal received: %s, shutting down...", sig)
		case err := <-errCh:
			if err != nil {
				log.Printf("http server exited: %v", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
