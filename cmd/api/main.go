package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/platform/config"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/router"
)

func main() {
	// .env es opcional; en prod las vars vienen del entorno
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	opts := router.Options{Cfg: cfg, Log: log}
	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("postgres connection failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		opts.DB = db
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
