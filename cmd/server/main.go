package main

import (
	"fmt"
	"os"

	"focusflow/internal/clock"
	"focusflow/internal/config"
	"focusflow/internal/db"
	"focusflow/internal/handler"
	"focusflow/internal/log"
	"focusflow/internal/repository"
	"focusflow/internal/router"
	"focusflow/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.ErrorErr(log.CatHTTP, "server stopped", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log.SetMinLevel(log.ParseLevel(cfg.LogLevel))

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.Migrations()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	authService := service.NewAuthService(repository.NewUserRepository(database), cfg.JWTSecret, cfg.TokenTTL)
	taskService := service.NewTaskService(repository.NewTaskRepository(database))
	statsService := service.NewStatsService(repository.NewStatsRepository(database), clock.Real{})

	engine := router.New(authService, router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Tasks: handler.NewTaskHandler(taskService),
		Stats: handler.NewStatsHandler(statsService),
	}, cfg.CORSOrigins)

	log.Info(log.CatHTTP, "server listening", "port", cfg.Port, "db", cfg.DBPath)
	if err := engine.Run(":" + cfg.Port); err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	return nil
}
