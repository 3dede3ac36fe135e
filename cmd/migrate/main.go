package main

import (
	"os"

	"focusflow/internal/config"
	"focusflow/internal/db"
	"focusflow/internal/log"
)

func main() {
	cfg := config.Load()
	log.SetMinLevel(log.ParseLevel(cfg.LogLevel))

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.ErrorErr(log.CatDB, "open database", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.Migrations()); err != nil {
		log.ErrorErr(log.CatDB, "run migrations", err)
		os.Exit(1)
	}

	log.Info(log.CatDB, "migrations applied successfully", "path", cfg.DBPath)
}
