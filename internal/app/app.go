// Package app wires the client-side components from a ClientConfig.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"focusflow/internal/archive"
	"focusflow/internal/clock"
	"focusflow/internal/config"
	"focusflow/internal/db"
	"focusflow/internal/engine"
	"focusflow/internal/kvstore"
	"focusflow/internal/log"
	"focusflow/internal/remote"
	"focusflow/internal/tracing"
)

const sessionKey = "session"

// ErrNotLoggedIn is returned when a command needs a stored session and there is none.
var ErrNotLoggedIn = errors.New("not logged in, run `focusflow login` first")

type Session struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type App struct {
	Config  config.ClientConfig
	Clock   clock.Clock
	Store   kvstore.Store
	Archive *archive.Manager
	Remote  *remote.Client

	database *sql.DB
	tracing  *tracing.Provider
	closeLog func()
}

// Open prepares logging, the local database and the remote client. The stored
// session token, if any, is attached to the remote client.
func Open(ctx context.Context, cfg config.ClientConfig) (*App, error) {
	a := &App{Config: cfg, Clock: clock.Real{}}
	log.SetMinLevel(log.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		closeLog, err := log.Init(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.closeLog = closeLog
	}

	database, err := db.OpenSQLite(cfg.DBPath())
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("open local store: %w", err)
	}
	a.database = database
	if err := db.RunMigrations(database, db.LocalMigrations()); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.tracing = provider

	a.Store = kvstore.NewSQLite(database)
	a.Archive = archive.NewManager(a.Store, a.Clock)
	a.Remote = remote.New(cfg.APIURL, remote.WithTracer(provider.Tracer()))

	if sess, err := a.Session(ctx); err == nil {
		a.Remote.SetToken(sess.Token)
	}
	return a, nil
}

func (a *App) Close(ctx context.Context) {
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatConfig, "flush traces", err)
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			log.ErrorErr(log.CatDB, "close local store", err)
		}
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}

func (a *App) Session(ctx context.Context) (Session, error) {
	var sess Session
	err := kvstore.GetJSON(ctx, a.Store, sessionKey, &sess)
	if errors.Is(err, kvstore.ErrNotFound) || (err == nil && sess.UserID == "") {
		return Session{}, ErrNotLoggedIn
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

func (a *App) SaveSession(ctx context.Context, sess Session) error {
	if err := kvstore.PutJSON(ctx, a.Store, sessionKey, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	a.Remote.SetToken(sess.Token)
	return nil
}

func (a *App) ClearSession(ctx context.Context) error {
	a.Remote.SetToken("")
	if err := a.Store.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (a *App) NewEngine() (*engine.Engine, error) {
	return engine.New(engine.Config{
		Clock:        a.Clock,
		Archive:      a.Archive,
		Remote:       a.Remote,
		Defaults:     a.Config.Timer.CycleConfig(),
		DrainTimeout: a.Config.DrainTimeout,
	})
}
