package app

import (
	"context"
	"database/sql"
	"log"
	"time"

	"latexsnap/api/internal/config"
	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/settings"
	"latexsnap/api/internal/store"
)

// Backends are the stores shared by the web server and the bot.
type Backends struct {
	DB       *sql.DB // nil without a database
	Settings settings.Store
	History  *store.HistoryRepo // nil without a database
}

// OpenBackends connects to Postgres when a DSN is configured; otherwise
// settings are kept in cfg.SettingsFile and history is off.
func OpenBackends(ctx context.Context, cfg *config.Config) (*Backends, error) {
	defaults := settings.Settings{EndpointURL: cfg.PredictURL, Prompt: cfg.Prompt}
	if cfg.DatabaseURL == "" {
		log.Printf("no database configured; settings in %s, history disabled", cfg.SettingsFile)
		return &Backends{Settings: settings.NewFileStore(cfg.SettingsFile, defaults)}, nil
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("db connected: %s", store.SafeDSNSummary(cfg.DatabaseURL))
	return &Backends{
		DB:       db,
		Settings: settings.NewPGStore(db, defaults),
		History:  store.NewHistoryRepo(db),
	}, nil
}

// Recorder returns the history repo, or a nil interface when history is off.
func (b *Backends) Recorder() Recorder {
	if b.History == nil {
		return nil
	}
	return b.History
}

func (b *Backends) Close() {
	if b.DB != nil {
		_ = b.DB.Close()
	}
}

// Ping reports database health for /healthz.
func (b *Backends) Ping(ctx context.Context) error {
	if b.DB == nil {
		return nil
	}
	return b.DB.PingContext(ctx)
}

// Purge drops history older than the retention window.
func (b *Backends) Purge(ctx context.Context, olderThan time.Duration) {
	if b.History == nil || olderThan <= 0 {
		return
	}
	n, err := b.History.PurgeOlderThan(ctx, olderThan)
	if err != nil {
		log.Printf("history purge: %v", err)
		return
	}
	if n > 0 {
		log.Printf("history purge: removed %d rows", n)
	}
}

// ModeFrom parses the configured mode, falling back to the default mode.
func ModeFrom(cfg *config.Config) recognize.Mode {
	m, err := recognize.ParseMode(cfg.Mode)
	if err != nil {
		log.Printf("config: %v; using the default mode", err)
	}
	return m
}
