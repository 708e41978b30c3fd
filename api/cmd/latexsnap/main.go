package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"latexsnap/api/internal/app"
	"latexsnap/api/internal/config"
	"latexsnap/api/internal/handle"
	"latexsnap/api/internal/httpserver"
	"latexsnap/api/internal/render"
	"latexsnap/api/internal/web"
)

const (
	sessionIdle   = 2 * time.Hour
	sweepInterval = 10 * time.Minute
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := app.OpenBackends(ctx, cfg)
	if err != nil {
		log.Fatalf("backends: %v", err)
	}
	defer backends.Close()

	renderer := render.New()
	httpc := &http.Client{}
	mode := app.ModeFrom(cfg)

	sessions := app.NewSessions(func() *app.Controller {
		return app.NewController(app.Deps{
			Settings: backends.Settings,
			Renderer: renderer,
			Recorder: backends.Recorder(),
			HTTP:     httpc,
			Mode:     mode,
		})
	})
	sessions.Max = cfg.MaxSessions

	opts := handle.Options{
		Sessions:     sessions,
		Settings:     backends.Settings,
		HTTP:         httpc,
		HistoryLimit: cfg.HistoryLimit,
	}
	if backends.History != nil {
		opts.History = backends.History
	}

	mux := http.NewServeMux()
	handle.New(opts).Register(mux)
	mux.Handle("/", web.Handler())

	go housekeeping(ctx, sessions, backends, cfg.HistoryRetention)

	srv := httpserver.New(":"+cfg.Port, mux, backends.Ping)
	if err := httpserver.Run(ctx, srv); err != nil {
		log.Fatal(err)
	}
}

// housekeeping drops idle sessions and expired history.
func housekeeping(ctx context.Context, sessions *app.Sessions, b *app.Backends, retention time.Duration) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Sweep(sessionIdle); n > 0 {
				log.Printf("sessions: dropped %d idle, %d live", n, sessions.Len())
			}
			b.Purge(ctx, retention)
		}
	}
}
