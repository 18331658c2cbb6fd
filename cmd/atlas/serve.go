package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pavelanni/studentatlas/internal/advisor"
	"github.com/pavelanni/studentatlas/internal/export"
	"github.com/pavelanni/studentatlas/internal/handler"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/notify"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API on this machine",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", "127.0.0.1:8080", "HTTP listen address")
	f.String("advisor-url", "", "OpenAI-compatible API base URL (empty disables the advisor)")
	f.String("advisor-key", "", "API key for the advisor")
	f.String("advisor-model", "llama3.2", "Advisor model name")
	f.String("advisor-tone", string(advisor.ToneBalanced), "Advisor tone (encouraging, balanced, direct)")
	f.Int("advisor-per-minute", 6, "Maximum advisor requests per minute")
	f.String("digest-schedule", "0 18 * * 0", "Cron schedule of the progress digest (empty disables it)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	v := a.v

	var adv *advisor.Client
	if url := v.GetString("advisor-url"); url != "" {
		adv, err = advisor.New(advisor.Config{
			BaseURL:   url,
			APIKey:    v.GetString("advisor-key"),
			Model:     v.GetString("advisor-model"),
			Tone:      advisor.Tone(v.GetString("advisor-tone")),
			PerMinute: v.GetInt("advisor-per-minute"),
		})
		if err != nil {
			return fmt.Errorf("create advisor: %w", err)
		}
		slog.Info("advisor enabled", "url", url, "model", v.GetString("advisor-model"))
	}

	sched := notify.NewScheduler()
	if spec := v.GetString("digest-schedule"); spec != "" {
		job := notify.DigestJob(a.db, a.tracker, notify.Multi{notify.LogNotifier{}, a.inbox})
		if err := sched.Add("digest", spec, job); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	h := handler.New(handler.Deps{
		Tracker:      a.tracker,
		Users:        a.db,
		Achievements: a.achievements,
		Importer:     export.NewImporter(a.db, a.tracker),
		Advisor:      adv,
		Inbox:        a.inbox,
		DefaultUser:  a.user.ID,
	})

	lang := v.GetString("lang")
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cmd.Context()
	errc := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"db", v.GetString("db"),
			"user", a.user.ID,
			"lang", lang,
			"advisor", adv != nil,
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
