package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/studentatlas/internal/achievement"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/notify"
	"github.com/pavelanni/studentatlas/internal/store"
	"github.com/pavelanni/studentatlas/internal/tracker"
)

//go:generate templ generate -path ../../internal/handler/views

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "atlas",
		Short:        "Track semesters, courses and GPA",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.String("db", "atlas.db", "SQLite database path")
	pf.StringP("user", "u", "me", "Profile to act on")
	pf.StringP("lang", "l", "en", "Language (en, ru)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	serve := serveCmd()
	root.AddCommand(
		serve,
		semesterCmd(),
		courseCmd(),
		gpaCmd(),
		targetCmd(),
		exportCmd(),
		importCmd(),
		achievementsCmd(),
		digestCmd(),
	)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var h slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// viperForCmd binds a command's flags, ATLAS_* environment variables and an
// optional atlas.{yaml,toml,json} config file to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	_ = v.BindPFlags(cmd.InheritedFlags())

	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("atlas")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/atlas")
	v.AddConfigPath("/etc/atlas")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// app is the wired core shared by every command.
type app struct {
	v            *viper.Viper
	db           *store.Store
	tracker      *tracker.Tracker
	achievements *achievement.Service
	inbox        *notify.Recorder
	user         *model.User
}

// openApp configures logging and i18n, opens the database and makes sure
// the selected profile exists.
func openApp(cmd *cobra.Command) (*app, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	inbox := notify.NewRecorder(200)
	notifier := notify.Multi{notify.LogNotifier{}, inbox}
	achievements := achievement.NewService(db, notifier)
	risk := notify.NewRiskWatcher(notifier)
	tr := tracker.New(db,
		tracker.WithChangeFunc(achievements.OnChange),
		tracker.WithChangeFunc(risk.OnChange),
	)

	userID := v.GetString("user")
	user, err := db.EnsureUser(cmd.Context(), model.User{ID: userID, DisplayName: userID, Lang: lang})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}

	return &app{
		v:            v,
		db:           db,
		tracker:      tr,
		achievements: achievements,
		inbox:        inbox,
		user:         user,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
