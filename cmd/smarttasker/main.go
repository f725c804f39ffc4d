package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"smarttasker/internal/app"
	"smarttasker/internal/calendar"
	"smarttasker/internal/credential"
	"smarttasker/internal/dateparse"
	"smarttasker/internal/model"
	"smarttasker/internal/notify"
	"smarttasker/internal/reminder"
	"smarttasker/internal/store"
	"smarttasker/internal/task"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "smarttasker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}

	logger, logFile, err := openLogger(cfg.LogPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening task database: %w", err)
	}
	defer st.Close()

	gateway := buildGateway(cfg, st, logger)
	mirror := buildMirror(cfg, logger)

	coordinator := task.New(st, mirror, logger)
	if err := coordinator.Load(context.Background()); err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	clock := reminder.New(coordinator, gateway, coordinator, st, logger)

	root := app.New(coordinator, clock, dateparse.New())
	program := tea.NewProgram(root, tea.WithAltScreen())

	logger.Info("starting", "db", cfg.DBPath, "gateway", cfg.Notification.Gateway)
	_, err = program.Run()

	clock.Stop()
	coordinator.Stop()
	return err
}

// openLogger writes structured logs to a file; the TUI owns the terminal.
func openLogger(path string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), f, nil
}

// buildGateway selects the reminder delivery mechanism from config.
// Secrets come from the system keyring; a missing secret degrades to a
// gateway that reports "not subscribed" rather than failing startup.
func buildGateway(cfg *model.AppConfig, st store.Store, logger *slog.Logger) notify.Gateway {
	n := cfg.Notification
	switch n.Gateway {
	case "smtp":
		password, err := credential.Get(credential.KeySMTPPassword)
		if err != nil {
			logger.Warn("smtp password not in keyring, sending unauthenticated", "error", err)
		}
		return notify.NewSMTP(logger, n.SMTPHost, n.SMTPPort, n.SMTPFrom, n.SMTPTo, n.SMTPUser, password)

	case "webpush":
		private, err := credential.Get(credential.KeyVAPIDPrivate)
		if err != nil {
			logger.Warn("vapid private key not in keyring, push disabled", "error", err)
		}
		return notify.NewWebPush(st, logger, n.VAPIDSubject, n.VAPIDPublicKey, private)

	default:
		// "none": an unconfigured web push gateway never reports a
		// subscription, so the clock leaves every task pending.
		return notify.NewWebPush(st, logger, "", "", "")
	}
}

// buildMirror constructs the calendar client when mirroring is enabled
// and an OAuth token is present. Returns nil otherwise; the coordinator
// treats a nil mirror as mirroring disabled.
func buildMirror(cfg *model.AppConfig, logger *slog.Logger) task.Mirror {
	if !cfg.Calendar.Enabled {
		return nil
	}

	secret, err := credential.Get(credential.KeyCalendarSecret)
	if err != nil {
		logger.Warn("calendar client secret not in keyring, mirroring disabled", "error", err)
		return nil
	}
	token, err := credential.Get(credential.KeyCalendarToken)
	if err != nil {
		logger.Warn("calendar token not in keyring, mirroring disabled", "error", err)
		return nil
	}

	client, err := calendar.New(context.Background(), cfg.Calendar, secret, token, logger)
	if err != nil {
		logger.Error("calendar client init failed, mirroring disabled", "error", err)
		return nil
	}
	return client
}
