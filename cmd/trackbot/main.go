package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dpogorelov/trackbot/internal/bot"
	"github.com/dpogorelov/trackbot/internal/cli"
	"github.com/dpogorelov/trackbot/internal/config"
	"github.com/dpogorelov/trackbot/internal/db"
	"github.com/dpogorelov/trackbot/internal/redmine"
	"github.com/dpogorelov/trackbot/internal/repository"
	"github.com/dpogorelov/trackbot/internal/service"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local overrides live in .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TRACKBOT_CONFIG"))
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating state directory: %w", err)
		}
	}
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories and the unit of work.
	draftRepo := repository.NewSQLiteDraftRepo(database)
	linkRepo := repository.NewSQLiteLinkRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	// Wire the tracker client.
	tracker := redmine.NewClient(redmine.Config{
		BaseURL:         cfg.Redmine.BaseURL,
		Timeout:         cfg.Redmine.Timeout,
		OpenIssuesLimit: cfg.Redmine.OpenIssuesLimit,
	}, redmine.NewLogObserver(os.Stderr))

	// Wire services.
	observer := service.NewLogUseCaseObserver(os.Stderr)
	wizard := service.NewWizardService(draftRepo, linkRepo, tracker, uow, service.WizardConfig{
		GeneralIssues:  cfg.Wizard.GeneralIssues,
		DateWindowDays: cfg.Wizard.DateWindowDays,
		DefaultComment: cfg.Wizard.DefaultComment,
	}, observer)
	linker := service.NewLinkService(linkRepo, tracker, observer)

	// Wire the chat-facing surface.
	transport := bot.NewBridgeTransport(bot.BridgeConfig{
		BaseURL: cfg.Bridge.BaseURL,
		Token:   cfg.Bridge.Token,
		Timeout: cfg.Bridge.Timeout,
	})
	b := bot.New(wizard, linker, transport, log)

	app := &cli.App{
		Wizard:     wizard,
		Linker:     linker,
		Webhook:    bot.NewRouter(b, cfg.Webhook.Token, log),
		ListenAddr: cfg.ListenAddr,
		Log:        log,
	}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
