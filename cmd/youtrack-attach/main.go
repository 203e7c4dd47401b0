package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/viper"
	"github.com/welldanyogia/youtrack-attach/internal/cli"
	"github.com/welldanyogia/youtrack-attach/internal/config"
	"github.com/welldanyogia/youtrack-attach/internal/database"
	apperrors "github.com/welldanyogia/youtrack-attach/internal/errors"
	"github.com/welldanyogia/youtrack-attach/internal/logger"
	"github.com/welldanyogia/youtrack-attach/internal/repository"
	"github.com/welldanyogia/youtrack-attach/internal/services"
	"github.com/welldanyogia/youtrack-attach/internal/storage"
	"github.com/welldanyogia/youtrack-attach/pkg/youtrack"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		appErr := apperrors.Classify(err)
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", appErr.Code, appErr)
		os.Exit(appErr.ExitCode)
	}
}

// app builds its parts on first use. Help and argument errors need no
// configuration, and only journal commands open the database.
type app struct {
	config     func() (*config.Config, error)
	connection func() (*youtrack.Connection, error)
	journal    func() (*gorm.DB, error)
	db         *gorm.DB
}

func newApp() *app {
	a := &app{}

	a.config = sync.OnceValues(func() (*config.Config, error) {
		cfg, err := config.LoadWithValidation(viper.New())
		if err != nil {
			return nil, err
		}

		// Stdout carries command output, so logs go to stderr
		log := logger.New(cfg.LogLevel, os.Stderr)
		slog.SetDefault(log)
		cfg.LogConfig(log)
		return cfg, nil
	})

	a.connection = sync.OnceValues(func() (*youtrack.Connection, error) {
		cfg, err := a.config()
		if err != nil {
			return nil, err
		}

		staging, err := storage.NewLocalStorage(cfg.StagingPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize staging area: %w", err)
		}

		requester, err := youtrack.NewHTTPRequester(cfg.YouTrackURL,
			youtrack.WithToken(cfg.Token),
			youtrack.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
			youtrack.WithRequestLogger(slog.Default()),
		)
		if err != nil {
			return nil, err
		}

		return youtrack.NewConnection(requester,
			youtrack.WithStaging(staging),
			youtrack.WithLogger(slog.Default()),
		), nil
	})

	a.journal = sync.OnceValues(func() (*gorm.DB, error) {
		cfg, err := a.config()
		if err != nil {
			return nil, err
		}

		db, err := database.Connect(cfg.JournalDatabaseURL, cfg.AppEnv == "production")
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			database.Close(db)
			return nil, err
		}
		a.db = db
		return db, nil
	})

	return a
}

func (a *app) client() (cli.AttachmentClient, error) {
	conn, err := a.connection()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (a *app) copier() (services.AttachmentCopierService, error) {
	conn, err := a.connection()
	if err != nil {
		return nil, err
	}
	db, err := a.journal()
	if err != nil {
		return nil, err
	}
	return services.NewAttachmentCopierService(conn, repository.NewTransferRepository(db), slog.Default()), nil
}

// close releases the journal if a command opened it
func (a *app) close() {
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			slog.Warn("failed to close journal", slog.Any("error", err))
		}
	}
}

func run() error {
	a := newApp()
	defer a.close()

	root := cli.NewRootCommand(cli.Dependencies{
		Client: a.client,
		Copier: a.copier,
		Output: os.Stdout,
	})
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return root.ExecuteContext(ctx)
}
