// Package app initializes and runs the notes service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/notesvc/internal/auth"
	"github.com/patric-chuzhbe/notesvc/internal/config"
	"github.com/patric-chuzhbe/notesvc/internal/db/jsondb"
	"github.com/patric-chuzhbe/notesvc/internal/db/memorystorage"
	"github.com/patric-chuzhbe/notesvc/internal/db/postgresdb"
	"github.com/patric-chuzhbe/notesvc/internal/logger"
	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/note"
	"github.com/patric-chuzhbe/notesvc/internal/router"
	"github.com/patric-chuzhbe/notesvc/internal/service"
	"github.com/patric-chuzhbe/notesvc/internal/sharetoken"
	"github.com/patric-chuzhbe/notesvc/internal/user"
)

type usersKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
	IsUserExists(ctx context.Context, username, email string) (bool, error)
}

type notesKeeper interface {
	CreateNote(ctx context.Context, n *note.Note) (*note.Note, error)
	GetNotesByOwner(ctx context.Context, ownerID string) ([]note.Note, error)
	GetNoteByIDAndOwner(ctx context.Context, id int64, ownerID string) (*note.Note, bool, error)
	UpdateNote(ctx context.Context, n *note.Note) error
	DeleteNote(ctx context.Context, id int64, ownerID string) (bool, error)
	FindSharedNote(ctx context.Context, shareID string) (*note.Note, bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	usersKeeper
	notesKeeper
	pinger
	Close() error
}

// App encapsulates the configuration, HTTP handler and storage backend
// needed to run the notes service.
type App struct {
	cfg         *config.Config
	db          storage
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up authentication, the service layer and the router
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	signingSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.JWTSigningSecretKey)
	if err != nil {
		return nil, err
	}

	theAuth := auth.New(
		app.db,
		signingSecretKey,
		app.cfg.TokenTTL,
		app.cfg.BcryptCost,
	)

	theService := service.New(
		app.db,
		theAuth,
		sharetoken.New(sharetoken.DefaultLength),
	)

	app.httpHandler = router.New(theService, app.db, theAuth)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
