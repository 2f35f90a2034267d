// Package server initializes and runs the fileshare server. It wires the
// metadata store, blob backend and crypto engine together, starts the HTTP
// API and the background sweeper, and handles graceful shutdown.
package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/Barnamoyy/fileshare/internal/cryptox"
	"github.com/Barnamoyy/fileshare/internal/logging"
	"github.com/Barnamoyy/fileshare/internal/server/blob"
	"github.com/Barnamoyy/fileshare/internal/server/config"
	"github.com/Barnamoyy/fileshare/internal/server/httpapi"
	"github.com/Barnamoyy/fileshare/internal/server/metrics"
	"github.com/Barnamoyy/fileshare/internal/server/services"
	"github.com/Barnamoyy/fileshare/internal/server/shared/db"
	"github.com/Barnamoyy/fileshare/internal/server/sweeper"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	repoManager   db.RepositoryManager
	objectService *services.ObjectService
	metrics       *metrics.StoreMetrics
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	if c.MasterKeyHex == "" {
		ephemeral, err := common.MakeRandHexString(cryptox.KeySize)
		if err != nil {
			return nil, fmt.Errorf("master key generation error: %w", err)
		}
		c.MasterKeyHex = ephemeral
		logger.Warn(ctx, "no master key configured, generated an ephemeral one; stored objects will not survive a restart")
	}

	masterKey, err := hex.DecodeString(c.MasterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("master key decode error: %w", err)
	}
	keys, err := cryptox.NewKeyWrapper(masterKey)
	if err != nil {
		return nil, fmt.Errorf("key wrapper init error: %w", err)
	}

	rm, err := newRepositoryManager(c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blobs, err := newBlobStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	m := metrics.New()
	svc := services.NewObjectService(rm.Objects(), blobs, keys, logger, m, c.PublicBaseURL, c.MaxUploadBytes)

	return &App{
		config:        c,
		logger:        logger,
		repoManager:   rm,
		objectService: svc,
		metrics:       m,
	}, nil
}

func newRepositoryManager(c *config.Config) (db.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return db.NewInMemoryRepositoryManager(), nil
	}
	return db.NewPostgresRepositoryManager(c.DatabaseDSN)
}

func newBlobStore(ctx context.Context, c *config.Config) (blob.Store, error) {
	switch c.BlobBackend {
	case "s3":
		return blob.NewS3Store(ctx, blob.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	case "fs":
		return blob.NewFSStore(c.FSRoot)
	case "memory":
		return blob.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	handler := httpapi.NewObjectHandler(app.objectService, app.logger,
		[]byte(app.config.SweepSecret), app.config.MaxUploadBytes, app.metrics.Registry())

	s := httpapi.NewServer(app.config.EndpointAddr, handler.Router(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSweeper(ctx context.Context) {
	s := sweeper.New(app.objectService, app.logger, app.config.SweepInterval, app.config.SweepRunTimeout)
	s.Run(ctx)
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repoManager.RunMigrations(ctx); err != nil {
		app.logger.Error(ctx, "migration error", "error", err.Error())
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startSweeper(ctx)
		}()
	}

	wg.Wait()
}
