// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/shortssprint/shortssprint/internal/auth"
	"github.com/shortssprint/shortssprint/internal/config"
	"github.com/shortssprint/shortssprint/internal/drive"
	"github.com/shortssprint/shortssprint/internal/gclient"
	"github.com/shortssprint/shortssprint/internal/http/routes"
	"github.com/shortssprint/shortssprint/internal/jobs"
	"github.com/shortssprint/shortssprint/internal/sheets"
	"github.com/shortssprint/shortssprint/internal/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Printf("starting app on :%s", cfg.Port)

	// Google client pool
	pool := gclient.NewPool(gclient.Options{
		SheetID:           cfg.Sheet.ID,
		CredentialsBase64: cfg.Google.CredentialsBase64,
		CredentialsFile:   cfg.Google.CredentialsFile,
		Trust:             cfg.Serverless,
	}, logger)

	// Sheet access
	reader := sheets.NewReader(sheets.ReaderOptions{
		SheetID:        cfg.Sheet.ID,
		MainGID:        cfg.Sheet.MainGID,
		CredentialsGID: cfg.Sheet.CredentialsGID,
		SheetTTL:       cfg.Cache.SheetTTL,
		CredentialsTTL: cfg.Cache.CredentialsTTL,
		FiltersTTL:     cfg.Cache.FiltersTTL,
	}, logger)
	writer := sheets.NewWriter(sheets.WriterOptions{
		SheetID:        cfg.Sheet.ID,
		MainGID:        cfg.Sheet.MainGID,
		CredentialsGID: cfg.Sheet.CredentialsGID,
		TicketsGID:     cfg.Sheet.TicketsGID,
		ReeditGID:      cfg.Sheet.ReeditGID,
		Retries:        cfg.Sheet.WriteRetries,
	}, pool, reader, logger)

	// Video library
	store, err := video.NewStore(cfg.Video.StorageDir, logger)
	if err != nil {
		log.Fatalf("video storage error: %v", err)
	}
	downloader := video.NewDownloader(store, logger)
	uploader := drive.NewUploader(pool, cfg.Google.DriveFolderID, logger)

	// Download jobs. Serverless deployments have no long-lived process
	// to run workers in, so async downloads are rejected there.
	registry := jobs.NewRegistry(cfg.Jobs.Capacity)
	var runner *jobs.Runner
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if !cfg.Serverless {
		runner = jobs.NewRunner(registry, cfg.Jobs.Workers, func(ctx context.Context, task jobs.Task) (any, error) {
			return downloader.Download(ctx, task.URL, task.ContentType)
		}, logger)
		runner.Start(ctx)
	}

	// Auth
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	google := auth.NewGoogleVerifier(cfg.Google.OAuthClientID, cfg.Auth.AllowedDomains)

	// Router / server
	s := routes.New(routes.ServerOptions{
		Reader:     reader,
		Writer:     writer,
		Store:      store,
		Downloader: downloader,
		Uploader:   uploader,
		Registry:   registry,
		Runner:     runner,
		Tokens:     tokens,
		Google:     google,
		Cfg:        cfg,
		Log:        logger,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: h}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	if runner != nil {
		runner.Stop()
	}
}
