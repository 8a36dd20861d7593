package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nlucraft/sentencehub/internal/api"
	"github.com/nlucraft/sentencehub/internal/application"
	"github.com/nlucraft/sentencehub/internal/config"
	"github.com/nlucraft/sentencehub/internal/db"
	"github.com/nlucraft/sentencehub/internal/entitycache"
	"github.com/nlucraft/sentencehub/internal/sentencestore"
	"github.com/nlucraft/sentencehub/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sentencehub REST API server",
	Long:  `Connects to MongoDB and serves the sentence administration API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger := newLogger()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		database, err := db.Open(ctx, cfg.MongoURI, cfg.Database)
		cancel()
		if err != nil {
			return fmt.Errorf("connecting to mongodb: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			database.Close(ctx)
		}()

		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sentences := sentencestore.NewMongo(ctx, database.Database(), cfg.DefaultLocale, cfg.SentenceTTLDays, logger)

		apps, err := application.NewMongo(ctx, database.Database())
		if err != nil {
			// A missing index degrades uniqueness checks, not the API.
			logger.Warn().Err(err).Msg("application index setup failed")
		}

		cache := entitycache.New(entitycache.MongoLoader(database.Database()))
		if err := cache.Load(ctx); err != nil {
			logger.Warn().Err(err).Msg("entity type cache preload failed")
		}

		srv := server.New(server.Config{Port: cfg.Port, AllowAll: cfg.AllowAllCORS}, database, logger)
		api.RegisterRoutes(srv.Router(), sentences, cache)
		application.RegisterRoutes(srv.Router(), apps, sentences)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case <-stop:
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
