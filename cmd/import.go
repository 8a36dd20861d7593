package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nlucraft/sentencehub/internal/config"
	"github.com/nlucraft/sentencehub/internal/db"
	"github.com/nlucraft/sentencehub/internal/importers"
	"github.com/nlucraft/sentencehub/internal/progress"
	"github.com/nlucraft/sentencehub/internal/sentence"
	"github.com/nlucraft/sentencehub/internal/sentencestore"
)

var (
	importApplication string
	importLanguage    string
	importStatus      string
)

var importCmd = &cobra.Command{
	Use:   "import [patterns...]",
	Short: "Import sentence dumps into the store",
	Long: `Reads JSON sentence dumps matching the given glob patterns (** is
supported) and upserts them into the classified sentence collection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		status := sentence.Status(importStatus)
		if status != "" && !status.Valid() {
			return fmt.Errorf("unknown status %q", importStatus)
		}

		files, err := importers.ExpandGlobs(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no files match %v", args)
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

		ctx = context.Background()
		store := sentencestore.NewMongo(ctx, database.Database(), cfg.DefaultLocale, cfg.SentenceTTLDays, logger)

		opts := importers.Options{
			ApplicationID: importApplication,
			Language:      importLanguage,
			Status:        status,
		}
		count, err := importers.Import(ctx, store, files, opts, progress.NewReporter())
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d sentences from %d files\n", count, len(files))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importApplication, "application", "", "override the application ID of imported sentences")
	importCmd.Flags().StringVar(&importLanguage, "language", "", "override the language of imported sentences")
	importCmd.Flags().StringVar(&importStatus, "status", "", "override the status of imported sentences")
	rootCmd.AddCommand(importCmd)
}
