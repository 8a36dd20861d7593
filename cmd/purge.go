package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/nlucraft/sentencehub/internal/config"
	"github.com/nlucraft/sentencehub/internal/db"
	"github.com/nlucraft/sentencehub/internal/sentence"
	"github.com/nlucraft/sentencehub/internal/sentencestore"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge <status>",
	Short: "Delete every sentence with the given status",
	Long:  `Deletes all sentences in the given lifecycle status, typically deleted or inbox. Asks for confirmation unless --yes is set.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := sentence.Status(args[0])
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", args[0])
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if !purgeYes {
			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("Delete ALL sentences with status %s from %s", status, cfg.Database),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				fmt.Println("Aborted.")
				return nil
			}
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

		if err := store.DeleteByStatus(ctx, status); err != nil {
			return err
		}

		fmt.Printf("Purged sentences with status %s\n", status)
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip confirmation")
	rootCmd.AddCommand(purgeCmd)
}
