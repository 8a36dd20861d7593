package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nlucraft/sentencehub/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sentencehub configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure sentencehub and generates a .sentencehub.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
