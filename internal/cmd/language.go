package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-yesand/internal/config"
	"github.com/wethinkt/go-yesand/internal/i18n"
)

var languageCmd = &cobra.Command{
	Use:   "language [lang]",
	Short: "Get or set the display language",
	Long: `Get or set the display language. Use a BCP 47 tag (e.g., en, es).
A running session picks up the change.

Examples:
  yesand language       # show current language
  yesand language es    # switch to Spanish`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Current language: %s\n", i18n.ResolveLocale(cfg.Language))
			return nil
		}

		cfg.Language = args[0]
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Language set to: %s\n", args[0])
		return nil
	},
}
