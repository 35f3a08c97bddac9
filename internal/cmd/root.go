// Package cmd provides the CLI commands for yesand.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-yesand/internal/config"
	"github.com/wethinkt/go-yesand/internal/i18n"
	"github.com/wethinkt/go-yesand/internal/tuilog"
)

// global flags
var (
	profileFile *os.File // held open for profiling
	logPath     string
	verbose     bool
	apiBase     string
)

// rootCmd is the root command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "yesand",
	Short: "Improvise a scene with an AI partner in your terminal",
	Long: `yesand is a terminal scene partner for "yes, and" improv.

Pick a persona, take a suggestion from the audience, trade lines with
the AI, then turn the scene into an image that is revealed in the
terminal.

Running without a subcommand launches the interactive session.

Examples:
  yesand                          # Start a scene
  yesand personas                 # List the scene partners
  yesand check                    # Check the backend is up
  yesand config show              # Print the effective configuration`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Start pprof profiling if YESAND_PROFILE is set
		if profilePath := os.Getenv("YESAND_PROFILE"); profilePath != "" {
			f, err := os.Create(profilePath)
			if err != nil {
				return fmt.Errorf("create profile file: %w", err)
			}
			profileFile = f

			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				profileFile = nil
				return fmt.Errorf("start CPU profile: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if profileFile != nil {
			pprof.StopCPUProfile()
			profileFile.Close()
			profileFile = nil
		}
		return nil
	},
	RunE: runTUI,
}

// Execute runs the root command.
func Execute() error {
	cfg, err := config.Load()
	if err != nil {
		// The command that needs the config reports the error itself.
		cfg = config.Default()
	}
	i18n.Init(i18n.ResolveLocale(cfg.Language))
	localizeCommands()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", "", "backend base URL (overrides api_base)")

	// Shared by the session, which writes the log, and logs, which reads it
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "session log file (default ~/.yesand/logs/yesand.log)")

	personasCmd.Flags().BoolVar(&personasJSON, "json", false, "output as JSON")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
	logsCmd.Flags().IntP("lines", "n", 50, "number of lines to show")
	logsCmd.Flags().BoolP("follow", "f", false, "follow the log for new lines")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(languageCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(versionCmd)
}

// localizeCommands swaps the command summaries for the active language.
func localizeCommands() {
	rootCmd.Short = i18n.T("cmd.root.short", rootCmd.Short)
	tuiCmd.Short = i18n.T("cmd.tui.short", tuiCmd.Short)
	personasCmd.Short = i18n.T("cmd.personas.short", personasCmd.Short)
	checkCmd.Short = i18n.T("cmd.check.short", checkCmd.Short)
	configCmd.Short = i18n.T("cmd.config.short", configCmd.Short)
	configShowCmd.Short = i18n.T("cmd.config.show.short", configShowCmd.Short)
	configPathCmd.Short = i18n.T("cmd.config.path.short", configPathCmd.Short)
	languageCmd.Short = i18n.T("cmd.language.short", languageCmd.Short)
	logsCmd.Short = i18n.T("cmd.logs.short", logsCmd.Short)
	versionCmd.Short = i18n.T("cmd.version.short", versionCmd.Short)
}

// loadConfig reads the configuration and applies the --api flag.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if apiBase != "" {
		cfg.APIBase = apiBase
	}
	return cfg, nil
}

// defaultLogPath is where the session log goes when --log is not set.
func defaultLogPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "yesand.log"), nil
}

// initLog opens the session log at the configured level, or debug with
// --verbose.
func initLog(cfg config.Config) error {
	path := logPath
	if path == "" {
		p, err := defaultLogPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	truncateIfLarge(path)

	level, err := tuilog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = tuilog.LevelInfo
	}
	if verbose {
		level = tuilog.LevelDebug
	}
	return tuilog.Init(path, level)
}
