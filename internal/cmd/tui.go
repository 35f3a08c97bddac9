package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wethinkt/go-yesand/internal/api"
	"github.com/wethinkt/go-yesand/internal/config"
	"github.com/wethinkt/go-yesand/internal/download"
	"github.com/wethinkt/go-yesand/internal/metrics"
	"github.com/wethinkt/go-yesand/internal/tui"
	"github.com/wethinkt/go-yesand/internal/tuilog"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive scene session",
	Long: `Start a scene. Pick a persona with the arrow keys and enter,
wait for the audience suggestion, then trade lines with your partner.

Keys:
  ctrl+g   turn the scene into an image
  esc      start a new scene
  ctrl+c   quit

Edits to ~/.yesand/config.json apply while the session runs.`,
	RunE: runTUI,
}

// collaborators builds the backend client and image saver for cfg.
func collaborators(cfg config.Config) (tui.Backend, tui.Saver) {
	client := api.New(cfg.APIBase)
	return client, download.NewSaver(client, cfg.DownloadDir)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLog(cfg); err != nil {
		return err
	}
	defer tuilog.Log.Close()
	tuilog.Log.Info("Starting TUI", "api", cfg.APIBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		if _, err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
			tuilog.Log.Warn("metrics disabled", "error", err)
		}
	}

	// Get initial terminal size - try stdout, stdin, stderr in order
	var opts []tea.ProgramOption
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				tuilog.Log.Info("Terminal size", "fd", fd, "width", w, "height", h)
				opts = append(opts, tea.WithWindowSize(w, h))
				break
			}
		}
	}
	opts = append(opts, tea.WithContext(ctx))

	backend, saver := collaborators(cfg)
	model := tui.New(ctx, tui.Options{
		Config:  cfg,
		Backend: backend,
		Saver:   saver,
		Rebuild: func(next config.Config) (tui.Backend, tui.Saver) {
			if apiBase != "" {
				next.APIBase = apiBase
			}
			return collaborators(next)
		},
	})
	p := tea.NewProgram(model, opts...)

	if path, err := config.Path(); err == nil {
		err := config.Watch(ctx, path, func(next config.Config) {
			tuilog.Log.Info("config reloaded", "path", path)
			p.Send(tui.ConfigChangedMsg{Config: next})
		})
		if err != nil {
			tuilog.Log.Warn("config watch disabled", "error", err)
		}
	}

	_, err = p.Run()
	tuilog.Log.Info("TUI exited", "error", err)
	if ctx.Err() != nil && err != nil {
		// interrupted by a signal
		return nil
	}
	return err
}
