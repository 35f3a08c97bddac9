package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-yesand/internal/api"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the backend is reachable",
	Long: `Probe the backend's persona catalog and suggestion endpoints and
report how long each took. Exits non-zero if either fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

type probe struct {
	name string
	took time.Duration
	err  error
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := api.New(cfg.APIBase)

	probes := []probe{{name: "/personas"}, {name: "/suggest"}}
	run := []func(ctx context.Context) error{
		func(ctx context.Context) error {
			_, err := client.Personas(ctx)
			return err
		},
		func(ctx context.Context) error {
			_, err := client.Suggestion(ctx)
			return err
		},
	}

	// A plain group: one failing probe must not cancel the other.
	var g errgroup.Group
	for i := range probes {
		g.Go(func() error {
			start := time.Now()
			err := run[i](cmd.Context())
			probes[i].err = err
			probes[i].took = time.Since(start)
			if err != nil {
				return fmt.Errorf("%s: %w", probes[i].name, err)
			}
			return nil
		})
	}
	groupErr := g.Wait()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend %s\n", client.Base())
	failed := 0
	for _, p := range probes {
		if p.err != nil {
			failed++
			fmt.Fprintf(out, "  %-10s FAIL  %v\n", p.name, p.err)
			continue
		}
		fmt.Fprintf(out, "  %-10s ok    %s\n", p.name, p.took.Round(time.Millisecond))
	}
	if groupErr != nil {
		return fmt.Errorf("%d of %d checks failed: %w", failed, len(probes), groupErr)
	}
	return nil
}
