package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-yesand/internal/api"
	"github.com/wethinkt/go-yesand/internal/i18n"
)

var personasJSON bool

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available scene partners",
	Long: `List the personas the backend offers, with what each one pulls
the scene toward and away from.

Examples:
  yesand personas          # table
  yesand personas --json   # raw catalog`,
	Args: cobra.NoArgs,
	RunE: runPersonas,
}

func runPersonas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	personas, err := api.New(cfg.APIBase).Personas(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if personasJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(personas)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTAGLINE\tPULLS TOWARD\tPULLS AWAY FROM")
	for _, p := range personas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Tagline,
			strings.Join(p.Aesthetic.PullsToward, ", "),
			strings.Join(p.Aesthetic.PullsAwayFrom, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out, i18n.Tn("cmd.personas.count", "{{.Count}} persona", "{{.Count}} personas", len(personas)))
	return nil
}
