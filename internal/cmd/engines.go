package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Iron-Ham/uccibridge/internal/config"
	"github.com/Iron-Ham/uccibridge/internal/discover"
	"github.com/spf13/cobra"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List engine executables in the search paths",
	Long: `List the executables in engine.search_paths whose names match one of
engine.patterns, in the order "run" and "move" would consider them.`,
	Args: cobra.NoArgs,
	RunE: runEngines,
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}

func runEngines(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dirs := expandPaths(cfg.Engine.SearchPaths)
	found, err := discover.Find(dirs, cfg.Engine.Patterns)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(found) == 0 {
		fmt.Fprintf(out, "No engines found in %s matching %s\n",
			strings.Join(dirs, ", "), strings.Join(cfg.Engine.Patterns, ", "))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATTERN\tPATH")
	for _, c := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Pattern, c.Path)
	}
	return w.Flush()
}
