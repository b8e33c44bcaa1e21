package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/harulab/cardforge/catalog"
	"github.com/harulab/cardforge/search"
)

// SearchCmd resolves queries against the catalog
var SearchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Resolve one or more queries against the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exactOnly, _ := cmd.Flags().GetBool("exact")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.ensureReady(ctx); err != nil {
			return err
		}
		bundle, err := a.repo.Bundle()
		if err != nil {
			return err
		}
		sources, err := a.sources(ctx, bundle)
		if err != nil {
			return err
		}

		opts := a.searchOptions()
		if exactOnly {
			opts.ExactOnly = true
		}
		if limit > 0 {
			opts.Limit = limit
		}

		results := search.Search(args, sources, opts)
		if results.Empty() {
			pterm.Warning.Println("No matches")
			return nil
		}

		table := pterm.TableData{{"Kind", "Source", "Matched", "Score", "Operator"}}
		for _, m := range results.Matches {
			opName := ""
			if op, ok := m.Value.(*catalog.Operator); ok && op != nil {
				opName = fmt.Sprintf("%s (%s)", op.Name, op.ID)
			}
			table = append(table, []string{
				string(m.Kind),
				m.SourceKey,
				m.MatchedText,
				fmt.Sprintf("%.3f", m.Score),
				opName,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	},
}

func init() {
	SearchCmd.Flags().Bool("exact", false, "Only accept exact matches")
	SearchCmd.Flags().Int("limit", 0, "Cap the number of results")
}
