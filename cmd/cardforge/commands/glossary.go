package commands

import (
	"context"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/harulab/cardforge/glossary"
)

// GlossaryCmd looks up game terms
var GlossaryCmd = &cobra.Command{
	Use:   "glossary <terms>",
	Short: "Look up game terms, comma or 、 separated",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		var queries []string
		for _, arg := range args {
			queries = append(queries, glossary.SplitTerms(arg)...)
		}

		matched := glossary.Lookup(bundle, queries)
		if len(matched) == 0 {
			pterm.Warning.Println("No glossary entries matched")
			return nil
		}

		terms := make([]string, 0, len(matched))
		for term := range matched {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			pterm.DefaultSection.Println(term)
			pterm.Println(matched[term])
		}
		return nil
	},
}
