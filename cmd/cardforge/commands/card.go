package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/harulab/cardforge/cards"
	"github.com/harulab/cardforge/catalog"
	"github.com/harulab/cardforge/profile"
	"github.com/harulab/cardforge/search"
)

// CardCmd builds a card artifact for an operator
var CardCmd = &cobra.Command{
	Use:   "card <operator>",
	Short: "Build a card artifact for an operator",
	Long: `Resolve an operator and build its card artifact in the requested format.
Without --skill the basic profile card is built; with --skill the sheet of
that skill at --level.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatFlag, _ := cmd.Flags().GetString("format")
		skillIndex, _ := cmd.Flags().GetInt("skill")
		level, _ := cmd.Flags().GetInt("level")

		format, err := cards.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout(a.cfg))
		defer cancel()

		if err := a.ensureReady(ctx); err != nil {
			return err
		}
		bundle, err := a.repo.Bundle()
		if err != nil {
			return err
		}

		op, candidates, err := resolveUnique(ctx, a, bundle, args[0])
		if err != nil {
			return err
		}
		if op == nil {
			if len(candidates) == 0 {
				pterm.Warning.Printfln("No operator matches %q", args[0])
				return nil
			}
			pterm.Warning.Printfln("Ambiguous query, candidates: %s", strings.Join(candidates, "、"))
			return nil
		}

		var (
			result     *profile.QueryResult
			template   string
			payloadKey string
		)
		if skillIndex > 0 {
			result, err = profile.Skill(bundle, op, skillIndex, level)
			template = "operator_skill"
			payloadKey = fmt.Sprintf("%s:skill%d:lv%d:%s", op.Name, skillIndex, level, bundle.Version)
		} else {
			result, err = profile.Basic(bundle, op.Name, "")
			template = "operator_basic"
			payloadKey = fmt.Sprintf("%s:%s", op.Name, bundle.Version)
		}
		if err != nil {
			return err
		}

		artifact, err := a.cards.Get(ctx, template, payloadKey, result, nil, format)
		if err != nil {
			return err
		}

		pterm.Success.Printfln("Artifact ready: %s", artifact.Path)
		if format == cards.FormatTXT {
			text, err := artifact.Text()
			if err != nil {
				return err
			}
			pterm.Println(text)
		}
		return nil
	},
}

func init() {
	CardCmd.Flags().String("format", "txt", "Artifact format: txt, json, html or png")
	CardCmd.Flags().Int("skill", 0, "Skill index (1-based); 0 builds the basic profile card")
	CardCmd.Flags().Int("level", 10, "Skill level 1-10 (8-10 are mastery stages)")
}

// resolveUnique runs the resolver and insists on a single distinct operator
func resolveUnique(ctx context.Context, a *app, bundle *catalog.Bundle, query string) (*catalog.Operator, []string, error) {
	sources, err := a.sources(ctx, bundle)
	if err != nil {
		return nil, nil, err
	}

	results := search.SearchOne(query, sources, a.searchOptions())

	seen := make(map[string]*catalog.Operator)
	var names []string
	for _, m := range results.Matches {
		op, ok := m.Value.(*catalog.Operator)
		if !ok || op == nil {
			continue
		}
		if _, dup := seen[op.ID]; !dup {
			seen[op.ID] = op
			names = append(names, op.Name)
		}
	}
	if len(seen) == 1 {
		for _, op := range seen {
			return op, nil, nil
		}
	}
	return nil, names, nil
}
