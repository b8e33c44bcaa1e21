package commands

import (
	"context"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/harulab/cardforge/errors"
)

// AliasCmd manages nickname aliases
var AliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage nickname aliases",
}

var aliasAddCmd = &cobra.Command{
	Use:   "add <nickname> <target>",
	Short: "Teach a nickname for a catalog entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.alias == nil {
			return errors.New("no alias database configured, set data.alias_db_path")
		}
		if err := a.alias.Create(ctx, args[0], args[1], "cli"); err != nil {
			return err
		}
		pterm.Success.Printfln("%s ⇄ %s", args[0], args[1])
		return nil
	},
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.alias == nil {
			return errors.New("no alias database configured, set data.alias_db_path")
		}
		all, err := a.alias.All(ctx)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			pterm.Info.Println("No aliases taught yet")
			return nil
		}

		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		table := pterm.TableData{{"Alias", "Targets"}}
		for _, k := range keys {
			table = append(table, []string{k, strings.Join(all[k], ", ")})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	},
}

var aliasRemoveCmd = &cobra.Command{
	Use:   "rm <nickname> <target>",
	Short: "Remove a nickname mapping",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.alias == nil {
			return errors.New("no alias database configured, set data.alias_db_path")
		}
		if err := a.alias.Delete(ctx, args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printfln("Removed %s ⇄ %s", args[0], args[1])
		return nil
	},
}

func init() {
	AliasCmd.AddCommand(aliasAddCmd)
	AliasCmd.AddCommand(aliasListCmd)
	AliasCmd.AddCommand(aliasRemoveCmd)
}
