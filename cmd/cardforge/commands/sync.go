package commands

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// SyncCmd updates the gamedata and reloads the catalog
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update the gamedata from its git repository and reload the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		spinner, _ := pterm.DefaultSpinner.Start("Synchronizing gamedata...")
		if err := a.repo.Sync(ctx); err != nil {
			spinner.Fail(err.Error())
			return err
		}

		bundle, err := a.repo.Bundle()
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success("Gamedata synchronized")
		pterm.Info.Printfln("version=%s operators=%d tokens=%d",
			bundle.Version, len(bundle.Operators), len(bundle.Tokens))
		return nil
	},
}
