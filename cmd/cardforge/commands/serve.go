package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/harulab/cardforge/server"
)

// ServeCmd runs the card artifact file server
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cached card artifacts over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.close()

		if addr == "" {
			addr = a.cfg.Server.Addr
		}

		pterm.Info.Printfln("Serving %s under %s on %s", a.cfg.Cache.Root, server.CardsMountPath, addr)
		return server.ListenAndServe(addr, a.cfg.Cache.Root)
	},
}

func init() {
	ServeCmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
}
