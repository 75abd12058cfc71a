package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wikiviewer/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		origins []string
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search results as a JSON API",
		Long: `Serve the article search as a JSON HTTP API for browser widgets.

Routes:
  GET /api/search?q=<keyword>
  GET /api/random
  GET /healthz
  GET /version`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("origin") {
				cfg.Server.AllowedOrigins = origins
			}

			client, backend, err := c.newClient(ctx, strict)
			if err != nil {
				return err
			}
			defer backend.Close()

			printKeyValue("Endpoint", client.Endpoint())
			printKeyValue("Cache", cfg.Cache.Backend)
			printKeyValue("Origins", strings.Join(cfg.Server.AllowedOrigins, ", "))

			srv := server.New(client, server.Options{
				Addr:           cfg.Server.Addr,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         loggerFromContext(ctx),
			})
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail searches with unresolved hits")

	return cmd
}
