package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depmap/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON query API",
		Long: `Serve loads the saved snapshot once and answers read-only queries under
/api until interrupted.`,
		Example: `  depmap serve
  depmap serve --addr :9000
  curl localhost:8080/api/package/curl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			srv := server.New(g, server.Options{
				Logger:   c.Logger,
				Analysis: c.Config.Analysis.Options(),
			})
			printInfo("Listening on http://%s", addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}
