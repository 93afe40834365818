package main

import (
	"github.com/spf13/cobra"

	"github.com/nhle/crmterm/internal/devserver"
	"github.com/nhle/crmterm/internal/logging"
)

func newDevServerCommand(g *globals) *cobra.Command {
	var (
		addr  string
		token string
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory CRM backend for local development",
		Long: `devserver serves the REST API and the push socket the client uses,
backed by seeded in-memory data. Every bid created through it is pushed
to connected clients as a NewBid event.`,
		Example: `  # Serve on the default site address
  crmterm devserver

  # Require a token and point the client at it
  crmterm devserver --addr :8080 --token dev
  CRM_API_URL=http://localhost:8080/api CRM_API_TOKEN=dev crmterm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := g.logLevel
			if level == "" {
				level = "info"
			}
			log, closer, err := logging.New(logging.Config{Level: level, Console: true})
			if err != nil {
				return err
			}
			defer closeQuietly(closer)

			srv := devserver.New(devserver.Options{Token: token, Logger: log})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "listen address")
	cmd.Flags().StringVar(&token, "token", "", "bearer token required on API requests (empty accepts any)")
	return cmd
}
