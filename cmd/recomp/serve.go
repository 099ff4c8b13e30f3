package main

import (
	"github.com/recomp/recomp/api"
	"github.com/recomp/recomp/logger"
	"github.com/spf13/cobra"
)

// newServeCommand creates the serve command, which runs the HTTP API.
func newServeCommand() *cobra.Command {
	var port string
	var prefork bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recomp HTTP API",
		Long: `The serve command starts an HTTP server exposing the comparison
engine. POST dataset locations and comparison settings to /compare and
receive the comparison summary as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logger.Sync()
			server := api.NewServer(api.ServerOptions{
				Port:    port,
				Prefork: prefork,
				Logger:  logger.Named("api"),
			})
			return server.Start(port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "3000", "Port to listen on")
	cmd.Flags().BoolVar(&prefork, "prefork", false, "Use multiple OS processes")

	return cmd
}
