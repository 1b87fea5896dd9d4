package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chainbench/chainbench/internal/webapi"
	"github.com/chainbench/chainbench/internal/webserver"
)

type serveOptions struct {
	port      int
	dir       string
	noBrowser bool
	origins   []string
}

func newServeCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve exported dashboard data over HTTP",
		Long: `Serve the dashboard data directory on localhost.

The root page lists exported runs. The raw export files are served under
/data/ and a JSON API is available:

  GET /api/health
  GET /api/summary                 run totals and the latest label shares
  GET /api/runs?sort=&order=       the run index (sort: timestamp, results, models, prompts)
  GET /api/runs/{id}               one exported run ("latest" for the newest)
  GET /api/compare?base=&alt=&field=
                                   label shifts between two runs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveCommandE(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", webserver.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Dashboard data directory (default from chainbench.yaml)")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Do not open a browser")
	cmd.Flags().StringSliceVar(&opts.origins, "allow-origin", nil, "Origins allowed to call the API from a browser")

	return cmd
}

func serveCommandE(cmd *cobra.Command, opts serveOptions) error {
	if opts.dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts.dir = cfg.Paths.Dashboard
	}
	webapi.Version = version

	srv, err := webserver.New(webserver.Config{
		Port:           opts.port,
		DataDir:        opts.dir,
		NoBrowser:      opts.noBrowser,
		AllowedOrigins: opts.origins,
		Logger:         slog.Default(),
		Out:            cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(cmd.Context())
}
