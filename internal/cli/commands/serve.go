package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptmpl/internal/config"
	"github.com/leapstack-labs/leaptmpl/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered templates over HTTP",
		Long: `Start an HTTP server rendering templates on request.

  GET /render/{name}   render a template; query parameters are key=value data
  GET /templates       list template identifiers
  GET /events          server-sent events naming changed templates
  GET /healthz         liveness probe

With --watch, edits under the templates directory evict the changed template
and every template depending on it from the cache.`,
		Example: `  leaptmpl serve --addr :8080 --watch
  curl 'http://localhost:8080/render/pages/home?user.name=Ann'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, sets)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default 127.0.0.1:8080)")
	cmd.Flags().Bool("watch", false, "Invalidate cached templates when files change")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a context value for every request (key=value, repeatable)")
	return cmd
}

func runServe(cmd *cobra.Command, sets []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := cc.LoadData(sets)
	if err != nil {
		return err
	}

	watch := cc.Cfg.Serve.Watch
	if watch && cc.Cfg.Source != config.SourceDir {
		cc.Logger.Warn("--watch needs a templates directory, ignoring", "source", cc.Cfg.Source)
		watch = false
	}

	srv := server.New(server.Config{
		Engine: cc.Engine,
		Data:   data,
		Addr:   cc.Cfg.Serve.Addr,
		Watch:  watch,
		Dir:    cc.Cfg.TemplatesDir,
		Ext:    cc.Cfg.Extension,
		Logger: cc.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving templates on http://%s\n", cc.Cfg.Serve.Addr)
	return srv.Serve(ctx)
}
