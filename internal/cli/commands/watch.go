package commands

import (
	"context"
	"fmt"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptmpl/internal/config"
	"github.com/leapstack-labs/leaptmpl/internal/server"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var (
		sets []string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "watch <name>",
		Short: "Re-render a template whenever the templates directory changes",
		Long: `Render a template to --out, then watch the templates directory and
render it again each time a template it depends on changes. Render errors
are reported and watching continues.`,
		Example: `  leaptmpl watch pages/home --out public/index.html`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args[0], sets, out)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a context value (key=value, repeatable)")
	cmd.Flags().StringVar(&out, "out", "", "File to write the rendered output to (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, name string, sets []string, out string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cc.Cfg.Source != config.SourceDir {
		return fmt.Errorf("watch needs a templates directory, source is %q", cc.Cfg.Source)
	}

	stderr := cmd.ErrOrStderr()
	render := func() {
		if _, err := renderTo(cmd, cc, name, sets, out); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return
		}
		_, _ = fmt.Fprintf(stderr, "rendered %s -> %s\n", name, out)
	}
	render()

	w := &server.Watcher{Dir: cc.Cfg.TemplatesDir, Ext: cc.Cfg.Extension, Logger: cc.Logger}
	return w.Run(ctx, func(changed string) {
		// A change nothing cached depends on leaves a good render in place.
		if cc.Engine.Invalidate(changed) == 0 && slices.Contains(cc.Engine.Cached(), name) {
			return
		}
		render()
	})
}
