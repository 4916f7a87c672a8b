package commands

import (
	"fmt"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

// RenderOutput is the JSON shape of the render command.
type RenderOutput struct {
	Name   string `json:"name"`
	Output string `json:"output"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var (
		sets []string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Render a template",
		Long: `Compile a template and render it against the configured data files.

Data files (--data, or "data" in leaptmpl.yaml) are merged in order and
--set assignments are applied last. Dotted keys build nested maps.`,
		Example: `  # Render a template to stdout
  leaptmpl render pages/home

  # Render with data and overrides
  leaptmpl render pages/home --data site.yaml --set user.name=Ann

  # Write the result atomically to a file
  leaptmpl render pages/home --out public/index.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], sets, out)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a context value (key=value, repeatable)")
	cmd.Flags().StringVar(&out, "out", "", "Write the rendered output to a file")

	return cmd
}

func runRender(cmd *cobra.Command, name string, sets []string, out string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := renderTo(cmd, cc, name, sets, out)
	if err != nil {
		return err
	}
	if out != "" {
		return nil
	}

	if cc.Cfg.Output == outputJSON {
		return renderJSON(cmd.OutOrStdout(), RenderOutput{Name: name, Output: result})
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), result)
	return err
}

// renderTo renders name and, when out is set, writes it there atomically.
func renderTo(cmd *cobra.Command, cc *CommandContext, name string, sets []string, out string) (string, error) {
	data, err := cc.LoadData(sets)
	if err != nil {
		return "", err
	}
	result, err := cc.Engine.Render(cmd.Context(), name, data)
	if err != nil {
		return "", err
	}
	if out != "" {
		if err := atomic.WriteFile(out, strings.NewReader(result)); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", out, err)
		}
		cc.Logger.Info("rendered", "name", name, "out", out, "bytes", len(result))
	}
	return result, nil
}
