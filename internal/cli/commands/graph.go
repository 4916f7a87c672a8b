package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptmpl/internal/graph"
)

// GraphNode is the JSON shape of one template in the dependency graph.
type GraphNode struct {
	Name         string   `json:"name"`
	Level        int      `json:"level"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
	Error        string   `json:"error,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var affected []string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show how templates depend on each other",
		Long: `Compile every template and print the extends/include dependency graph,
grouped by level: level 0 templates depend on nothing, every other template
sits one level above its deepest dependency.

With --affected, print only the templates that need re-rendering when the
named templates change.`,
		Example: `  leaptmpl graph
  leaptmpl graph --affected layouts/base --affected partials/nav`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, affected)
		},
	}
	cmd.Flags().StringArrayVar(&affected, "affected", nil, "List templates affected by a change to this one (repeatable)")
	return cmd
}

func runGraph(cmd *cobra.Command, affected []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	names, err := cc.listTemplates(cmd.Context())
	if err != nil {
		return err
	}
	g, failed := graph.Build(cmd.Context(), cc.Engine, names)
	for name, err := range failed {
		cc.Logger.Warn("template does not compile", "name", name, "error", err)
	}

	w := cmd.OutOrStdout()
	if len(affected) > 0 {
		result := g.Affected(affected...)
		if cc.Cfg.Output == outputJSON {
			return renderJSON(w, result)
		}
		for _, name := range result {
			_, _ = fmt.Fprintln(w, name)
		}
		return nil
	}

	levels, err := g.Levels()
	if err != nil {
		return err
	}

	var nodes []GraphNode
	for level, group := range levels {
		for _, name := range group {
			n := GraphNode{
				Name:         name,
				Level:        level,
				Dependencies: g.Dependencies(name),
				Dependents:   g.Dependents(name),
			}
			if err := failed[name]; err != nil {
				n.Error = err.Error()
			}
			nodes = append(nodes, n)
		}
	}

	if cc.Cfg.Output == outputJSON {
		if nodes == nil {
			nodes = []GraphNode{}
		}
		return renderJSON(w, nodes)
	}

	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		deps := strings.Join(n.Dependencies, ", ")
		if n.Error != "" {
			deps = "(error)"
		}
		rows = append(rows, []string{fmt.Sprint(n.Level), n.Name, deps})
	}
	renderTable(w, []string{"Level", "Template", "Depends on"}, rows)

	failedNames := make([]string, 0, len(failed))
	for name := range failed {
		failedNames = append(failedNames, name)
	}
	sort.Strings(failedNames)
	_, _ = fmt.Fprintf(w, "\n%d templates, %d dependencies", g.Len(), g.EdgeCount())
	if len(failedNames) > 0 {
		_, _ = fmt.Fprintf(w, ", %d failed: %s", len(failedNames), strings.Join(failedNames, ", "))
	}
	_, _ = fmt.Fprintln(w)
	return nil
}
