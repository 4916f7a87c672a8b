package commands

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// CheckResult is the outcome of compiling one template.
type CheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ErrCheckFailed is returned when at least one template fails to compile.
var ErrCheckFailed = errors.New("check failed")

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [name...]",
		Short: "Compile templates and report every error",
		Long: `Compile the named templates, or every template in the source when none
are named. Compilation runs concurrently (--jobs) and every failure is
reported, not just the first.`,
		Example: `  # Check the whole templates directory
  leaptmpl check

  # Check two templates with a single worker
  leaptmpl check pages/home base --jobs 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
	cmd.Flags().Int("jobs", 0, "Maximum number of concurrent compiles")
	return cmd
}

func runCheck(cmd *cobra.Command, names []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(names) == 0 {
		names, err = cc.listTemplates(cmd.Context())
		if err != nil {
			return err
		}
	}

	var (
		mu      sync.Mutex
		results = make([]CheckResult, 0, len(names))
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cc.Cfg.Check.Concurrency)
	for _, name := range names {
		g.Go(func() error {
			res := CheckResult{Name: name, OK: true}
			if _, err := cc.Engine.Compile(ctx, name); err != nil {
				res.OK = false
				res.Error = err.Error()
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			// Failures are collected, not propagated, so every template is checked.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	cc.Logger.Debug("check finished", "templates", len(results), "failed", failed)

	w := cmd.OutOrStdout()
	if cc.Cfg.Output == outputJSON {
		if err := renderJSON(w, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK {
				_, _ = fmt.Fprintf(w, "ok    %s\n", r.Name)
			} else {
				_, _ = fmt.Fprintf(w, "FAIL  %s\n      %s\n", r.Name, r.Error)
			}
		}
		_, _ = fmt.Fprintf(w, "\n%d templates, %d failed\n", len(results), failed)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d templates failed", ErrCheckFailed, failed, len(results))
	}
	return nil
}
