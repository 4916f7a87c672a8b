package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptmpl/internal/data"
	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/expr"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

const evalPrompt = "leaptmpl> "

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "eval [expression...]",
		Short: "Evaluate expressions against the loaded data",
		Long: `Evaluate template expressions against the configured data files and
--set assignments.

With arguments each expression is evaluated and printed in turn. Without
arguments an interactive session starts; type .help for commands.`,
		Example: `  leaptmpl eval "user.name" "items.0 * 2" --data site.yaml
  leaptmpl eval --set n=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, err := cc.LoadData(sets)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				for _, input := range args {
					v, err := evaluate(input, ctx)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), formatResult(v))
				}
				return nil
			}

			historyFile := filepath.Join(cc.Cfg.ProjectRoot, ".leaptmpl", "eval_history")
			return runEvalREPL(cmd, ctx, historyFile)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a context value (key=value, repeatable)")
	return cmd
}

func evaluate(input string, ctx core.Context) (core.Value, error) {
	node, err := expr.Parse(input, token.Position{Line: 1, Column: 1})
	if err != nil {
		return nil, err
	}
	return node.Evaluate(ctx)
}

// formatResult shows strings quoted so that "" and null are told apart.
func formatResult(v core.Value) string {
	switch v.Kind() {
	case core.KindString:
		return fmt.Sprintf("%q", v.String())
	case core.KindNull:
		return "null"
	}
	return v.String()
}

// lineReader yields input lines; readline on a terminal, plain lines otherwise.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

type scannerReader struct{ s *bufio.Scanner }

func (r scannerReader) Readline() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (scannerReader) Close() error { return nil }

func newLineReader(cmd *cobra.Command, historyFile string) (lineReader, bool, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
			historyFile = ""
		}
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          evalPrompt,
			HistoryFile:     historyFile,
			InterruptPrompt: "^C",
			EOFPrompt:       ".quit",
			Stdout:          cmd.OutOrStdout(),
			Stderr:          cmd.ErrOrStderr(),
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to initialize REPL: %w", err)
		}
		return rl, true, nil
	}
	return scannerReader{bufio.NewScanner(in)}, false, nil
}

func runEvalREPL(cmd *cobra.Command, ctx core.Context, historyFile string) error {
	rl, interactive, err := newLineReader(cmd, historyFile)
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	if interactive {
		_, _ = fmt.Fprintln(out, "leaptmpl expression REPL")
		_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
		_, _ = fmt.Fprintln(out)
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if quit := handleEvalDotCommand(cmd, ctx, line); quit {
				return nil
			}
			continue
		}

		v, err := evaluate(line, ctx)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}
		_, _ = fmt.Fprintln(out, formatResult(v))
	}
}

// handleEvalDotCommand runs a dot-command and reports whether to quit.
func handleEvalDotCommand(cmd *cobra.Command, ctx core.Context, line string) bool {
	out := cmd.OutOrStdout()
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printEvalHelp(out)
	case ".vars":
		for _, name := range ctx.Names() {
			_, _ = fmt.Fprintf(out, "%-16s %s\n", name, ctx[name].Kind())
		}
	case ".set":
		if len(parts) != 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .set key=value")
			break
		}
		if err := applySet(ctx, parts[1]); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help)\n", parts[0])
	}
	return false
}

func applySet(ctx core.Context, assignment string) error {
	overrides, err := data.ParseSet([]string{assignment})
	if err != nil {
		return err
	}
	ctx.Merge(overrides)
	return nil
}

func printEvalHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `Commands:
  .help           Show this help
  .vars           List context variables and their kinds
  .set key=value  Bind a value for later expressions
  .quit           Exit

Anything else is evaluated as an expression, e.g. user.name or n * 2 + 1.
Operators group to the right: 2 * 3 + 4 is 2 * (3 + 4).
`)
}
