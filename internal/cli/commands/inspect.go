package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptmpl/pkg/template"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// TokenOutput is the JSON shape of one structural token.
type TokenOutput struct {
	Kind   string `json:"kind"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "tokens <name>",
		Short: "List the structural tokens of a template",
		Long: `Tokenize a template and print its structural tokens with their positions.
Comments and whitespace-only text are dropped, as they are when compiling.`,
		Example: `  leaptmpl tokens pages/home
  leaptmpl tokens pages/home --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args[0], width)
		},
	}
	cmd.Flags().IntVar(&width, "width", 40, "Truncate token text to this many characters in tables")
	return cmd
}

func runTokens(cmd *cobra.Command, name string, width int) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := cc.Source.Load(cmd.Context(), name)
	if err != nil {
		return err
	}
	tokens, err := template.Tokenize(name, text)
	if err != nil {
		return err
	}

	if cc.Cfg.Output == outputJSON {
		out := make([]TokenOutput, 0, len(tokens))
		for _, tok := range tokens {
			out = append(out, TokenOutput{
				Kind:   tok.Kind.String(),
				Line:   tok.Pos.Line,
				Column: tok.Pos.Column,
				Text:   tok.Text,
			})
		}
		return renderJSON(cmd.OutOrStdout(), out)
	}

	rows := make([][]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == token.EOF {
			continue
		}
		rows = append(rows, []string{
			tok.Kind.String(),
			fmt.Sprintf("%d:%d", tok.Pos.Line, tok.Pos.Column),
			fmt.Sprintf("%q", tok.Preview(width)),
		})
	}
	renderTable(cmd.OutOrStdout(), []string{"Kind", "Position", "Text"}, rows)
	return nil
}

// NewASTCommand creates the ast command.
func NewASTCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <name>",
		Short: "Print the compiled syntax tree of a template",
		Long: `Compile a template and print its statement tree. Blocks show their
registry ids and overrides, and the dependency list shows every template
pulled in through extends or include.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := cc.Engine.Compile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), template.Pretty(t))
			return err
		},
	}
}
