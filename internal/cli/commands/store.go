package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptmpl/internal/config"
	"github.com/leapstack-labs/leaptmpl/internal/store"
	"github.com/leapstack-labs/leaptmpl/pkg/template"
)

// NewStoreCommand creates the store command and its subcommands.
func NewStoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the SQL template store",
		Long: `Manage templates kept in the SQL store (store.driver / store.dsn).
Set source: store in leaptmpl.yaml, or pass --source store, to render from it.`,
	}

	cmd.AddCommand(
		newStorePutCommand(),
		newStoreGetCommand(),
		newStoreListCommand(),
		newStoreRmCommand(),
		newStoreImportCommand(),
	)
	return cmd
}

func newStorePutCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put <name>",
		Short: "Store a template read from --file or stdin",
		Example: `  leaptmpl store put pages/home --file templates/pages/home.tmpl
  echo 'Hello {{ name }}' | leaptmpl store put hello`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				body []byte
				err  error
			)
			if file != "" {
				body, err = os.ReadFile(file)
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read template body: %w", err)
			}

			// Reject templates that do not tokenize before storing them.
			if _, err := template.Tokenize(args[0], string(body)); err != nil {
				return err
			}

			return withStore(cmd, func(cc *CommandContext, s *store.Store) error {
				if err := s.Put(cmd.Context(), args[0], string(body)); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%d bytes)\n", args[0], len(body))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the template from a file instead of stdin")
	return cmd
}

func newStoreGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cc *CommandContext, s *store.Store) error {
				rec, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if cc.Cfg.Output == outputJSON {
					return renderJSON(cmd.OutOrStdout(), rec)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), rec.Body)
				return err
			})
		},
	}
}

func newStoreListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored template names",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(cc *CommandContext, s *store.Store) error {
				names, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if cc.Cfg.Output == outputJSON {
					if names == nil {
						names = []string{}
					}
					return renderJSON(cmd.OutOrStdout(), names)
				}
				for _, name := range names {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func newStoreRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>...",
		Aliases: []string{"delete"},
		Short:   "Delete stored templates",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(_ *CommandContext, s *store.Store) error {
				for _, name := range args {
					if err := s.Delete(cmd.Context(), name); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
				}
				return nil
			})
		},
	}
}

func newStoreImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Import every template of a directory (default: templates_dir)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cc *CommandContext, s *store.Store) error {
				dir := cc.Cfg.TemplatesDir
				if len(args) == 1 {
					dir = args[0]
				}
				if info, err := os.Stat(dir); err != nil || !info.IsDir() {
					return fmt.Errorf("templates directory does not exist: %s", dir)
				}
				names, err := s.ImportFS(cmd.Context(), template.NewFSSource(os.DirFS(dir), cc.Cfg.Extension))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d templates from %s\n", len(names), dir)
				return nil
			})
		},
	}
}

// withStore opens the configured store for the duration of fn. It does not
// need a templates directory, so it bypasses NewCommandContext.
func withStore(cmd *cobra.Command, fn func(cc *CommandContext, s *store.Store) error) error {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	s, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	cc := &CommandContext{Cfg: cfg, Logger: logger, Source: s, Store: s}
	cc.Engine = template.NewEngine(s, template.WithLogger(logger))
	return fn(cc, s)
}
