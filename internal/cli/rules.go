package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/rules"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the compiled rule table",
		Long: `Compile the rule table (built-in, or --rules <file.cue>) and print it.

A rules file that fails the schema exits with code 2, so the command doubles
as a validator for custom tables.

Example:
  storefront rules
  storefront rules --rules ./my-entities.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadRules(rootOpts.Rules)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load rules", err)
			}

			out := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			return out.Render(table, func(w io.Writer) { writeRulesText(w, table) })
		},
	}
}

// writeRulesText prints one block per entity.
func writeRulesText(w io.Writer, table *rules.Table) {
	for i := range table.Entities {
		e := &table.Entities[i]
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s) port %d", e.Collection, e.Service, e.Port)
		if e.PortEnv != "" {
			fmt.Fprintf(w, " [%s]", e.PortEnv)
		}
		fmt.Fprintln(w)

		var ops []string
		if e.Updatable {
			ops = append(ops, "update")
		}
		if e.Deletable {
			ops = append(ops, "delete")
		}
		if e.Status != nil && e.Status.Manual {
			ops = append(ops, "status")
		}
		if len(ops) > 0 {
			fmt.Fprintf(w, "  ops: %s\n", strings.Join(ops, ", "))
		}

		for _, f := range e.Fields {
			fmt.Fprintf(w, "  %-10s %-6s%s\n", f.Name, f.Kind, fieldFlags(&f))
		}

		if st := e.Status; st != nil {
			fmt.Fprintf(w, "  %-10s %s (initial %s)\n", st.Field, strings.Join(st.Values, "|"), st.Initial)
		}
		if len(e.Seed) > 0 {
			fmt.Fprintf(w, "  seed: %d record(s)\n", len(e.Seed))
		}
	}
}

func fieldFlags(f *rules.Field) string {
	var flags []string
	if f.Required {
		flags = append(flags, "required")
	}
	if f.Positive {
		flags = append(flags, "positive")
	}
	if f.Mutable {
		flags = append(flags, "mutable")
	}
	if f.Filter != rules.FilterNone {
		flags = append(flags, "filter="+string(f.Filter))
	}
	if len(f.Enum) > 0 {
		flags = append(flags, "enum="+strings.Join(f.Enum, "|"))
	}
	if len(f.Aliases) > 0 {
		flags = append(flags, "alias="+strings.Join(f.Aliases, "|"))
	}
	if f.HasDefault() {
		flags = append(flags, "default="+string(f.Default))
	}
	if len(flags) == 0 {
		return ""
	}
	return " " + strings.Join(flags, " ")
}
