package config

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/compozy/traincfg/cli/helpers"
	"github.com/compozy/traincfg/pkg/config"
)

// NewCommand creates the config command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect traincfg settings",
	}
	cmd.AddCommand(NewShowCommand())
	return cmd
}

// NewShowCommand creates the config show subcommand
func NewShowCommand() *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective settings",
		Long: `Display the effective settings. With --sources, also show which source
(cli, env, dotenv, yaml or default) provided each value and the variable
that overrides it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, showSources)
		},
	}
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Show configuration sources")
	return cmd
}

func runShow(cmd *cobra.Command, showSources bool) error {
	ctx := cmd.Context()
	values, err := config.Flatten(config.FromContext(ctx))
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	service := helpers.ServiceFromContext(ctx)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if showSources {
		fmt.Fprintln(w, "KEY\tVALUE\tSOURCE\tENV")
	} else {
		fmt.Fprintln(w, "KEY\tVALUE")
	}
	for _, key := range keys {
		if !showSources {
			fmt.Fprintf(w, "%s\t%v\n", key, values[key])
			continue
		}
		source := config.SourceDefault
		if service != nil {
			source = service.GetSource(key)
		}
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", key, values[key], source, config.GetEnvVarForConfigPath(key))
	}
	return w.Flush()
}
