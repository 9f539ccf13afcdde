package schema

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/compozy/traincfg/cli/helpers"
	"github.com/compozy/traincfg/pkg/config"
	"github.com/compozy/traincfg/pkg/schemagen"
	"github.com/compozy/traincfg/pkg/trainconfig"
)

// NewCommand creates the schema command
func NewCommand(fs afero.Fs) *cobra.Command {
	var output, dir string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a normalized configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir != "" {
				if output != "" {
					return fmt.Errorf("--output and --dir cannot be combined")
				}
				return schemagen.NewSchemaGenerator(fs).Generate(cmd.Context(), dir)
			}
			return run(cmd, fs, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the schema to a file instead of stdout")
	cmd.Flags().StringVar(&dir, "dir", "", "Write the configuration and settings schemas into a directory")
	return cmd
}

func run(cmd *cobra.Command, fs afero.Fs, output string) error {
	data, err := trainconfig.Schema()
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if output != "" {
		if err := afero.WriteFile(fs, output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		return nil
	}
	cfg := config.FromContext(cmd.Context())
	if helpers.ShouldColor(cmd.OutOrStdout(), cfg.Output.Color) {
		data = pretty.Color(data, nil)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
