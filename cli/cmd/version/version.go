package version

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/compozy/traincfg/pkg/version"
)

// NewCommand creates the version command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version [version...]",
		Short: "Print build information or the comparison keys of versions",
		Long: `Without arguments, print the engine version and build information.

With arguments, print the integer key each version is compared by. Keys are
what decides whether a configuration's version range admits the engine.`,
		RunE: run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		_, err := fmt.Fprintln(out, version.Get())
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, arg := range args {
		key, err := version.Key(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", arg, key)
	}
	return w.Flush()
}
