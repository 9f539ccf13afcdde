package validate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/compozy/traincfg/cli/helpers"
	"github.com/compozy/traincfg/pkg/config"
	"github.com/compozy/traincfg/pkg/document"
	"github.com/compozy/traincfg/pkg/logger"
)

type options struct {
	output string
	query  string
	watch  bool
}

// NewCommand creates the validate command
func NewCommand(fs afero.Fs) *cobra.Command {
	opts := &options{}
	defaults := config.Default()
	cmd := &cobra.Command{
		Use:   "validate <file|pattern>...",
		Short: "Validate and normalize training configurations",
		Long: `Validate one or more training configuration files and print the normalized result.

Arguments may be glob patterns; "**" matches across directories. With several
files the output maps each path to its normalized document.`,
		Example: `  traincfg validate config.yaml
  traincfg validate 'experiments/**/*.yaml' --format json
  traincfg validate config.yaml --query model.architecture`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, fs, opts, args)
		},
	}

	cmd.Flags().StringP("format", "f", defaults.Output.Format, "Output format (yaml, json)")
	cmd.Flags().String("color", defaults.Output.Color, "Colorize JSON output (auto, always, never)")
	cmd.Flags().Bool("strict", defaults.Validate.Strict, "Also check the typed view against the JSON Schema")
	cmd.Flags().Int("workers", defaults.Validate.Workers, "Number of files validated concurrently")
	cmd.Flags().Duration("debounce", defaults.Watch.Debounce, "Quiet period before re-validating a changed file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Print only the value at a gjson path")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-validate files whenever they change")

	return cmd
}

func run(cmd *cobra.Command, fs afero.Fs, opts *options, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)

	files, err := helpers.ExpandPatterns(fs, args)
	if err != nil {
		return err
	}
	if opts.output != "" && len(files) > 1 && opts.watch {
		return fmt.Errorf("--output cannot be combined with --watch for several files")
	}
	log.Debug("validating configurations", "files", len(files), "engine_version", cfg.Engine.Version)

	validator := NewValidator(fs, cfg)
	results := validator.Files(ctx, files)
	err = render(cmd, fs, cfg, opts, results)
	if !opts.watch {
		return err
	}
	if err != nil {
		log.Error("validation failed", "error", err)
	}
	return watchFiles(ctx, cmd, fs, cfg, opts, validator, files)
}

// render prints the successful results and reports the failed ones.
func render(cmd *cobra.Command, fs afero.Fs, cfg *config.Config, opts *options, results []Result) error {
	log := logger.FromContext(cmd.Context())

	var failed []Result
	valid := document.NewMap()
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
			log.Error("invalid configuration", "file", r.Path, "error", r.Err)
			continue
		}
		log.Info("configuration is valid", "file", r.Path)
		valid.Set(r.Path, r.Config)
	}

	if valid.Len() > 0 {
		var data any = valid
		if len(results) == 1 {
			data = results[0].Config
		}
		if err := write(cmd, fs, cfg, opts, data); err != nil {
			return err
		}
	}

	switch {
	case len(failed) == 0:
		return nil
	case len(results) == 1:
		return failed[0].Err
	default:
		return fmt.Errorf("%d of %d configurations are invalid", len(failed), len(results))
	}
}

func write(cmd *cobra.Command, fs afero.Fs, cfg *config.Config, opts *options, data any) error {
	var (
		out   io.Writer = cmd.OutOrStdout()
		buf   bytes.Buffer
		color = helpers.ShouldColor(cmd.OutOrStdout(), cfg.Output.Color)
	)
	if opts.output != "" {
		out, color = &buf, false
	}
	ow := helpers.NewOutputWriter(out, helpers.OutputFormat(cfg.Output.Format), color)
	var err error
	if opts.query != "" {
		err = ow.WriteQuery(data, opts.query)
	} else {
		err = ow.WriteData(data)
	}
	if err != nil {
		return err
	}
	if opts.output == "" {
		return nil
	}
	if err := afero.WriteFile(fs, opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	return nil
}
