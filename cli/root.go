package cli

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	configcmd "github.com/compozy/traincfg/cli/cmd/config"
	"github.com/compozy/traincfg/cli/cmd/schema"
	"github.com/compozy/traincfg/cli/cmd/validate"
	versioncmd "github.com/compozy/traincfg/cli/cmd/version"
	"github.com/compozy/traincfg/cli/helpers"
	"github.com/compozy/traincfg/pkg/config"
	"github.com/compozy/traincfg/pkg/logger"
	"github.com/compozy/traincfg/pkg/version"
)

const (
	defaultSettingsFile = ".traincfg.yaml"
	defaultEnvFile      = ".env"
)

// RootCmd returns the traincfg command operating on the real file system.
func RootCmd() *cobra.Command {
	return NewRootCommand(afero.NewOsFs())
}

// NewRootCommand builds the command tree on top of fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	defaults := config.Default()
	root := &cobra.Command{
		Use:   "traincfg",
		Short: "Validate and normalize training configurations",
		Long: `traincfg checks training configuration documents against the engine version,
fills in defaults, resolves legacy options and prints the normalized result.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd, fs)
		},
	}

	flags := root.PersistentFlags()
	flags.String("settings", defaultSettingsFile, "Path to the traincfg settings file")
	flags.String("env-file", defaultEnvFile, "Path to a file of TRAINCFG_* variables")
	flags.String("log-level", defaults.Log.Level, "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", defaults.Log.JSON, "Emit logs as JSON")
	flags.Bool("log-source", defaults.Log.Source, "Include source locations in logs")
	flags.String("engine-version", defaults.Engine.Version, "Engine version documents are checked against")
	flags.String("version-check", defaults.Engine.VersionCheck, "Version comparison (legacy, semver)")

	root.AddCommand(
		validate.NewCommand(fs),
		schema.NewCommand(fs),
		versioncmd.NewCommand(),
		configcmd.NewCommand(),
	)
	return root
}

// SetupGlobalConfig loads settings from every source, configures logging and
// stores both in the command context.
func SetupGlobalConfig(cmd *cobra.Command, fs afero.Fs) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	settingsFile, err := cmd.Flags().GetString("settings")
	if err != nil {
		return err
	}
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}

	var sources []config.Source
	if settingsFile != "" {
		sources = append(sources, config.NewYAMLProvider(fs, settingsFile))
	}
	if envFile != "" {
		sources = append(sources, config.NewDotEnvProvider(fs, envFile))
	}
	sources = append(sources, config.NewCLIProvider(extractCLIFlags(cmd)))

	service := config.NewService()
	cfg, err := service.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	log := logger.SetupLogger(logger.LogLevel(cfg.Log.Level), cfg.Log.JSON, cfg.Log.Source, cmd.ErrOrStderr())
	log.Debug("settings loaded", "settings_file", settingsFile, "engine_version", cfg.Engine.Version)

	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	ctx = helpers.ContextWithService(ctx, service)
	cmd.SetContext(ctx)
	return nil
}

// extractCLIFlags collects the flags set on the command line, keyed by name.
func extractCLIFlags(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		flags[f.Name] = f.Value.String()
	})
	return flags
}
