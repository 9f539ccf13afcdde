package config

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/compozy/traincfg/pkg/version"
)

// Config represents the settings of the traincfg tool itself, as opposed to
// the training configurations it validates.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Engine   EngineConfig   `koanf:"engine"`
	Output   OutputConfig   `koanf:"output"`
	Validate ValidateConfig `koanf:"validate"`
	Watch    WatchConfig    `koanf:"watch"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error disabled" env:"TRAINCFG_LOG_LEVEL"  flag:"log-level"`
	JSON   bool   `koanf:"json"                                                  env:"TRAINCFG_LOG_JSON"   flag:"log-json"`
	Source bool   `koanf:"source"                                                env:"TRAINCFG_LOG_SOURCE" flag:"log-source"`
}

// EngineConfig describes the engine the documents are checked against.
type EngineConfig struct {
	// Version is compared with the range every document declares.
	Version      string `koanf:"version"       validate:"required,engine_version" env:"TRAINCFG_ENGINE_VERSION" flag:"engine-version"`
	VersionCheck string `koanf:"version_check" validate:"oneof=legacy semver"      env:"TRAINCFG_VERSION_CHECK"  flag:"version-check"`
}

// OutputConfig controls how normalized documents are printed.
type OutputConfig struct {
	Format string `koanf:"format" validate:"oneof=yaml json"          env:"TRAINCFG_OUTPUT_FORMAT" flag:"format"`
	Color  string `koanf:"color"  validate:"oneof=auto always never" env:"TRAINCFG_OUTPUT_COLOR"  flag:"color"`
}

// ValidateConfig tunes the validate command.
type ValidateConfig struct {
	Strict  bool `koanf:"strict"                      env:"TRAINCFG_STRICT"  flag:"strict"`
	Workers int  `koanf:"workers" validate:"min=1,max=64" env:"TRAINCFG_WORKERS" flag:"workers"`
}

// WatchConfig tunes re-validation on file changes.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce" validate:"gt=0" env:"TRAINCFG_WATCH_DEBOUNCE" flag:"debounce"`
}

// Service loads and validates configuration.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceDotEnv  SourceType = "dotenv"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

const (
	defaultDebounce = 200 * time.Millisecond
	defaultWorkers  = 4
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			Version:      version.GetVersion(),
			VersionCheck: "legacy",
		},
		Output: OutputConfig{
			Format: "yaml",
			Color:  "auto",
		},
		Validate: ValidateConfig{
			Workers: defaultWorkers,
		},
		Watch: WatchConfig{
			Debounce: defaultDebounce,
		},
	}
}

// Flatten returns cfg as dotted keys, such as "log.level", mapped to values.
func Flatten(cfg *Config) (map[string]any, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	return k.All(), nil
}
