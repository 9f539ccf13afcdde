package schemagen

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/compozy/traincfg/pkg/config"
	"github.com/compozy/traincfg/pkg/logger"
	"github.com/compozy/traincfg/pkg/trainconfig"
)

// Definition names one schema document and how to build it.
type Definition struct {
	Name  string
	Build func() ([]byte, error)
}

// FileName is the name the schema is written under.
func (d Definition) FileName() string {
	return d.Name + ".json"
}

// Definitions lists every schema the tool publishes.
func Definitions() []Definition {
	return []Definition{
		{Name: "traincfg", Build: trainconfig.Schema},
		{Name: "settings", Build: SettingsSchema},
	}
}

type SchemaGenerator struct {
	fs          afero.Fs
	definitions []Definition
}

func NewSchemaGenerator(fs afero.Fs) *SchemaGenerator {
	return &SchemaGenerator{fs: fs, definitions: Definitions()}
}

// Generate writes every schema into outDir, creating it when needed.
func (g *SchemaGenerator) Generate(ctx context.Context, outDir string) error {
	log := logger.FromContext(ctx)
	log.Debug("Generating JSON schemas", "dir", outDir)
	if err := g.fs.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for _, definition := range g.definitions {
		group.Go(func() error {
			schemaJSON, err := definition.Build()
			if err != nil {
				return fmt.Errorf("failed to build schema for %s: %w", definition.Name, err)
			}
			filePath := filepath.Join(outDir, definition.FileName())
			if err := afero.WriteFile(g.fs, filePath, append(schemaJSON, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write schema to %s: %w", filePath, err)
			}
			log.Info("Generated schema", "file", filePath)
			return nil
		})
	}
	return group.Wait()
}

// SettingsSchema describes the settings file read by the CLI.
func SettingsSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		FieldNameTag:              "koanf",
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:        "string",
					Description: "Duration such as 200ms or 1s",
				}
			}
			return nil
		},
	}
	s := r.Reflect(&config.Config{})
	s.Title = "traincfg settings"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
