package config

import (
	"reflect"
	"sync"
)

// EnvMapping represents a mapping between environment variable and config path
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

// FlagMapping represents a mapping between a CLI flag and config path
type FlagMapping struct {
	Flag       string
	ConfigPath string
}

var (
	cachedEnvMappings  []EnvMapping
	cachedFlagMappings []FlagMapping
	mappingsOnce       sync.Once
)

func loadMappings() {
	mappingsOnce.Do(func() {
		t := reflect.TypeOf(Config{})
		for _, m := range extractMappings(t, "", "env") {
			cachedEnvMappings = append(cachedEnvMappings, EnvMapping{EnvVar: m[0], ConfigPath: m[1]})
		}
		for _, m := range extractMappings(t, "", "flag") {
			cachedFlagMappings = append(cachedFlagMappings, FlagMapping{Flag: m[0], ConfigPath: m[1]})
		}
	})
}

// GenerateEnvMappings generates environment variable mappings from config struct tags
func GenerateEnvMappings() []EnvMapping {
	loadMappings()
	return cachedEnvMappings
}

// GenerateFlagMappings generates CLI flag mappings from config struct tags
func GenerateFlagMappings() []FlagMapping {
	loadMappings()
	return cachedFlagMappings
}

// extractMappings recursively pairs the value of tag with the koanf path of
// every field carrying it.
func extractMappings(t reflect.Type, prefix, tag string) [][2]string {
	var mappings [][2]string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}

		configPath := koanfTag
		if prefix != "" {
			configPath = prefix + "." + koanfTag
		}

		if name := field.Tag.Get(tag); name != "" && name != "-" {
			mappings = append(mappings, [2]string{name, configPath})
		}

		if field.Type.Kind() == reflect.Struct {
			if field.Type.PkgPath() == "time" {
				continue
			}
			mappings = append(mappings, extractMappings(field.Type, configPath, tag)...)
		}
	}
	return mappings
}

// GenerateEnvToConfigMap generates a map from env var to config path
func GenerateEnvToConfigMap() map[string]string {
	mappings := GenerateEnvMappings()
	result := make(map[string]string, len(mappings))
	for _, m := range mappings {
		result[m.EnvVar] = m.ConfigPath
	}
	return result
}

// GenerateFlagToConfigMap generates a map from CLI flag name to config path
func GenerateFlagToConfigMap() map[string]string {
	mappings := GenerateFlagMappings()
	result := make(map[string]string, len(mappings))
	for _, m := range mappings {
		result[m.Flag] = m.ConfigPath
	}
	return result
}

// GetEnvVarForConfigPath returns the environment variable for a given config path
func GetEnvVarForConfigPath(configPath string) string {
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == configPath {
			return m.EnvVar
		}
	}
	return ""
}
