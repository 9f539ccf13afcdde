package helpers

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/traincfg/pkg/document"
)

func TestExpandPatterns(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, path := range []string{"/cfg/a.yaml", "/cfg/b.yml", "/cfg/nested/c.yaml", "/cfg/readme.md"} {
		require.NoError(t, afero.WriteFile(fs, path, []byte("a: 1"), 0o644))
	}

	t.Run("Should return plain paths unchanged", func(t *testing.T) {
		files, err := ExpandPatterns(fs, []string{"/cfg/a.yaml", "/not/checked.yaml"})
		require.NoError(t, err)
		assert.Equal(t, []string{"/cfg/a.yaml", "/not/checked.yaml"}, files)
	})

	t.Run("Should expand globs across directories", func(t *testing.T) {
		files, err := ExpandPatterns(fs, []string{"/cfg/**/*.{yaml,yml}"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"/cfg/a.yaml", "/cfg/b.yml", "/cfg/nested/c.yaml"}, files)
	})

	t.Run("Should drop duplicates", func(t *testing.T) {
		files, err := ExpandPatterns(fs, []string{"/cfg/a.yaml", "/cfg/*.yaml"})
		require.NoError(t, err)
		assert.Equal(t, []string{"/cfg/a.yaml"}, files)
	})

	t.Run("Should fail when a pattern matches nothing", func(t *testing.T) {
		_, err := ExpandPatterns(fs, []string{"/cfg/*.json"})
		assert.ErrorContains(t, err, "no files match")
	})
}

func TestReadDocument(t *testing.T) {
	t.Run("Should decode YAML in document order", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("z: 1\na: 2\n"), 0o644))

		doc, err := ReadDocument(fs, "/c.yaml")

		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a"}, document.Keys(doc))
	})

	t.Run("Should reject documents that are not mappings", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("- a\n- b\n"), 0o644))

		_, err := ReadDocument(fs, "/c.yaml")

		assert.ErrorIs(t, err, document.ErrNotMapping)
	})

	t.Run("Should give up on files that stay missing", func(t *testing.T) {
		_, err := ReadDocumentWithRetry(context.Background(), afero.NewMemMapFs(), "/missing.yaml")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestOutputWriter(t *testing.T) {
	doc := document.MapOf("model", document.MapOf("architecture", "unet", "final_layer", "softmax"), "psize", []any{64, 64})

	t.Run("Should write YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf, FormatYAML, false).WriteData(doc))
		assert.Equal(t, "model:\n  architecture: unet\n  final_layer: softmax\npsize:\n  - 64\n  - 64\n", buf.String())
	})

	t.Run("Should write JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf, FormatJSON, false).WriteData(doc))
		assert.JSONEq(t, `{"model":{"architecture":"unet","final_layer":"softmax"},"psize":[64,64]}`, buf.String())
	})

	t.Run("Should colorize JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf, FormatJSON, true).WriteData(doc))
		assert.Contains(t, buf.String(), "\x1b[")
	})

	t.Run("Should write query results", func(t *testing.T) {
		var buf bytes.Buffer
		ow := NewOutputWriter(&buf, FormatYAML, false)

		require.NoError(t, ow.WriteQuery(doc, "model"))
		assert.Equal(t, "architecture: unet\nfinal_layer: softmax\n", buf.String())

		buf.Reset()
		require.NoError(t, ow.WriteQuery(doc, "psize.1"))
		assert.Equal(t, "64\n", buf.String())
	})

	t.Run("Should reject unknown formats", func(t *testing.T) {
		assert.Error(t, NewOutputWriter(&bytes.Buffer{}, "toml", false).WriteData(doc))
	})
}

func TestShouldColor(t *testing.T) {
	t.Run("Should follow explicit modes", func(t *testing.T) {
		assert.True(t, ShouldColor(&bytes.Buffer{}, ColorAlways))
		assert.False(t, ShouldColor(os.Stdout, ColorNever))
	})

	t.Run("Should not colorize buffers or NO_COLOR terminals", func(t *testing.T) {
		assert.False(t, ShouldColor(&bytes.Buffer{}, ColorAuto))
		t.Setenv("NO_COLOR", "1")
		assert.False(t, ShouldColor(os.Stdout, ColorAuto))
	})
}
