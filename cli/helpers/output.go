package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/compozy/traincfg/pkg/document"
)

// OutputFormat selects how documents are rendered.
type OutputFormat string

const (
	FormatYAML OutputFormat = "yaml"
	FormatJSON OutputFormat = "json"
)

// Color modes accepted by ShouldColor.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// OutputWriter handles different output formats
type OutputWriter struct {
	writer io.Writer
	format OutputFormat
	color  bool
}

// NewOutputWriter creates a new output writer. Color only applies to JSON.
func NewOutputWriter(writer io.Writer, format OutputFormat, color bool) *OutputWriter {
	return &OutputWriter{
		writer: writer,
		format: format,
		color:  color,
	}
}

// WriteData writes a document value in the configured format
func (ow *OutputWriter) WriteData(data any) error {
	switch ow.format {
	case FormatJSON:
		out, err := document.EncodeJSON(data)
		if err != nil {
			return err
		}
		return ow.writeJSON(out)
	case FormatYAML:
		out, err := document.EncodeYAML(data)
		if err != nil {
			return err
		}
		_, err = ow.writer.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", ow.format)
	}
}

// WriteQuery writes the part of data selected by a gjson path. Scalars are
// written as plain text; objects and arrays use the configured format.
func (ow *OutputWriter) WriteQuery(data any, path string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document for query: %w", err)
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return fmt.Errorf("query %q matched nothing", path)
	}
	if result.Type != gjson.JSON {
		_, err := fmt.Fprintln(ow.writer, result.String())
		return err
	}
	value, err := document.DecodeValue([]byte(result.Raw))
	if err != nil {
		return fmt.Errorf("failed to decode query result: %w", err)
	}
	return ow.WriteData(value)
}

func (ow *OutputWriter) writeJSON(data []byte) error {
	if ow.color {
		data = pretty.Color(data, nil)
	}
	_, err := ow.writer.Write(data)
	return err
}

// ShouldColor decides whether output to w is colorized. In auto mode only
// terminals are colorized, and NO_COLOR turns color off.
func ShouldColor(w io.Writer, mode string) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
