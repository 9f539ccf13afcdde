package document

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"
)

// EncodeJSON renders a document value as indented JSON, keeping key order.
func EncodeJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return pretty.PrettyOptions(data, &pretty.Options{Width: 80, Indent: "  ", SortKeys: false}), nil
}
