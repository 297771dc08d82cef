package output

import (
	"encoding/json"
	"io"
)

// PrintJSON writes data to w as two-space indented JSON.
func PrintJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
