package output

import (
	"encoding/json"

	"github.com/shipguard/shipguard/model"
)

// RenderJSON serializes a ScanResult as pretty-printed JSON with a
// trailing newline, for the machine-readable report surface.
func RenderJSON(result model.ScanResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
