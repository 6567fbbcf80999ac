package catalog

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

// DecodeSnapshot parses a JSON catalog snapshot. Cream options may use the
// legacy "Name (+N)" string form.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode catalog snapshot")
	}
	return &s, nil
}
