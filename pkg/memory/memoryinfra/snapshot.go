package memoryinfra

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/memorai/memorai/pkg/memory"
)

// snapshotName is the object name of a dump taken at t
func snapshotName(t time.Time) string {
	return fmt.Sprintf("memories-%s.jsonl", t.UTC().Format("20060102T150405.000000Z"))
}

// encodeSnapshot writes one JSON record per line
func encodeSnapshot(records []memory.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("encode snapshot record %s: %w", r.ID, err)
		}
	}
	return buf.Bytes(), nil
}
