package search

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// BulkBody serializes records as NDJSON index actions for the bulk API.
func BulkBody(index string, records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if r.ID == "" {
			return nil, errors.Errorf("record without id: %q", truncate(r.Text, 32))
		}
		if err := enc.Encode(bulkAction{Index: bulkMeta{Index: index, ID: r.ID}}); err != nil {
			return nil, errors.Wrap(err, "encode bulk action")
		}
		if err := enc.Encode(r); err != nil {
			return nil, errors.Wrapf(err, "encode record %s", r.ID)
		}
	}
	return buf.Bytes(), nil
}

// chunk splits records into slices of at most size elements.
func chunk(records []Record, size int) [][]Record {
	if size <= 0 || size >= len(records) {
		return [][]Record{records}
	}
	batches := make([][]Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
