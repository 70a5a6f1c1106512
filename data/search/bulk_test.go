package search

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkBody(t *testing.T) {
	raw, err := BulkBody("reviews", []Record{
		{ID: "1", Text: "とても良い商品でした"},
		{ID: "2", Text: "<b>残念</b> & 品質"},
	})
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(raw, []byte("\n")), "bulk body must end with a newline")

	lines := bytes.Split(bytes.TrimSuffix(raw, []byte("\n")), []byte("\n"))
	require.Len(t, lines, 4)

	assert.JSONEq(t, `{"index":{"_index":"reviews","_id":"1"}}`, string(lines[0]))
	assert.JSONEq(t, `{"id":"1","text":"とても良い商品でした"}`, string(lines[1]))
	assert.JSONEq(t, `{"index":{"_index":"reviews","_id":"2"}}`, string(lines[2]))
	assert.Contains(t, string(lines[3]), "<b>残念</b> & 品質", "html must not be escaped")

	var rec Record
	require.NoError(t, json.Unmarshal(lines[3], &rec))
	assert.Equal(t, "2", rec.ID)
}

func TestBulkBody_MissingID(t *testing.T) {
	_, err := BulkBody("reviews", []Record{{Text: "no id here"}})
	assert.ErrorContains(t, err, "record without id")
}

func TestChunk(t *testing.T) {
	recs := make([]Record, 5)
	assert.Len(t, chunk(recs, 0), 1)
	assert.Len(t, chunk(recs, 5), 1)
	assert.Len(t, chunk(recs, 10), 1)

	batches := chunk(recs, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)
}
