package search

// Engine represents search engine type
type Engine string

const (
	OpenSearch    Engine = "opensearch"
	Elasticsearch Engine = "elasticsearch"
)

// DefaultSize is the number of hits returned when no limit is given.
const DefaultSize = 5

// Record is a single review document.
type Record struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Hit represents search result item
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// SearchResponse is the engine-neutral view of a search reply.
type SearchResponse struct {
	Total int64
	Hits  []Hit
}

// BulkItemError describes one rejected document of a bulk request.
type BulkItemError struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// BulkResponse is the engine-neutral view of a bulk reply.
type BulkResponse struct {
	Indexed int
	Failed  []BulkItemError
}

// LoadOptions controls how records are submitted.
type LoadOptions struct {
	// BatchSize splits records into sequential bulk requests; 0 sends one request.
	BatchSize int
	// Refresh makes the documents visible to search before the call returns.
	Refresh bool
}

// LoadResult summarizes a Load call.
type LoadResult struct {
	Indexed  int
	Failed   int
	Requests int
	Errors   []BulkItemError
}
