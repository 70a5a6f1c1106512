package search

import "context"

// Client is the transport to one search engine. Bodies are JSON documents
// built by this package; implementations only move them over the wire and
// translate replies.
type Client interface {
	// Engine reports which engine the client talks to.
	Engine() Engine
	// Ping performs a single liveness request.
	Ping(ctx context.Context) error
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, body []byte) error
	DeleteIndex(ctx context.Context, index string) error
	Bulk(ctx context.Context, index string, body []byte, refresh bool) (*BulkResponse, error)
	Search(ctx context.Context, index string, body []byte) (*SearchResponse, error)
}
