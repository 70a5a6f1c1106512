// Package opensearch implements search.Client on top of opensearch-go.
//
// It registers itself when imported:
//
//	import _ "github.com/ncobase/revsearch/data/search/opensearch"
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"

	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/pkg/errors"
)

func init() {
	search.RegisterClientFactory(search.OpenSearch, func(cfg *config.Search) (search.Client, error) {
		return NewClient(cfg)
	})
}

// Client OpenSearch client
type Client struct {
	client *opensearchapi.Client
	cfg    config.Search
}

// NewClient creates a new OpenSearch client. Retries are disabled; every call
// is a single round trip.
func NewClient(cfg *config.Search) (*Client, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, errors.New("opensearch: addresses are empty")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipTLS, //nolint:gosec // opt-in via search.insecure_skip_tls
	}

	client, err := opensearchapi.NewClient(
		opensearchapi.Config{
			Client: opensearch.Config{
				Addresses:           cfg.Addresses,
				Username:            cfg.Username,
				Password:            cfg.Password,
				Transport:           transport,
				CompressRequestBody: cfg.Compression,
				DisableRetry:        true,
			},
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "opensearch client creation error")
	}

	return &Client{client: client, cfg: *cfg}, nil
}

// Engine implements search.Client.
func (c *Client) Engine() search.Engine {
	return search.OpenSearch
}

// GetClient returns the OpenSearch client
func (c *Client) GetClient() *opensearchapi.Client {
	return c.client
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Ping sends HEAD / and fails on transport errors or non-2xx replies.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.client.Ping(ctx, &opensearchapi.PingReq{})
	if err != nil {
		return errors.Wrap(err, "opensearch ping")
	}
	if res != nil && res.IsError() {
		return &search.EngineError{Status: res.StatusCode}
	}
	return nil
}

// IndexExists checks if an index exists
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.client.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{
		Indices: []string{index},
	})
	if res != nil {
		switch res.StatusCode {
		case http.StatusOK:
			return true, nil
		case http.StatusNotFound:
			return false, nil
		}
	}
	if err != nil {
		return false, errors.Wrap(engineError(res, err), "opensearch index exists error")
	}
	return false, &search.EngineError{Status: res.StatusCode}
}

// CreateIndex creates a new index with the given settings and mappings
func (c *Client) CreateIndex(ctx context.Context, index string, body []byte) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.client.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: index,
		Body:  bytes.NewReader(body),
	})
	if err != nil {
		return engineError(nil, err)
	}
	return nil
}

// DeleteIndex deletes an index
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.client.Indices.Delete(ctx, opensearchapi.IndicesDeleteReq{
		Indices: []string{index},
	})
	if err != nil {
		return engineError(nil, err)
	}
	return nil
}

// Bulk submits an NDJSON bulk body against index
func (c *Client) Bulk(ctx context.Context, index string, body []byte, refresh bool) (*search.BulkResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := opensearchapi.BulkReq{
		Index: index,
		Body:  bytes.NewReader(body),
	}
	if refresh {
		req.Params.Refresh = "true"
	}

	res, err := c.client.Bulk(ctx, req)
	if err != nil {
		return nil, engineError(nil, err)
	}

	out := &search.BulkResponse{}
	for _, item := range res.Items {
		for _, result := range item {
			if result.Error != nil || result.Status >= http.StatusMultipleChoices {
				failure := search.BulkItemError{ID: result.ID, Status: result.Status}
				if result.Error != nil {
					failure.Type = result.Error.Type
					failure.Reason = result.Error.Reason
				}
				out.Failed = append(out.Failed, failure)
				continue
			}
			out.Indexed++
		}
	}
	return out, nil
}

// source is the stored review document.
type source struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Search performs a search in OpenSearch
func (c *Client) Search(ctx context.Context, index string, body []byte) (*search.SearchResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, engineError(nil, err)
	}
	if res.Errors {
		return nil, errors.New("opensearch returned errors")
	}

	out := &search.SearchResponse{
		Total: int64(res.Hits.Total.Value),
		Hits:  make([]search.Hit, 0, len(res.Hits.Hits)),
	}
	for _, hit := range res.Hits.Hits {
		var doc source
		if len(hit.Source) > 0 {
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return nil, errors.Wrapf(err, "decode hit %s", hit.ID)
			}
		}
		id := doc.ID
		if id == "" {
			id = hit.ID
		}
		out.Hits = append(out.Hits, search.Hit{
			ID:    id,
			Score: float64(hit.Score),
			Text:  doc.Text,
		})
	}
	return out, nil
}

// engineError converts opensearch-go errors into *search.EngineError where the
// reply carried a structured error.
func engineError(res *opensearch.Response, err error) error {
	var structErr *opensearch.StructError
	if errors.As(err, &structErr) {
		return &search.EngineError{
			Status: structErr.Status,
			Type:   structErr.Err.Type,
			Reason: structErr.Err.Reason,
		}
	}
	if res != nil && res.IsError() {
		return &search.EngineError{Status: res.StatusCode, Reason: err.Error()}
	}
	return errors.WithStack(err)
}
