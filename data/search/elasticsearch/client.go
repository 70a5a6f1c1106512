// Package elasticsearch implements search.Client on top of go-elasticsearch.
// The request bodies are the same as for OpenSearch; the cluster needs the
// analysis-kuromoji plugin.
package elasticsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/pkg/errors"
)

func init() {
	search.RegisterClientFactory(search.Elasticsearch, func(cfg *config.Search) (search.Client, error) {
		return NewClient(cfg)
	})
}

// Client Elasticsearch client
type Client struct {
	client *elasticsearch.Client
	cfg    config.Search
}

// NewClient new Elasticsearch client
func NewClient(cfg *config.Search) (*Client, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, errors.New("elasticsearch: addresses are empty")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipTLS, //nolint:gosec // opt-in via search.insecure_skip_tls
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:           cfg.Addresses,
		Username:            cfg.Username,
		Password:            cfg.Password,
		Transport:           transport,
		CompressRequestBody: cfg.Compression,
		DisableRetry:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch client creation error")
	}

	return &Client{client: es, cfg: *cfg}, nil
}

// Engine implements search.Client.
func (c *Client) Engine() search.Engine {
	return search.Elasticsearch
}

// GetClient get Elasticsearch client
func (c *Client) GetClient() *elasticsearch.Client {
	return c.client
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Ping checks whether the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.PingRequest{}.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "elasticsearch ping")
	}
	defer closeBody(res)

	if res.IsError() {
		return &search.EngineError{Status: res.StatusCode}
	}
	return nil
}

// IndexExists checks if an index exists
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, c.client)
	if err != nil {
		return false, errors.Wrap(err, "elasticsearch index exists error")
	}
	defer closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, decodeError(res)
}

// CreateIndex creates a new index with the given settings and mappings
func (c *Client) CreateIndex(ctx context.Context, index string, body []byte) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "elasticsearch create index error")
	}
	defer closeBody(res)

	if res.IsError() {
		return decodeError(res)
	}
	return nil
}

// DeleteIndex deletes an index
func (c *Client) DeleteIndex(ctx context.Context, index string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesDeleteRequest{Index: []string{index}}.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "elasticsearch delete index error")
	}
	defer closeBody(res)

	if res.IsError() {
		return decodeError(res)
	}
	return nil
}

// esBulkResponse is the structure used to decode bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Bulk submits an NDJSON bulk body against index
func (c *Client) Bulk(ctx context.Context, index string, body []byte, refresh bool) (*search.BulkResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := esapi.BulkRequest{
		Index: index,
		Body:  bytes.NewReader(body),
	}
	if refresh {
		req.Refresh = "true"
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch bulk error")
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, decodeError(res)
	}

	var br esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return nil, errors.Wrap(err, "elasticsearch bulk: decode response")
	}

	out := &search.BulkResponse{}
	for _, item := range br.Items {
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

// esSearchResponse is the structure used to decode search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source struct {
				ID   string `json:"id"`
				Text string `json:"text"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs body against index.
func (c *Client) Search(ctx context.Context, index string, body []byte) (*search.SearchResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch search error")
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, decodeError(res)
	}

	var sr esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, errors.Wrap(err, "elasticsearch search: decode response")
	}

	out := &search.SearchResponse{
		Total: sr.Hits.Total.Value,
		Hits:  make([]search.Hit, 0, len(sr.Hits.Hits)),
	}
	for _, hit := range sr.Hits.Hits {
		h := search.Hit{ID: hit.Source.ID, Text: hit.Source.Text}
		if h.ID == "" {
			h.ID = hit.ID
		}
		if hit.Score != nil {
			h.Score = *hit.Score
		}
		out.Hits = append(out.Hits, h)
	}
	return out, nil
}

// esErrorResponse is used to decode error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

func decodeError(res *esapi.Response) error {
	ee := &search.EngineError{Status: res.StatusCode}
	var errResp esErrorResponse
	if res.Body != nil {
		if err := json.NewDecoder(res.Body).Decode(&errResp); err == nil {
			ee.Type = errResp.Error.Type
			ee.Reason = errResp.Error.Reason
		}
	}
	return ee
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
