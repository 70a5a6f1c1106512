package elasticsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/ncobase/revsearch/data/search/searchtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *searchtest.Server, mutate ...func(*config.Search)) *Client {
	t.Helper()
	cfg := &config.Search{
		Engine:      "elasticsearch",
		Addresses:   []string{srv.URL},
		Username:    "admin",
		Password:    "admin-pass",
		Compression: true,
	}
	for _, m := range mutate {
		m(cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestNewClient_NoAddresses(t *testing.T) {
	_, err := NewClient(&config.Search{})
	assert.Error(t, err)
}

func TestRegisteredFactory(t *testing.T) {
	srv := searchtest.NewServer()
	t.Cleanup(srv.Close)

	c, err := search.NewClient(&config.Search{Engine: "elasticsearch", Addresses: []string{srv.URL}})
	require.NoError(t, err)
	assert.Equal(t, search.Elasticsearch, c.Engine())
}

func TestPing(t *testing.T) {
	srv := searchtest.NewServer()
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv)
	require.NoError(t, c.Ping(context.Background()))

	req, ok := srv.LastRequest(http.MethodHead, "/")
	require.True(t, ok)
	assert.Equal(t, "admin", req.Username)
	assert.Equal(t, "admin-pass", req.Password)
}

func TestPing_Unreachable(t *testing.T) {
	srv := searchtest.NewServer()
	url := srv.URL
	srv.Close()

	c, err := NewClient(&config.Search{Addresses: []string{url}})
	require.NoError(t, err)
	assert.Error(t, c.Ping(context.Background()))
	assert.False(t, search.NewService(c, nil).Ping(context.Background()))
}

func TestPing_TLSVerification(t *testing.T) {
	srv := searchtest.NewTLSServer()
	t.Cleanup(srv.Close)

	secure := newTestClient(t, srv)
	assert.Error(t, secure.Ping(context.Background()), "self-signed certificate must be rejected by default")

	insecure := newTestClient(t, srv, func(cfg *config.Search) { cfg.InsecureSkipTLS = true })
	assert.NoError(t, insecure.Ping(context.Background()))
}

func TestIndexLifecycle(t *testing.T) {
	srv := searchtest.NewServer()
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)
	ctx := context.Background()

	exists, err := c.IndexExists(ctx, "reviews")
	require.NoError(t, err)
	assert.False(t, exists)

	body, err := search.IndexBody()
	require.NoError(t, err)
	require.NoError(t, c.CreateIndex(ctx, "reviews", body))

	exists, err = c.IndexExists(ctx, "reviews")
	require.NoError(t, err)
	assert.True(t, exists)

	stored, ok := srv.IndexBody("reviews")
	require.True(t, ok)
	assert.JSONEq(t, string(body), string(stored))

	err = c.CreateIndex(ctx, "reviews", body)
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrIndexExists)

	require.NoError(t, c.DeleteIndex(ctx, "reviews"))
	err = c.DeleteIndex(ctx, "reviews")
	assert.ErrorIs(t, err, search.ErrIndexNotFound)
}

func TestCreateIndex_CompressedBody(t *testing.T) {
	srv := searchtest.NewServer()
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)

	body, err := search.IndexBody()
	require.NoError(t, err)
	require.NoError(t, c.CreateIndex(context.Background(), "gz", body))

	req, ok := srv.LastRequest(http.MethodPut, "/gz")
	require.True(t, ok)
	assert.Equal(t, "gzip", req.ContentEncoding)
	assert.True(t, json.Valid(req.Body))
}

func TestBulkAndSearch(t *testing.T) {
	srv := searchtest.NewServer()
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)
	ctx := context.Background()

	body, err := search.BulkBody("reviews", []search.Record{
		{ID: "1", Text: "とても良い商品でした"},
		{ID: "2", Text: "残念な品質"},
	})
	require.NoError(t, err)

	resp, err := c.Bulk(ctx, "reviews", body, true)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Indexed)
	assert.Empty(t, resp.Failed)

	req, ok := srv.LastRequest(http.MethodPost, "/_bulk")
	require.True(t, ok)
	assert.Contains(t, req.Query, "refresh=true")

	q, err := search.MatchQueryBody("良い", 5)
	require.NoError(t, err)
	sr, err := c.Search(ctx, "reviews", q)
	require.NoError(t, err)
	require.Len(t, sr.Hits, 1)
	assert.Equal(t, "1", sr.Hits[0].ID)
	assert.Equal(t, "とても良い商品でした", sr.Hits[0].Text)
	assert.Greater(t, sr.Hits[0].Score, 0.0)
	assert.EqualValues(t, 1, sr.Total)
}

func TestBulk_ItemFailures(t *testing.T) {
	srv := searchtest.NewServer()
	t.Cleanup(srv.Close)
	srv.Reject["bad"] = "failed to parse field [text]"
	c := newTestClient(t, srv)

	body, err := search.BulkBody("reviews", []search.Record{
		{ID: "ok", Text: "良い"},
		{ID: "bad", Text: "x"},
	})
	require.NoError(t, err)

	resp, err := c.Bulk(context.Background(), "reviews", body, false)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Indexed)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "bad", resp.Failed[0].ID)
	assert.Equal(t, http.StatusBadRequest, resp.Failed[0].Status)
	assert.Equal(t, "mapper_parsing_exception", resp.Failed[0].Type)
	assert.Equal(t, "failed to parse field [text]", resp.Failed[0].Reason)
}

func TestSearch_MissingIndex(t *testing.T) {
	srv := searchtest.NewServer()
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)

	q, err := search.MatchQueryBody("良い", 5)
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "missing", q)
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrIndexNotFound)

	var ee *search.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, http.StatusNotFound, ee.Status)
}
