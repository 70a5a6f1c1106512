package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParquet(t *testing.T, path string, rows []reviewRow) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[reviewRow](f)
	_, err = w.Write(rows)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestStaticAndLimit(t *testing.T) {
	src := Static{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}, {ID: "3", Text: "c"}}

	recs, err := Limit(src, 2).Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []search.Record{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}}, recs)

	assert.Equal(t, Source(src), Limit(src, 0))

	recs, err = Limit(src, 10).Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.jsonl")
	content := strings.Join([]string{
		`{"id":"ja_0001","text":"とても良い商品でした"}`,
		``,
		`{"id":42,"text":"数値のID"}`,
		`{"text":"IDなし"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	recs, err := JSONLines(path).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, search.Record{ID: "ja_0001", Text: "とても良い商品でした"}, recs[0])
	assert.Equal(t, "42", recs[1].ID)
	_, err = uuid.Parse(recs[2].ID)
	assert.NoError(t, err, "missing id should be replaced by a uuid")
	assert.Equal(t, "IDなし", recs[2].Text)
}

func TestJSONLines_Errors(t *testing.T) {
	_, err := JSONLines(filepath.Join(t.TempDir(), "missing.jsonl")).Records(context.Background())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"1\",\"text\":\"ok\"}\nnot json\n"), 0o600))
	_, err = JSONLines(path).Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2:")
}

func TestParquetFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.parquet")
	second := filepath.Join(dir, "b.parquet")
	writeParquet(t, first, []reviewRow{
		{ID: "ja_1", Text: "星5つです"},
		{ID: "", Text: "skipped"},
	})
	writeParquet(t, second, []reviewRow{{ID: "ja_2", Text: "届くのが遅い"}})

	recs, err := ParquetFiles{first, second}.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []search.Record{
		{ID: "ja_1", Text: "星5つです"},
		{ID: "ja_2", Text: "届くのが遅い"},
	}, recs)

	_, err = ParquetFiles{filepath.Join(dir, "none.parquet")}.Records(context.Background())
	assert.Error(t, err)
}

// hubServer serves a parquet listing and its shards the way the Hub API does.
func hubServer(t *testing.T, shards [][]reviewRow, token string) (*httptest.Server, *int32) {
	t.Helper()
	dir := t.TempDir()
	for i, rows := range shards {
		writeParquet(t, filepath.Join(dir, fmt.Sprintf("%d.parquet", i)), rows)
	}
	var downloads int32

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/api/datasets/mteb/amazon_reviews_multi/parquet/ja/train", func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		urls := make([]string, 0, len(shards))
		for i := range shards {
			urls = append(urls, fmt.Sprintf("%q", fmt.Sprintf("%s/files/%d.parquet", srv.URL, i)))
		}
		_, _ = fmt.Fprintf(w, "[%s]", strings.Join(urls, ","))
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&downloads, 1)
		http.ServeFile(w, r, filepath.Join(dir, filepath.Base(r.URL.Path)))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &downloads
}

func TestHuggingFace_DownloadsAndCaches(t *testing.T) {
	srv, downloads := hubServer(t, [][]reviewRow{
		{{ID: "ja_1", Text: "一つ目"}},
		{{ID: "ja_2", Text: "二つ目"}, {ID: "ja_3", Text: "三つ目"}},
	}, "hf_secret")

	cache := t.TempDir()
	src := NewHuggingFace(HuggingFaceOptions{
		Endpoint: srv.URL,
		Dataset:  "mteb/amazon_reviews_multi",
		Config:   "ja",
		Split:    "train",
		Token:    "hf_secret",
		CacheDir: cache,
	})

	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ja_1", "ja_2", "ja_3"}, ids(recs))
	assert.Equal(t, int32(2), atomic.LoadInt32(downloads))
	shards, err := filepath.Glob(filepath.Join(cache, "*", "ja", "train", "*.parquet"))
	require.NoError(t, err)
	assert.Len(t, shards, 2)

	recs, err = src.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(downloads), "cached shards are not downloaded again")
}

func TestHuggingFace_ObjectListing(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, filepath.Join(dir, "0.parquet"), []reviewRow{{ID: "x", Text: "y"}})
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			_, _ = fmt.Fprintf(w, `[{"url":%q}]`, srv.URL+"/0.parquet")
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "0.parquet"))
	}))
	t.Cleanup(srv.Close)

	recs, err := NewHuggingFace(HuggingFaceOptions{
		Endpoint: srv.URL, Dataset: "d", Config: "c", Split: "s", CacheDir: t.TempDir(),
	}).Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []search.Record{{ID: "x", Text: "y"}}, recs)
}

func TestHuggingFace_Errors(t *testing.T) {
	srv, _ := hubServer(t, [][]reviewRow{{{ID: "1", Text: "a"}}}, "right")

	_, err := NewHuggingFace(HuggingFaceOptions{
		Endpoint: srv.URL, Dataset: "mteb/amazon_reviews_multi", Config: "ja", Split: "train",
		Token: "wrong", CacheDir: t.TempDir(),
	}).Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(empty.Close)
	_, err = NewHuggingFace(HuggingFaceOptions{
		Endpoint: empty.URL, Dataset: "d", Config: "c", Split: "s", CacheDir: t.TempDir(),
	}).Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parquet files")
}

func TestFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"1\",\"text\":\"a\"}\n{\"id\":\"2\",\"text\":\"b\"}\n"), 0o600))

	src, err := FromConfig(&config.Dataset{Source: config.SourceJSONLines, Path: path, Limit: 1}, nil)
	require.NoError(t, err)
	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(recs))

	src, err = FromConfig(&config.Dataset{Source: config.SourceParquet, Path: "x.parquet"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ParquetFiles{"x.parquet"}, src)

	src, err = FromConfig(&config.Dataset{Source: config.SourceHuggingFace, Name: "d"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &HuggingFace{}, src)

	_, err = FromConfig(&config.Dataset{Source: config.SourceJSONLines}, nil)
	assert.Error(t, err)
	_, err = FromConfig(&config.Dataset{Source: "csv"}, nil)
	assert.Error(t, err)
}

func ids(recs []search.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
