package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/ncobase/revsearch/data/search"
	"github.com/sirupsen/logrus"
)

// HuggingFaceOptions selects a dataset split on the Hugging Face Hub.
type HuggingFaceOptions struct {
	Endpoint string // e.g. https://huggingface.co
	Dataset  string // e.g. mteb/amazon_reviews_multi
	Config   string // e.g. ja
	Split    string // e.g. train
	Token    string
	CacheDir string
	Client   *http.Client
	Log      logrus.FieldLogger
}

// HuggingFace downloads the parquet export of a dataset split into CacheDir and
// reads id/text from it. Shards already in the cache are not downloaded again.
type HuggingFace struct {
	opts HuggingFaceOptions
}

// NewHuggingFace creates a Hub source.
func NewHuggingFace(opts HuggingFaceOptions) *HuggingFace {
	if opts.Endpoint == "" {
		opts.Endpoint = "https://huggingface.co"
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(os.TempDir(), "revsearch")
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	return &HuggingFace{opts: opts}
}

// Records implements Source.
func (h *HuggingFace) Records(ctx context.Context) ([]search.Record, error) {
	urls, err := h.listParquetFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parquet files: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no parquet files for %s/%s/%s", h.opts.Dataset, h.opts.Config, h.opts.Split)
	}

	dir := filepath.Join(h.opts.CacheDir, slug.Make(h.opts.Dataset), slug.Make(h.opts.Config), slug.Make(h.opts.Split))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	files := make(ParquetFiles, 0, len(urls))
	for i, u := range urls {
		path := filepath.Join(dir, fmt.Sprintf("%05d.parquet", i))
		files = append(files, path)
		if st, err := os.Stat(path); err == nil && st.Size() > 0 {
			h.opts.Log.WithField("file", path).Debug("parquet shard cached")
			continue
		}
		if err := h.download(ctx, u, path); err != nil {
			return nil, fmt.Errorf("download shard %d: %w", i, err)
		}
	}
	return files.Records(ctx)
}

// listParquetFiles asks the Hub for the parquet export URLs of the split.
// The API answers with a JSON array of URLs; objects with a url field are
// accepted as well.
func (h *HuggingFace) listParquetFiles(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/datasets/%s/parquet/%s/%s",
		strings.TrimRight(h.opts.Endpoint, "/"), h.opts.Dataset,
		url.PathEscape(h.opts.Config), url.PathEscape(h.opts.Split))

	resp, err := h.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var entries []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse HF response: %w", err)
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			urls = append(urls, s)
			continue
		}
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(e, &obj); err == nil && obj.URL != "" {
			urls = append(urls, obj.URL)
		}
	}
	return urls, nil
}

// download writes u to path through a temporary file.
func (h *HuggingFace) download(ctx context.Context, u, path string) error {
	h.opts.Log.WithFields(logrus.Fields{"url": u, "file": path}).Info("downloading parquet shard")

	resp, err := h.get(ctx, u)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}
	_, err = io.Copy(f, resp.Body)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write: %w", err)
	}
	return os.Rename(tmp, path)
}

func (h *HuggingFace) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if h.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.opts.Token)
	}
	resp, err := h.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HF request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HF: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
