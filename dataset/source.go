// Package dataset provides record sources for the bulk loader. Loaders only
// depend on the Source interface, never on a particular dataset host.
package dataset

import (
	"context"
	"fmt"

	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/sirupsen/logrus"
)

// Source yields the records to index.
type Source interface {
	Records(ctx context.Context) ([]search.Record, error)
}

// Static is an in-memory source.
type Static []search.Record

// Records implements Source.
func (s Static) Records(context.Context) ([]search.Record, error) {
	return append([]search.Record(nil), s...), nil
}

type limited struct {
	src Source
	n   int
}

// Limit caps src at n records. n <= 0 returns src unchanged.
func Limit(src Source, n int) Source {
	if n <= 0 {
		return src
	}
	return limited{src: src, n: n}
}

func (l limited) Records(ctx context.Context) ([]search.Record, error) {
	recs, err := l.src.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(recs) > l.n {
		recs = recs[:l.n]
	}
	return recs, nil
}

// FromConfig builds the source described by cfg. log may be nil.
func FromConfig(cfg *config.Dataset, log logrus.FieldLogger) (Source, error) {
	var src Source
	switch cfg.Source {
	case config.SourceHuggingFace, "":
		src = NewHuggingFace(HuggingFaceOptions{
			Endpoint: cfg.Endpoint,
			Dataset:  cfg.Name,
			Config:   cfg.Config,
			Split:    cfg.Split,
			Token:    cfg.Token,
			CacheDir: cfg.CacheDir,
			Log:      log,
		})
	case config.SourceJSONLines:
		if cfg.Path == "" {
			return nil, fmt.Errorf("dataset: path is required for %s source", cfg.Source)
		}
		src = JSONLines(cfg.Path)
	case config.SourceParquet:
		if cfg.Path == "" {
			return nil, fmt.Errorf("dataset: path is required for %s source", cfg.Source)
		}
		src = ParquetFiles{cfg.Path}
	default:
		return nil, fmt.Errorf("dataset: unsupported source %q", cfg.Source)
	}
	return Limit(src, cfg.Limit), nil
}
