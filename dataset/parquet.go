package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ncobase/revsearch/data/search"
	"github.com/parquet-go/parquet-go"
)

// reviewRow is the subset of dataset columns that is indexed.
type reviewRow struct {
	ID   string `parquet:"id,optional"`
	Text string `parquet:"text,optional"`
}

// ParquetFiles reads id/text columns from local parquet files, in order.
type ParquetFiles []string

// Records implements Source.
func (files ParquetFiles) Records(ctx context.Context) ([]search.Record, error) {
	var recs []search.Record
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := readParquet(path)
		if err != nil {
			return nil, err
		}
		recs = append(recs, got...)
	}
	return recs, nil
}

func readParquet(path string) ([]search.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := parquet.NewGenericReader[reviewRow](f)
	defer func() { _ = reader.Close() }()

	recs := make([]search.Record, 0, reader.NumRows())
	buf := make([]reviewRow, 1024)
	for {
		n, err := reader.Read(buf)
		for _, row := range buf[:n] {
			if row.ID == "" {
				continue
			}
			recs = append(recs, search.Record{ID: row.ID, Text: row.Text})
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}
	return recs, nil
}
