package search

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxReportedFailures caps the per-item failures kept in a LoadResult.
const maxReportedFailures = 10

// Service provisions the review index, loads records and runs queries.
// Every method is a blocking round trip on the underlying client.
type Service struct {
	client Client
	log    logrus.FieldLogger
}

// NewService creates a service on top of client. A nil logger discards output.
func NewService(client Client, log logrus.FieldLogger) *Service {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Service{
		client: client,
		log:    log.WithField("engine", client.Engine()),
	}
}

// Client returns the underlying engine client.
func (s *Service) Client() Client {
	return s.client
}

// Ping reports whether the engine answered the liveness request.
func (s *Service) Ping(ctx context.Context) bool {
	if err := s.client.Ping(ctx); err != nil {
		s.log.WithError(err).Debug("ping failed")
		return false
	}
	return true
}

// EnsureIndex creates index with the review schema unless it already exists.
// It reports whether the index was created by this call.
func (s *Service) EnsureIndex(ctx context.Context, index string) (bool, error) {
	exists, err := s.client.IndexExists(ctx, index)
	if err != nil {
		return false, errors.Wrapf(err, "check index %s", index)
	}
	if exists {
		s.log.WithField("index", index).Debug("index already exists")
		return false, nil
	}

	body, err := IndexBody()
	if err != nil {
		return false, errors.Wrap(err, "build index body")
	}
	if err := s.client.CreateIndex(ctx, index, body); err != nil {
		// lost a race with another creator
		if errors.Is(err, ErrIndexExists) {
			return false, nil
		}
		return false, errors.Wrapf(err, "create index %s", index)
	}
	s.log.WithField("index", index).Info("index created")
	return true, nil
}

// DeleteIndex removes index. Deleting a missing index is not an error.
func (s *Service) DeleteIndex(ctx context.Context, index string) error {
	if err := s.client.DeleteIndex(ctx, index); err != nil {
		if errors.Is(err, ErrIndexNotFound) {
			return nil
		}
		return errors.Wrapf(err, "delete index %s", index)
	}
	s.log.WithField("index", index).Info("index deleted")
	return nil
}

// Load writes records into index with the bulk API. With the zero LoadOptions
// the whole slice goes out in one request.
func (s *Service) Load(ctx context.Context, index string, records []Record, opts LoadOptions) (*LoadResult, error) {
	result := &LoadResult{}
	if len(records) == 0 {
		return result, nil
	}

	for _, batch := range chunk(records, opts.BatchSize) {
		body, err := BulkBody(index, batch)
		if err != nil {
			return result, err
		}
		resp, err := s.client.Bulk(ctx, index, body, opts.Refresh)
		if err != nil {
			return result, errors.Wrapf(err, "bulk index into %s", index)
		}
		result.Requests++
		result.Indexed += resp.Indexed
		result.Failed += len(resp.Failed)
		for _, f := range resp.Failed {
			if len(result.Errors) >= maxReportedFailures {
				break
			}
			result.Errors = append(result.Errors, f)
		}
		s.log.WithFields(logrus.Fields{
			"index":   index,
			"count":   len(batch),
			"failed":  len(resp.Failed),
			"request": result.Requests,
		}).Debug("bulk request done")
	}

	if result.Failed > 0 {
		first := result.Errors[0]
		return result, errors.Wrapf(ErrBulkPartial, "%d of %d documents rejected (first: %s %s: %s)",
			result.Failed, len(records), first.ID, first.Type, first.Reason)
	}
	return result, nil
}

// Search runs a match query for text against index and returns at most
// limit hits in engine order. limit <= 0 means DefaultSize.
func (s *Service) Search(ctx context.Context, index, text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultSize
	}
	body, err := MatchQueryBody(text, limit)
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}
	resp, err := s.client.Search(ctx, index, body)
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", index)
	}

	hits := resp.Hits
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []Hit{}
	}
	s.log.WithFields(logrus.Fields{
		"index": index,
		"total": resp.Total,
		"hits":  len(hits),
	}).Debug("search done")
	return hits, nil
}
