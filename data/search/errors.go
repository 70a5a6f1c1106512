package search

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrIndexNotFound is returned when the target index does not exist.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexExists is returned when creating an index that already exists.
	ErrIndexExists = errors.New("index already exists")
	// ErrBulkPartial is returned when some documents of a bulk request were rejected.
	ErrBulkPartial = errors.New("bulk request partially failed")
	// ErrUnknownEngine is returned by NewClient for an unregistered engine.
	ErrUnknownEngine = errors.New("unknown search engine")
)

// Engine error types reported in the "error.type" field of a reply.
const (
	typeIndexNotFound = "index_not_found_exception"
	typeIndexExists   = "resource_already_exists_exception"
)

// EngineError is an error reply returned by the search engine.
type EngineError struct {
	Status int
	Type   string
	Reason string
}

func (e *EngineError) Error() string {
	switch {
	case e.Type != "" && e.Reason != "":
		return fmt.Sprintf("[%d] %s: %s", e.Status, e.Type, e.Reason)
	case e.Type != "":
		return fmt.Sprintf("[%d] %s", e.Status, e.Type)
	case e.Reason != "":
		return fmt.Sprintf("[%d] %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Is maps well-known engine error types onto the package sentinels.
func (e *EngineError) Is(target error) bool {
	switch target {
	case ErrIndexNotFound:
		return e.Type == typeIndexNotFound
	case ErrIndexExists:
		return e.Type == typeIndexExists
	}
	return false
}
