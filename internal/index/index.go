// Package index defines the interface to the search index service.
// Implementations may use Typesense or in-memory storage.
package index

import (
	"context"
	"errors"
	"time"

	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/schema"
)

// ErrNotFound is returned when a collection or alias does not exist.
// Callers treat it as a first-run bootstrap condition, not a fatal error.
var ErrNotFound = errors.New("index: not found")

// Action selects how a document import treats existing documents.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpsert Action = "upsert"
	ActionUpdate Action = "update"
)

// ImportResult is the per-document outcome of a batch import. The result
// list always matches the input list in length and order.
type ImportResult struct {
	Success  bool
	Document domain.Document
	Error    string
}

// CollectionInfo describes one physical collection.
type CollectionInfo struct {
	Name         string
	NumDocuments int64
	CreatedAt    time.Time
}

// Client is the interface to the index service.
type Client interface {
	// CreateCollection creates a physical collection with the given schema.
	CreateCollection(ctx context.Context, col schema.Collection) error

	// DeleteCollection removes a physical collection. Returns ErrNotFound
	// if it does not exist.
	DeleteCollection(ctx context.Context, name string) error

	// RetrieveCollection returns metadata for a physical collection, or
	// ErrNotFound.
	RetrieveCollection(ctx context.Context, name string) (CollectionInfo, error)

	// ListCollections returns metadata for every physical collection.
	ListCollections(ctx context.Context) ([]CollectionInfo, error)

	// RetrieveAlias returns the collection an alias currently points to,
	// or ErrNotFound if the alias does not exist.
	RetrieveAlias(ctx context.Context, alias string) (string, error)

	// UpsertAlias atomically points an alias at a collection.
	UpsertAlias(ctx context.Context, alias, collection string) error

	// ImportDocuments imports a bounded batch of documents into a
	// collection. A batch-level transport failure is returned as an error;
	// per-document rejections are reported in the results.
	ImportDocuments(ctx context.Context, collection string, docs []domain.Document, action Action) ([]ImportResult, error)
}
