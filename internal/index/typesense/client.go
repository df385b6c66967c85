// Package typesense implements the index client against a Typesense server.
package typesense

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/index"
	"github.com/storesync/typesync/internal/schema"
)

// Config holds Typesense connection settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client talks to a Typesense cluster. It satisfies index.Client.
type Client struct {
	ts *typesense.Client
}

// New creates a Typesense-backed index client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ts := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(timeout),
	)
	return &Client{ts: ts}
}

// Ping checks cluster health. Used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.ts.Health(ctx, 5*time.Second)
	if err != nil {
		return fmt.Errorf("typesense health: %w", err)
	}
	if !ok {
		return errors.New("typesense health: not ok")
	}
	return nil
}

func (c *Client) CreateCollection(ctx context.Context, col schema.Collection) error {
	ts := toSchema(col)
	if _, err := c.ts.Collections().Create(ctx, ts); err != nil {
		return fmt.Errorf("create collection %s: %w", col.Name, err)
	}
	return nil
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	if _, err := c.ts.Collection(name).Delete(ctx); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, wrapNotFound(err))
	}
	return nil
}

func (c *Client) RetrieveCollection(ctx context.Context, name string) (index.CollectionInfo, error) {
	col, err := c.ts.Collection(name).Retrieve(ctx)
	if err != nil {
		return index.CollectionInfo{}, fmt.Errorf("retrieve collection %s: %w", name, wrapNotFound(err))
	}
	info := index.CollectionInfo{Name: col.Name}
	if col.NumDocuments != nil {
		info.NumDocuments = int64(*col.NumDocuments)
	}
	if col.CreatedAt != nil {
		info.CreatedAt = time.Unix(*col.CreatedAt, 0).UTC()
	}
	return info, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]index.CollectionInfo, error) {
	cols, err := c.ts.Collections().Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	infos := make([]index.CollectionInfo, 0, len(cols))
	for _, col := range cols {
		info := index.CollectionInfo{Name: col.Name}
		if col.NumDocuments != nil {
			info.NumDocuments = int64(*col.NumDocuments)
		}
		if col.CreatedAt != nil {
			info.CreatedAt = time.Unix(*col.CreatedAt, 0).UTC()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *Client) RetrieveAlias(ctx context.Context, alias string) (string, error) {
	a, err := c.ts.Alias(alias).Retrieve(ctx)
	if err != nil {
		return "", fmt.Errorf("retrieve alias %s: %w", alias, wrapNotFound(err))
	}
	return a.CollectionName, nil
}

func (c *Client) UpsertAlias(ctx context.Context, alias, collection string) error {
	_, err := c.ts.Aliases().Upsert(ctx, alias, &api.CollectionAliasSchema{
		CollectionName: collection,
	})
	if err != nil {
		return fmt.Errorf("upsert alias %s -> %s: %w", alias, collection, err)
	}
	return nil
}

func (c *Client) ImportDocuments(ctx context.Context, collection string, docs []domain.Document, action index.Action) ([]index.ImportResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	payload := make([]interface{}, len(docs))
	for i, d := range docs {
		payload[i] = d
	}

	params := &api.ImportDocumentsParams{
		Action:    pointer.String(string(action)),
		BatchSize: pointer.Int(len(docs)),
	}
	responses, err := c.ts.Collection(collection).Documents().Import(ctx, payload, params)
	if err != nil {
		return nil, fmt.Errorf("import into %s: %w", collection, wrapNotFound(err))
	}

	results := make([]index.ImportResult, len(docs))
	for i := range docs {
		results[i].Document = docs[i]
		if i >= len(responses) {
			results[i].Error = "no import response for document"
			continue
		}
		results[i].Success = responses[i].Success
		results[i].Error = responses[i].Error
	}
	return results, nil
}

// wrapNotFound maps Typesense 404 responses onto index.ErrNotFound so
// callers can branch on the bootstrap case.
func wrapNotFound(err error) error {
	var httpErr *typesense.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", index.ErrNotFound, err)
	}
	return err
}

func toSchema(col schema.Collection) *api.CollectionSchema {
	fields := make([]api.Field, 0, len(col.Fields))
	for _, f := range col.Fields {
		field := api.Field{
			Name: f.Name,
			Type: f.Type,
		}
		if f.Facet {
			field.Facet = pointer.True()
		}
		if f.Sort {
			field.Sort = pointer.True()
		}
		if f.Infix {
			field.Infix = pointer.True()
		}
		if f.Optional {
			field.Optional = pointer.True()
		}
		fields = append(fields, field)
	}

	ts := &api.CollectionSchema{
		Name:   col.Name,
		Fields: fields,
	}
	if col.DefaultSortingField != "" {
		ts.DefaultSortingField = pointer.String(col.DefaultSortingField)
	}
	if col.EnableNestedFields {
		ts.EnableNestedFields = pointer.True()
	}
	return ts
}
