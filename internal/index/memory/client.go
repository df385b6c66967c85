// Package memory is an in-memory implementation of the index client,
// used in tests and for local development without a Typesense server.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/index"
	"github.com/storesync/typesync/internal/schema"
)

type collection struct {
	schema    schema.Collection
	docs      map[string]domain.Document
	createdAt time.Time
}

// Client stores collections, documents and aliases in maps.
// Thread-safe via sync.RWMutex.
type Client struct {
	mu          sync.RWMutex
	collections map[string]*collection
	aliases     map[string]string
}

// New creates an empty in-memory index client.
func New() *Client {
	return &Client{
		collections: make(map[string]*collection),
		aliases:     make(map[string]string),
	}
}

func (c *Client) CreateCollection(_ context.Context, col schema.Collection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.collections[col.Name]; ok {
		return fmt.Errorf("collection %s already exists", col.Name)
	}
	c.collections[col.Name] = &collection{
		schema:    col,
		docs:      make(map[string]domain.Document),
		createdAt: time.Now().UTC(),
	}
	return nil
}

func (c *Client) DeleteCollection(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.collections[name]; !ok {
		return fmt.Errorf("collection %s: %w", name, index.ErrNotFound)
	}
	delete(c.collections, name)
	return nil
}

func (c *Client) RetrieveCollection(_ context.Context, name string) (index.CollectionInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	col, ok := c.collections[name]
	if !ok {
		return index.CollectionInfo{}, fmt.Errorf("collection %s: %w", name, index.ErrNotFound)
	}
	return index.CollectionInfo{
		Name:         name,
		NumDocuments: int64(len(col.docs)),
		CreatedAt:    col.createdAt,
	}, nil
}

func (c *Client) ListCollections(_ context.Context) ([]index.CollectionInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]index.CollectionInfo, 0, len(c.collections))
	for name, col := range c.collections {
		infos = append(infos, index.CollectionInfo{
			Name:         name,
			NumDocuments: int64(len(col.docs)),
			CreatedAt:    col.createdAt,
		})
	}
	return infos, nil
}

func (c *Client) RetrieveAlias(_ context.Context, alias string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	target, ok := c.aliases[alias]
	if !ok {
		return "", fmt.Errorf("alias %s: %w", alias, index.ErrNotFound)
	}
	return target, nil
}

func (c *Client) UpsertAlias(_ context.Context, alias, collection string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.aliases[alias] = collection
	return nil
}

func (c *Client) ImportDocuments(_ context.Context, name string, docs []domain.Document, action index.Action) ([]index.ImportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Aliases resolve to their target collection, like the real server.
	if target, ok := c.aliases[name]; ok {
		name = target
	}

	col, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", name, index.ErrNotFound)
	}

	results := make([]index.ImportResult, len(docs))
	for i, doc := range docs {
		results[i].Document = doc

		id := doc.ID()
		if id == "" {
			results[i].Error = "document missing id field"
			continue
		}

		stored, exists := col.docs[id]
		switch action {
		case index.ActionCreate:
			if exists {
				results[i].Error = fmt.Sprintf("document %s already exists", id)
				continue
			}
		case index.ActionUpdate:
			if !exists {
				results[i].Error = fmt.Sprintf("document %s not found", id)
				continue
			}
			// Update merges fields into the stored document, like the
			// real server. Create and upsert replace it wholesale.
			merged := make(domain.Document, len(stored)+len(doc))
			for k, v := range stored {
				merged[k] = v
			}
			for k, v := range doc {
				merged[k] = v
			}
			doc = merged
		}

		col.docs[id] = doc
		results[i].Success = true
	}
	return results, nil
}

// Documents returns all documents in a collection, for test assertions.
// Alias names resolve to their target collection.
func (c *Client) Documents(name string) []domain.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if target, ok := c.aliases[name]; ok {
		name = target
	}
	col, ok := c.collections[name]
	if !ok {
		return nil
	}
	docs := make([]domain.Document, 0, len(col.docs))
	for _, d := range col.docs {
		docs = append(docs, d)
	}
	return docs
}

// Document returns one document by id, for test assertions.
func (c *Client) Document(name, id string) (domain.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if target, ok := c.aliases[name]; ok {
		name = target
	}
	col, ok := c.collections[name]
	if !ok {
		return nil, false
	}
	doc, ok := col.docs[id]
	return doc, ok
}

// Collections returns the names of all physical collections.
func (c *Client) Collections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.collections))
	for name := range c.collections {
		names = append(names, name)
	}
	return names
}

// AliasTarget returns the collection an alias points at, or "".
func (c *Client) AliasTarget(alias string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.aliases[alias]
}
