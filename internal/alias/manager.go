// Package alias implements the blue-green collection scheme. Each
// collection type owns two physical collections ("a" and "b" slots) plus a
// stable alias the storefront queries. Full syncs rebuild the inactive slot
// and atomically repoint the alias, so readers never see a partial index.
package alias

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/index"
)

// Slot names for the two physical collections behind each alias.
const (
	SlotA = "a"
	SlotB = "b"
)

// UpdateError reports a failed alias flip. The alias still points at the
// previous collection, so the storefront keeps serving the old index.
type UpdateError struct {
	Alias  string
	Target string
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update alias %s -> %s: %v", e.Alias, e.Target, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// Manager resolves alias and collection names for one store and performs
// alias flips.
type Manager struct {
	idx     index.Client
	storeID string
	logger  *slog.Logger
}

// NewManager creates an alias manager for the given store.
func NewManager(idx index.Client, storeID string, logger *slog.Logger) *Manager {
	return &Manager{
		idx:     idx,
		storeID: storeID,
		logger:  logger,
	}
}

// AliasName returns the stable alias for a collection type, e.g.
// "product-my-store". The storefront always queries this name.
func (m *Manager) AliasName(t domain.CollectionType) string {
	return fmt.Sprintf("%s-%s", t, m.storeID)
}

// CollectionName returns the physical collection name for a slot, e.g.
// "product-my-store-a".
func (m *Manager) CollectionName(t domain.CollectionType, slot string) string {
	return fmt.Sprintf("%s-%s-%s", t, m.storeID, slot)
}

// CurrentCollection returns the physical collection the alias currently
// points at, or "" when the alias does not exist yet (first run).
func (m *Manager) CurrentCollection(ctx context.Context, t domain.CollectionType) (string, error) {
	target, err := m.idx.RetrieveAlias(ctx, m.AliasName(t))
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return target, nil
}

// InactiveCollection returns the physical collection that is safe to
// rebuild: the slot the alias does not point at. On first run, or when the
// alias points at an unrecognized name, slot "a" is chosen.
func (m *Manager) InactiveCollection(ctx context.Context, t domain.CollectionType) (string, error) {
	current, err := m.CurrentCollection(ctx, t)
	if err != nil {
		return "", err
	}
	switch {
	case strings.HasSuffix(current, "-"+SlotA):
		return m.CollectionName(t, SlotB), nil
	default:
		return m.CollectionName(t, SlotA), nil
	}
}

// Update points the alias at target and returns the collection it pointed
// at before. The flip is a single upsert on the index side; it either fully
// succeeds or leaves the alias untouched. The target collection must exist.
func (m *Manager) Update(ctx context.Context, t domain.CollectionType, target string) (string, error) {
	aliasName := m.AliasName(t)

	if _, err := m.idx.RetrieveCollection(ctx, target); err != nil {
		return "", &UpdateError{Alias: aliasName, Target: target, Err: err}
	}

	previous, err := m.CurrentCollection(ctx, t)
	if err != nil {
		return "", &UpdateError{Alias: aliasName, Target: target, Err: err}
	}

	if err := m.idx.UpsertAlias(ctx, aliasName, target); err != nil {
		return "", &UpdateError{Alias: aliasName, Target: target, Err: err}
	}

	m.logger.Info("alias updated",
		slog.String("alias", aliasName),
		slog.String("target", target),
		slog.String("previous", previous),
	)
	return previous, nil
}

// Cleanup deletes physical collections of the given type that the alias no
// longer points at. It returns the names of the deleted collections.
// Callers run it after a successful flip; failures here never affect the
// already-promoted index.
func (m *Manager) Cleanup(ctx context.Context, t domain.CollectionType) ([]string, error) {
	current, err := m.CurrentCollection(ctx, t)
	if err != nil {
		return nil, err
	}

	cols, err := m.idx.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	prefix := m.AliasName(t) + "-"
	var deleted []string
	for _, col := range cols {
		if !strings.HasPrefix(col.Name, prefix) || col.Name == current {
			continue
		}
		if err := m.idx.DeleteCollection(ctx, col.Name); err != nil {
			m.logger.Warn("cleanup: delete collection failed",
				slog.String("collection", col.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		m.logger.Info("cleanup: deleted stale collection", slog.String("collection", col.Name))
		deleted = append(deleted, col.Name)
	}
	return deleted, nil
}
