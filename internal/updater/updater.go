// Package updater applies incremental changes to the live collections in
// response to catalog events. Updates always target whatever collection the
// alias currently points at, one document per import, with the update
// action so a record that was never fully synced is not half-created.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/storesync/typesync/internal/alias"
	"github.com/storesync/typesync/internal/catalog"
	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/index"
	"github.com/storesync/typesync/internal/mapper"
)

var incrementalUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "typesync_incremental_updates_total",
	Help: "Incremental document updates, by collection type and outcome.",
}, []string{"type", "outcome"})

// Catalog is the slice of the catalog client incremental updates need.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetVariation(ctx context.Context, parentID, id int64) (*domain.Product, error)
	GetTerm(ctx context.Context, id int64) (*domain.Term, error)
	GetMenu(ctx context.Context, id int64) (*domain.Menu, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

// Updater applies single-document updates to the active collections.
type Updater struct {
	catalog Catalog
	idx     index.Client
	aliases *alias.Manager
	mapper  *mapper.Mapper
	logger  *slog.Logger
}

// New creates an updater.
func New(cat Catalog, idx index.Client, aliases *alias.Manager, m *mapper.Mapper, logger *slog.Logger) *Updater {
	return &Updater{
		catalog: cat,
		idx:     idx,
		aliases: aliases,
		mapper:  m,
		logger:  logger,
	}
}

// ProductSaved refreshes a product's document, and its variations'
// documents when the product is variable.
func (u *Updater) ProductSaved(ctx context.Context, productID int64) error {
	collection, ok, err := u.activeCollection(ctx, domain.CollectionProduct)
	if err != nil || !ok {
		return err
	}

	p, err := u.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			// Deleted or unpublished; the next full sync drops it.
			u.logger.Info("product gone from catalog, skipping update", slog.Int64("product_id", productID))
			return nil
		}
		return err
	}

	doc := u.mapper.ProductDocument(p)
	if p.IsVariable() {
		summaries := make([]map[string]any, 0, len(p.VariationIDs))
		for _, id := range p.VariationIDs {
			v, err := u.catalog.GetVariation(ctx, p.ID, id)
			if err != nil {
				u.logger.Warn("skipping variation update",
					slog.Int64("product_id", p.ID),
					slog.Int64("variation_id", id),
					slog.String("error", err.Error()),
				)
				continue
			}
			summaries = append(summaries, u.mapper.VariationSummary(v))
			if err := u.updateDocument(ctx, domain.CollectionProduct, collection, u.mapper.VariationDocument(p, v)); err != nil {
				return err
			}
		}
		if len(summaries) > 0 {
			doc["variations"] = summaries
		}
	}

	return u.updateDocument(ctx, domain.CollectionProduct, collection, doc)
}

// OrderStatusChanged refreshes the products of an order once it reaches a
// state that changes indexed data (stock levels, sales counts). Other
// transitions are ignored.
func (u *Updater) OrderStatusChanged(ctx context.Context, orderID int64, status string) error {
	if !domain.IsTerminalOrderStatus(status) {
		return nil
	}

	order, err := u.catalog.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			u.logger.Info("order gone from catalog, skipping update", slog.Int64("order_id", orderID))
			return nil
		}
		return err
	}

	for _, productID := range order.ProductIDs {
		if err := u.ProductSaved(ctx, productID); err != nil {
			return fmt.Errorf("refresh product %d for order %d: %w", productID, orderID, err)
		}
	}
	return nil
}

// TermEdited refreshes a taxonomy term's document. Platform-internal
// taxonomies are never indexed.
func (u *Updater) TermEdited(ctx context.Context, termID int64) error {
	collection, ok, err := u.activeCollection(ctx, domain.CollectionTaxonomy)
	if err != nil || !ok {
		return err
	}

	term, err := u.catalog.GetTerm(ctx, termID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			u.logger.Info("term gone from catalog, skipping update", slog.Int64("term_id", termID))
			return nil
		}
		return err
	}
	if mapper.IsInternalTaxonomy(term.Taxonomy) {
		return nil
	}

	return u.updateDocument(ctx, domain.CollectionTaxonomy, collection, u.mapper.TermDocument(term))
}

// MenuUpdated refreshes a navigation menu's document.
func (u *Updater) MenuUpdated(ctx context.Context, menuID int64) error {
	collection, ok, err := u.activeCollection(ctx, domain.CollectionMenu)
	if err != nil || !ok {
		return err
	}

	menu, err := u.catalog.GetMenu(ctx, menuID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			u.logger.Info("menu gone from catalog, skipping update", slog.Int64("menu_id", menuID))
			return nil
		}
		return err
	}

	return u.updateDocument(ctx, domain.CollectionMenu, collection, u.mapper.MenuDocument(menu))
}

// activeCollection resolves the collection the alias points at. Before the
// first full sync there is nothing to update, so ok is false and the event
// is dropped.
func (u *Updater) activeCollection(ctx context.Context, t domain.CollectionType) (string, bool, error) {
	collection, err := u.aliases.CurrentCollection(ctx, t)
	if err != nil {
		return "", false, err
	}
	if collection == "" {
		u.logger.Info("no active collection yet, dropping update", slog.String("type", string(t)))
		incrementalUpdates.WithLabelValues(string(t), "dropped").Inc()
		return "", false, nil
	}
	return collection, true, nil
}

// updateDocument imports one document with the update action. A transport
// failure is returned so the event consumer can retry; a per-document
// rejection (usually: the record was never in the index) is logged and
// swallowed because retrying cannot fix it.
func (u *Updater) updateDocument(ctx context.Context, t domain.CollectionType, collection string, doc domain.Document) error {
	results, err := u.idx.ImportDocuments(ctx, collection, []domain.Document{doc}, index.ActionUpdate)
	if err != nil {
		incrementalUpdates.WithLabelValues(string(t), "error").Inc()
		return fmt.Errorf("update document %s in %s: %w", doc.ID(), collection, err)
	}
	for _, r := range results {
		if !r.Success {
			incrementalUpdates.WithLabelValues(string(t), "rejected").Inc()
			u.logger.Warn("incremental update rejected",
				slog.String("collection", collection),
				slog.String("document_id", r.Document.ID()),
				slog.String("error", r.Error),
			)
			return nil
		}
	}
	incrementalUpdates.WithLabelValues(string(t), "success").Inc()
	return nil
}
