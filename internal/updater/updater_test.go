package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/typesync/internal/alias"
	"github.com/storesync/typesync/internal/catalog"
	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/index"
	"github.com/storesync/typesync/internal/index/memory"
	"github.com/storesync/typesync/internal/mapper"
	"github.com/storesync/typesync/internal/schema"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	products map[int64]*domain.Product
	terms    map[int64]*domain.Term
	menus    map[int64]*domain.Menu
	orders   map[int64]*domain.Order
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("fetch product %d: %w", id, catalog.ErrNotFound)
	}
	return p, nil
}

func (f *fakeCatalog) GetVariation(_ context.Context, parentID, id int64) (*domain.Product, error) {
	return f.GetProduct(context.Background(), id)
}

func (f *fakeCatalog) GetTerm(_ context.Context, id int64) (*domain.Term, error) {
	term, ok := f.terms[id]
	if !ok {
		return nil, fmt.Errorf("fetch term %d: %w", id, catalog.ErrNotFound)
	}
	return term, nil
}

func (f *fakeCatalog) GetMenu(_ context.Context, id int64) (*domain.Menu, error) {
	m, ok := f.menus[id]
	if !ok {
		return nil, fmt.Errorf("fetch menu %d: %w", id, catalog.ErrNotFound)
	}
	return m, nil
}

func (f *fakeCatalog) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("fetch order %d: %w", id, catalog.ErrNotFound)
	}
	return o, nil
}

type fixture struct {
	updater *Updater
	idx     *memory.Client
	catalog *fakeCatalog
}

// newFixture builds an updater against a memory index that already has an
// active product, taxonomy and menu collection behind aliases.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	idx := memory.New()
	logger := newTestLogger()
	registry := schema.NewRegistry("GBP")

	for _, typ := range []domain.CollectionType{domain.CollectionProduct, domain.CollectionTaxonomy, domain.CollectionMenu} {
		name := fmt.Sprintf("%s-test-site-a", typ)
		col, err := registry.For(typ, name)
		require.NoError(t, err)
		require.NoError(t, idx.CreateCollection(ctx, col))
		require.NoError(t, idx.UpsertAlias(ctx, fmt.Sprintf("%s-test-site", typ), name))
	}

	cat := &fakeCatalog{
		products: map[int64]*domain.Product{},
		terms:    map[int64]*domain.Term{},
		menus:    map[int64]*domain.Menu{},
		orders:   map[int64]*domain.Order{},
	}
	aliases := alias.NewManager(idx, "test-site", logger)
	return &fixture{
		updater: New(cat, idx, aliases, mapper.New("GBP"), logger),
		idx:     idx,
		catalog: cat,
	}
}

func (f *fixture) seedProduct(t *testing.T, id int64, name string) {
	t.Helper()
	doc := domain.Document{"id": fmt.Sprintf("%d", id), "name": name}
	_, err := f.idx.ImportDocuments(context.Background(), "product-test-site-a", []domain.Document{doc}, index.ActionUpsert)
	require.NoError(t, err)
}

func TestProductSaved_UpdatesActiveCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, 1, "Old Name")
	f.catalog.products[1] = &domain.Product{ID: 1, Name: "New Name", Type: domain.ProductTypeSimple, Price: "10.00", UpdatedAt: time.Unix(1700000000, 0)}

	err := f.updater.ProductSaved(ctx, 1)

	require.NoError(t, err)
	doc, ok := f.idx.Document("product-test-site-a", "1")
	require.True(t, ok)
	assert.Equal(t, "New Name", doc["name"])
	assert.Equal(t, map[string]int64{"GBP": 1000}, doc["price"])
}

func TestProductSaved_VariableProductUpdatesVariations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, 2, "Hoodie")
	f.seedProduct(t, 21, "Hoodie - S")
	f.catalog.products[2] = &domain.Product{ID: 2, Name: "Hoodie", Type: domain.ProductTypeVariable, Price: "30.00", VariationIDs: []int64{21}}
	f.catalog.products[21] = &domain.Product{ID: 21, ParentID: 2, Type: domain.ProductTypeVariation, Price: "31.00"}

	err := f.updater.ProductSaved(ctx, 2)

	require.NoError(t, err)
	v, ok := f.idx.Document("product-test-site-a", "21")
	require.True(t, ok)
	assert.Equal(t, "2", v["parentId"])
	assert.Equal(t, map[string]int64{"GBP": 3100}, v["price"])
}

func TestProductSaved_RedeliveryLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, 2, "Hoodie")
	f.seedProduct(t, 21, "Hoodie - S")
	f.catalog.products[2] = &domain.Product{
		ID: 2, Name: "Hoodie", Type: domain.ProductTypeVariable,
		Price: "30.00", VariationIDs: []int64{21},
		UpdatedAt: time.Unix(1700000000, 0),
	}
	f.catalog.products[21] = &domain.Product{
		ID: 21, ParentID: 2, Type: domain.ProductTypeVariation,
		Price: "31.00", UpdatedAt: time.Unix(1700000000, 0),
	}

	require.NoError(t, f.updater.ProductSaved(ctx, 2))
	parentOnce, ok := f.idx.Document("product-test-site-a", "2")
	require.True(t, ok)
	variationOnce, ok := f.idx.Document("product-test-site-a", "21")
	require.True(t, ok)

	// The same event delivered again with unchanged catalog data.
	require.NoError(t, f.updater.ProductSaved(ctx, 2))

	parentTwice, ok := f.idx.Document("product-test-site-a", "2")
	require.True(t, ok)
	variationTwice, ok := f.idx.Document("product-test-site-a", "21")
	require.True(t, ok)
	assert.Equal(t, parentOnce, parentTwice)
	assert.Equal(t, variationOnce, variationTwice)
}

func TestProductSaved_UnknownDocumentRejectionIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// Product exists in the catalog but was never full-synced into the index.
	f.catalog.products[7] = &domain.Product{ID: 7, Name: "Fresh", Type: domain.ProductTypeSimple}

	err := f.updater.ProductSaved(ctx, 7)

	require.NoError(t, err)
	_, ok := f.idx.Document("product-test-site-a", "7")
	assert.False(t, ok, "update action must not create new documents")
}

func TestProductSaved_GoneProductIsSkipped(t *testing.T) {
	f := newFixture(t)

	err := f.updater.ProductSaved(context.Background(), 999)

	assert.NoError(t, err)
}

func TestProductSaved_NoActiveCollectionDropsEvent(t *testing.T) {
	idx := memory.New()
	logger := newTestLogger()
	cat := &fakeCatalog{products: map[int64]*domain.Product{1: {ID: 1}}}
	u := New(cat, idx, alias.NewManager(idx, "test-site", logger), mapper.New("GBP"), logger)

	err := u.ProductSaved(context.Background(), 1)

	assert.NoError(t, err)
	assert.Empty(t, idx.Collections())
}

// failingImportIndex fails transport on every import.
type failingImportIndex struct {
	*memory.Client
}

func (f *failingImportIndex) ImportDocuments(context.Context, string, []domain.Document, index.Action) ([]index.ImportResult, error) {
	return nil, errors.New("index unreachable")
}

func TestProductSaved_TransportFailurePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.catalog.products[1] = &domain.Product{ID: 1, Name: "X", Type: domain.ProductTypeSimple}
	u := New(f.catalog, &failingImportIndex{f.idx}, alias.NewManager(f.idx, "test-site", newTestLogger()), mapper.New("GBP"), newTestLogger())

	err := u.ProductSaved(ctx, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unreachable")
}

func TestOrderStatusChanged_TerminalStatusRefreshesProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, 1, "Tee")
	f.catalog.products[1] = &domain.Product{ID: 1, Name: "Tee", Type: domain.ProductTypeSimple, TotalSales: 6}
	f.catalog.orders[50] = &domain.Order{ID: 50, Status: "completed", ProductIDs: []int64{1}}

	err := f.updater.OrderStatusChanged(ctx, 50, "completed")

	require.NoError(t, err)
	doc, ok := f.idx.Document("product-test-site-a", "1")
	require.True(t, ok)
	assert.Equal(t, int64(6), doc["totalSales"])
}

func TestOrderStatusChanged_NonTerminalStatusIsIgnored(t *testing.T) {
	f := newFixture(t)
	// No order seeded: a catalog fetch would fail, proving it is not made.

	err := f.updater.OrderStatusChanged(context.Background(), 50, "pending")

	assert.NoError(t, err)
}

func TestTermEdited_UpdatesActiveCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := domain.Document{"id": "5", "name": "Old"}
	_, err := f.idx.ImportDocuments(ctx, "taxonomy-test-site-a", []domain.Document{doc}, index.ActionUpsert)
	require.NoError(t, err)
	f.catalog.terms[5] = &domain.Term{ID: 5, Name: "Hoodies", Taxonomy: "product_cat"}

	err = f.updater.TermEdited(ctx, 5)

	require.NoError(t, err)
	updated, ok := f.idx.Document("taxonomy-test-site-a", "5")
	require.True(t, ok)
	assert.Equal(t, "Hoodies", updated["name"])
}

func TestTermEdited_InternalTaxonomyIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.catalog.terms[6] = &domain.Term{ID: 6, Name: "Red", Taxonomy: "pa_color"}

	err := f.updater.TermEdited(ctx, 6)

	require.NoError(t, err)
	_, ok := f.idx.Document("taxonomy-test-site-a", "6")
	assert.False(t, ok)
}

func TestMenuUpdated_UpdatesActiveCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := domain.Document{"id": "9", "name": "Old Menu"}
	_, err := f.idx.ImportDocuments(ctx, "menu-test-site-a", []domain.Document{doc}, index.ActionUpsert)
	require.NoError(t, err)
	f.catalog.menus[9] = &domain.Menu{ID: 9, Name: "Main Menu", UpdatedAt: time.Unix(1700000000, 0)}

	err = f.updater.MenuUpdated(ctx, 9)

	require.NoError(t, err)
	updated, ok := f.idx.Document("menu-test-site-a", "9")
	require.True(t, ok)
	assert.Equal(t, "Main Menu", updated["name"])
}
