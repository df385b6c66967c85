// Package schema declares the static field layout of every collection type.
// Schemas are hand-declared, not inferred from documents, so the index
// always carries the facet/sort/infix flags the storefront depends on.
package schema

import (
	"fmt"

	"github.com/storesync/typesync/internal/domain"
)

// Field is one field definition in a collection schema.
type Field struct {
	Name     string
	Type     string
	Facet    bool
	Sort     bool
	Infix    bool
	Optional bool
}

// Collection is the full schema for one physical collection.
type Collection struct {
	Name                string
	Fields              []Field
	DefaultSortingField string
	EnableNestedFields  bool
}

// Registry produces the schema for each collection type. The currency list
// controls which per-currency price subfields are declared; multi-currency
// stores extend it through configuration.
type Registry struct {
	currencies []string
}

// NewRegistry creates a schema registry for the given currencies. At least
// the store base currency must be present.
func NewRegistry(currencies ...string) *Registry {
	return &Registry{currencies: currencies}
}

// Currencies returns the currencies the registry declares price fields for.
func (r *Registry) Currencies() []string {
	return r.currencies
}

// For returns the schema for the given collection type, with the given
// physical collection name.
func (r *Registry) For(t domain.CollectionType, name string) (Collection, error) {
	switch t {
	case domain.CollectionProduct:
		return r.product(name), nil
	case domain.CollectionTaxonomy:
		return r.taxonomy(name), nil
	case domain.CollectionPage:
		return r.page(name), nil
	case domain.CollectionMenu:
		return r.menu(name), nil
	case domain.CollectionSiteInfo:
		return r.siteInfo(name), nil
	}
	return Collection{}, fmt.Errorf("no schema for collection type %q", t)
}

func (r *Registry) product(name string) Collection {
	fields := []Field{
		{Name: "id", Type: "string", Facet: true},
		{Name: "productId", Type: "string", Facet: true},
		{Name: "parentId", Type: "string", Facet: true, Optional: true},
		{Name: "name", Type: "string", Facet: true, Sort: true, Infix: true},
		{Name: "description", Type: "string"},
		{Name: "permalink", Type: "string"},
		{Name: "slug", Type: "string", Facet: true},
		{Name: "sku", Type: "string"},
		{Name: "price", Type: "object", Facet: true},
		{Name: "regularPrice", Type: "object"},
		{Name: "salePrice", Type: "object"},
	}

	// Nested per-currency subfields so the storefront can filter and sort
	// on a specific currency.
	for _, cur := range r.currencies {
		fields = append(fields,
			Field{Name: "price." + cur, Type: "int64", Optional: true, Sort: true},
			Field{Name: "regularPrice." + cur, Type: "int64", Optional: true},
			Field{Name: "salePrice." + cur, Type: "int64", Optional: true},
		)
	}

	fields = append(fields,
		Field{Name: "onSale", Type: "bool", Facet: true},
		Field{Name: "thumbnail", Type: "object", Optional: true},
		Field{Name: "galleryImages", Type: "object[]", Optional: true},
		Field{Name: "attributes", Type: "object", Optional: true},
		Field{Name: "variations", Type: "object[]", Optional: true},
		Field{Name: "stockQuantity", Type: "int64"},
		Field{Name: "stockStatus", Type: "string", Sort: true},
		Field{Name: "updatedAt", Type: "int64"},
		Field{Name: "createdAt", Type: "int64"},
		Field{Name: "publishedAt", Type: "int64", Optional: true},
		Field{Name: "isFeatured", Type: "bool", Facet: true},
		Field{Name: "totalSales", Type: "int64"},
		Field{Name: "productType", Type: "string", Facet: true},
		Field{Name: "taxonomies", Type: "object[]", Facet: true, Optional: true},
		Field{Name: "taxonomies.name", Type: "string[]", Facet: true, Optional: true},
		Field{Name: "taxonomies.url", Type: "string[]", Optional: true},
		Field{Name: "taxonomies.type", Type: "string[]", Facet: true, Optional: true},
		Field{Name: "taxonomies.slug", Type: "string[]", Facet: true, Optional: true},
		Field{Name: "taxonomies.nameAndType", Type: "string[]", Facet: true, Optional: true},
	)

	return Collection{
		Name:                name,
		Fields:              fields,
		DefaultSortingField: "updatedAt",
		EnableNestedFields:  true,
	}
}

func (r *Registry) taxonomy(name string) Collection {
	return Collection{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: "string", Facet: true},
			{Name: "slug", Type: "string", Facet: true},
			{Name: "name", Type: "string", Facet: true, Infix: true, Sort: true},
			{Name: "description", Type: "string"},
			{Name: "type", Type: "string", Facet: true, Infix: true},
			{Name: "permalink", Type: "string"},
			{Name: "updatedAt", Type: "int64"},
			{Name: "bannerThumbnail", Type: "string", Optional: true},
			{Name: "bannerText", Type: "string", Optional: true},
			{Name: "parentTerm", Type: "string", Optional: true},
		},
		DefaultSortingField: "updatedAt",
		EnableNestedFields:  true,
	}
}

func (r *Registry) page(name string) Collection {
	return Collection{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: "string", Facet: true},
			{Name: "slug", Type: "string", Facet: true},
			{Name: "name", Type: "string", Sort: true, Infix: true},
			{Name: "content", Type: "string"},
			{Name: "permalink", Type: "string"},
			{Name: "type", Type: "string", Facet: true},
			{Name: "seoFullHead", Type: "string", Optional: true},
			{Name: "updatedAt", Type: "int64"},
			{Name: "createdAt", Type: "int64"},
			{Name: "publishedAt", Type: "int64", Optional: true},
		},
		DefaultSortingField: "updatedAt",
		EnableNestedFields:  true,
	}
}

func (r *Registry) menu(name string) Collection {
	return Collection{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: "string", Facet: true},
			{Name: "name", Type: "string", Facet: true},
			{Name: "slug", Type: "string", Facet: true},
			{Name: "items", Type: "object[]", Optional: true},
			{Name: "updatedAt", Type: "int64"},
		},
		DefaultSortingField: "updatedAt",
		EnableNestedFields:  true,
	}
}

func (r *Registry) siteInfo(name string) Collection {
	return Collection{
		Name: name,
		Fields: []Field{
			{Name: "id", Type: "string", Facet: true},
			{Name: "name", Type: "string", Facet: true},
			{Name: "value", Type: "string"},
			{Name: "updatedAt", Type: "int64"},
		},
		DefaultSortingField: "updatedAt",
	}
}
