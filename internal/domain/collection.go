package domain

import "fmt"

// CollectionType identifies which schema and naming convention applies to a
// synced collection.
type CollectionType string

const (
	CollectionProduct  CollectionType = "product"
	CollectionTaxonomy CollectionType = "taxonomy"
	CollectionPage     CollectionType = "page"
	CollectionMenu     CollectionType = "menu"
	CollectionSiteInfo CollectionType = "site_info"
)

// AllCollectionTypes returns every collection type handled by the sync engine.
func AllCollectionTypes() []CollectionType {
	return []CollectionType{
		CollectionProduct,
		CollectionTaxonomy,
		CollectionPage,
		CollectionMenu,
		CollectionSiteInfo,
	}
}

// ParseCollectionType validates a collection type string.
func ParseCollectionType(s string) (CollectionType, error) {
	switch CollectionType(s) {
	case CollectionProduct, CollectionTaxonomy, CollectionPage, CollectionMenu, CollectionSiteInfo:
		return CollectionType(s), nil
	}
	return "", fmt.Errorf("unknown collection type %q", s)
}

// Document is one indexed record in the target schema: a flat mapping of
// field name to value, keyed by a stable "id" field.
type Document map[string]any

// ID returns the document's stable identifier, or "" if unset.
func (d Document) ID() string {
	if id, ok := d["id"].(string); ok {
		return id
	}
	return ""
}
