// Package mapper converts catalog records into index documents. All price
// handling lives here: the catalog serves prices as raw decimal strings and
// the index stores them as integer cents, so every numeric edge case (empty,
// garbage, negative) is normalized in one place.
package mapper

import (
	"math"
	"strconv"
	"strings"

	"github.com/storesync/typesync/internal/domain"
)

// internalTaxonomyPrefixes marks platform-internal taxonomies that must not
// leak into the storefront index.
var internalTaxonomyPrefixes = []string{
	"ef_",
	"elementor",
	"pa_",
	"nav_",
	"ml-",
	"ufaq",
	"translation_priority",
	"wpcode_",
}

// IsInternalTaxonomy reports whether a taxonomy name belongs to the
// platform rather than the merchant's catalog.
func IsInternalTaxonomy(taxonomy string) bool {
	for _, prefix := range internalTaxonomyPrefixes {
		if strings.HasPrefix(taxonomy, prefix) {
			return true
		}
	}
	return false
}

// PriceToCents converts a raw decimal price string into integer cents.
// Empty, unparseable, non-finite and negative values all map to 0 so the
// index never carries NaN or negative prices.
func PriceToCents(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(math.Round(f * 100))
}

// Transform adjusts a mapped document before it is indexed. The entity is
// the catalog record the document was built from. Transforms run in
// registration order, each receiving the previous one's output.
type Transform func(doc domain.Document, entity any) domain.Document

// Mapper builds index documents for one store. The base currency keys the
// per-currency price objects.
type Mapper struct {
	baseCurrency string
	transforms   []Transform
}

// New creates a mapper using the given base currency. Optional transforms
// extend the mapped documents (extra currencies, storefront extras).
func New(baseCurrency string, transforms ...Transform) *Mapper {
	return &Mapper{baseCurrency: baseCurrency, transforms: transforms}
}

func (m *Mapper) apply(doc domain.Document, entity any) domain.Document {
	for _, t := range m.transforms {
		doc = t(doc, entity)
	}
	return doc
}

func (m *Mapper) priceObject(raw string) map[string]int64 {
	return map[string]int64{m.baseCurrency: PriceToCents(raw)}
}

// ProductDocument maps a top-level product (simple or variable) into an
// index document.
func (m *Mapper) ProductDocument(p *domain.Product) domain.Document {
	return m.apply(m.productFields(p), p)
}

func (m *Mapper) productFields(p *domain.Product) domain.Document {
	id := strconv.FormatInt(p.ID, 10)
	doc := domain.Document{
		"id":            id,
		"productId":     id,
		"name":          p.Name,
		"description":   p.Description,
		"permalink":     p.Permalink,
		"slug":          p.Slug,
		"sku":           p.SKU,
		"price":         m.priceObject(p.Price),
		"regularPrice":  m.priceObject(p.RegularPrice),
		"salePrice":     m.priceObject(p.SalePrice),
		"onSale":        p.OnSale,
		"stockQuantity": p.StockQuantity,
		"stockStatus":   p.StockStatus,
		"updatedAt":     p.UpdatedAt.Unix(),
		"createdAt":     p.CreatedAt.Unix(),
		"isFeatured":    p.IsFeatured,
		"totalSales":    p.TotalSales,
		"productType":   p.Type,
		"taxonomies":    m.taxonomies(p.Terms),
	}
	if !p.PublishedAt.IsZero() {
		doc["publishedAt"] = p.PublishedAt.Unix()
	}
	if p.Thumbnail != nil {
		doc["thumbnail"] = imageObject(p.Thumbnail)
	}
	if len(p.GalleryImages) > 0 {
		gallery := make([]map[string]any, 0, len(p.GalleryImages))
		for i := range p.GalleryImages {
			gallery = append(gallery, imageObject(&p.GalleryImages[i]))
		}
		doc["galleryImages"] = gallery
	}
	return doc
}

// VariationDocument maps a product variation into an index document stored
// in the same collection as its parent. The document keeps its own id and
// carries parentId plus the selected attributes so the storefront can match
// variations during search.
func (m *Mapper) VariationDocument(parent, v *domain.Product) domain.Document {
	doc := m.productFields(v)
	doc["parentId"] = strconv.FormatInt(parent.ID, 10)
	doc["productType"] = domain.ProductTypeVariation
	if v.Name == "" {
		doc["name"] = parent.Name
	}
	if v.Permalink == "" {
		doc["permalink"] = parent.Permalink
	}
	if len(v.Attributes) > 0 {
		doc["attributes"] = v.Attributes
	}
	// Variations inherit the parent's taxonomy terms.
	if len(v.Terms) == 0 {
		doc["taxonomies"] = m.taxonomies(parent.Terms)
	}
	return m.apply(doc, v)
}

// VariationSummary is the compact variation entry embedded in a variable
// parent's document.
func (m *Mapper) VariationSummary(v *domain.Product) map[string]any {
	summary := map[string]any{
		"variationId": strconv.FormatInt(v.ID, 10),
		"price":       m.priceObject(v.Price),
		"onSale":      v.OnSale,
		"stockStatus": v.StockStatus,
	}
	if len(v.Attributes) > 0 {
		summary["attributes"] = v.Attributes
	}
	return summary
}

// TermDocument maps a taxonomy term into an index document.
func (m *Mapper) TermDocument(t *domain.Term) domain.Document {
	doc := domain.Document{
		"id":          strconv.FormatInt(t.ID, 10),
		"slug":        t.Slug,
		"name":        t.Name,
		"description": t.Description,
		"type":        t.Taxonomy,
		"permalink":   t.Permalink,
		"updatedAt":   t.LatestPostModified.Unix(),
	}
	if t.BannerThumbnail != "" {
		doc["bannerThumbnail"] = t.BannerThumbnail
	}
	if t.BannerText != "" {
		doc["bannerText"] = t.BannerText
	}
	if t.ParentName != "" {
		doc["parentTerm"] = t.ParentName
	}
	return m.apply(doc, t)
}

// PageDocument maps a page or post into an index document.
func (m *Mapper) PageDocument(p *domain.Page) domain.Document {
	doc := domain.Document{
		"id":        strconv.FormatInt(p.ID, 10),
		"slug":      p.Slug,
		"name":      p.Title,
		"content":   p.Content,
		"permalink": p.Permalink,
		"type":      p.Type,
		"updatedAt": p.UpdatedAt.Unix(),
		"createdAt": p.CreatedAt.Unix(),
	}
	if p.SEOFullHead != "" {
		doc["seoFullHead"] = p.SEOFullHead
	}
	if !p.PublishedAt.IsZero() {
		doc["publishedAt"] = p.PublishedAt.Unix()
	}
	return m.apply(doc, p)
}

// MenuDocument maps a navigation menu into an index document.
func (m *Mapper) MenuDocument(menu *domain.Menu) domain.Document {
	items := make([]map[string]any, 0, len(menu.Items))
	for i := range menu.Items {
		items = append(items, menuItemObject(&menu.Items[i]))
	}
	doc := domain.Document{
		"id":        strconv.FormatInt(menu.ID, 10),
		"name":      menu.Name,
		"slug":      menu.Slug,
		"items":     items,
		"updatedAt": menu.UpdatedAt.Unix(),
	}
	return m.apply(doc, menu)
}

// SiteInfoDocument maps one site setting into an index document keyed by
// the setting name.
func (m *Mapper) SiteInfoDocument(s *domain.SiteSetting) domain.Document {
	doc := domain.Document{
		"id":        s.Name,
		"name":      s.Name,
		"value":     s.Value,
		"updatedAt": s.UpdatedAt.Unix(),
	}
	return m.apply(doc, s)
}

// taxonomies filters out platform-internal taxonomies and shapes the rest
// for faceting.
func (m *Mapper) taxonomies(terms []domain.ProductTerm) []map[string]any {
	out := make([]map[string]any, 0, len(terms))
	for _, term := range terms {
		if IsInternalTaxonomy(term.Taxonomy) {
			continue
		}
		entry := map[string]any{
			"name":        term.Name,
			"url":         term.URL,
			"type":        term.Taxonomy,
			"slug":        term.Slug,
			"nameAndType": term.Name + "|" + term.Taxonomy,
		}
		if term.Parent != "" {
			entry["parentTerm"] = term.Parent
		}
		out = append(out, entry)
	}
	return out
}

func imageObject(img *domain.Image) map[string]any {
	return map[string]any{
		"id":      strconv.FormatInt(img.ID, 10),
		"title":   img.Title,
		"altText": img.AltText,
		"src":     img.Src,
	}
}

func menuItemObject(item *domain.MenuItem) map[string]any {
	obj := map[string]any{
		"title": item.Title,
		"url":   item.URL,
		"order": item.Order,
	}
	if len(item.Children) > 0 {
		children := make([]map[string]any, 0, len(item.Children))
		for i := range item.Children {
			children = append(children, menuItemObject(&item.Children[i]))
		}
		obj["children"] = children
	}
	return obj
}
