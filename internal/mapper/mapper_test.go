package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/typesync/internal/domain"
)

func TestPriceToCents(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"garbage", "invalid", 0},
		{"nan", "NaN", 0},
		{"infinity", "Inf", 0},
		{"negative", "-5.00", 0},
		{"zero", "0", 0},
		{"integer", "12", 1200},
		{"decimal", "12.50", 1250},
		{"sub-cent rounds", "9.999", 1000},
		{"large", "199999.99", 19999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceToCents(tt.raw))
		})
	}
}

func TestIsInternalTaxonomy(t *testing.T) {
	assert.True(t, IsInternalTaxonomy("pa_color"))
	assert.True(t, IsInternalTaxonomy("elementor_library_type"))
	assert.True(t, IsInternalTaxonomy("nav_menu"))
	assert.True(t, IsInternalTaxonomy("wpcode_type"))
	assert.False(t, IsInternalTaxonomy("product_cat"))
	assert.False(t, IsInternalTaxonomy("product_tag"))
	assert.False(t, IsInternalTaxonomy("brand"))
}

func testProduct() *domain.Product {
	return &domain.Product{
		ID:           1001,
		Name:         "Trail Jacket",
		Slug:         "trail-jacket",
		Permalink:    "https://shop.example.com/product/trail-jacket",
		SKU:          "TJ-001",
		Description:  "A jacket",
		Type:         domain.ProductTypeSimple,
		Price:        "12.00",
		RegularPrice: "15.00",
		SalePrice:    "12.00",
		OnSale:       true,
		StockStatus:  "instock",
		Terms: []domain.ProductTerm{
			{Name: "Jackets", Slug: "jackets", Taxonomy: "product_cat", URL: "https://shop.example.com/cat/jackets"},
			{Name: "Red", Slug: "red", Taxonomy: "pa_color"},
		},
		CreatedAt: time.Unix(1700000000, 0),
		UpdatedAt: time.Unix(1700000100, 0),
	}
}

func TestProductDocument(t *testing.T) {
	m := New("GBP")

	doc := m.ProductDocument(testProduct())

	assert.Equal(t, "1001", doc["id"])
	assert.Equal(t, "1001", doc["productId"])
	assert.Equal(t, "Trail Jacket", doc["name"])
	assert.Equal(t, map[string]int64{"GBP": 1200}, doc["price"])
	assert.Equal(t, map[string]int64{"GBP": 1500}, doc["regularPrice"])
	assert.Equal(t, int64(1700000100), doc["updatedAt"])
	assert.Equal(t, domain.ProductTypeSimple, doc["productType"])
	assert.NotContains(t, doc, "parentId")
	assert.NotContains(t, doc, "publishedAt")
}

func TestProductDocument_FiltersInternalTaxonomies(t *testing.T) {
	m := New("GBP")

	doc := m.ProductDocument(testProduct())

	taxonomies, ok := doc["taxonomies"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, taxonomies, 1)
	assert.Equal(t, "Jackets", taxonomies[0]["name"])
	assert.Equal(t, "product_cat", taxonomies[0]["type"])
	assert.Equal(t, "Jackets|product_cat", taxonomies[0]["nameAndType"])
}

func TestProductDocument_EmptyPriceBecomesZero(t *testing.T) {
	m := New("USD")
	p := testProduct()
	p.Price = ""
	p.SalePrice = "not-a-number"

	doc := m.ProductDocument(p)

	assert.Equal(t, map[string]int64{"USD": 0}, doc["price"])
	assert.Equal(t, map[string]int64{"USD": 0}, doc["salePrice"])
}

func TestVariationDocument(t *testing.T) {
	m := New("GBP")
	parent := testProduct()
	parent.Type = domain.ProductTypeVariable

	variation := &domain.Product{
		ID:         2001,
		ParentID:   1001,
		Name:       "Trail Jacket - Small",
		Type:       domain.ProductTypeVariation,
		Price:      "11.00",
		Attributes: map[string]string{"size": "small"},
		UpdatedAt:  time.Unix(1700000200, 0),
	}

	doc := m.VariationDocument(parent, variation)

	assert.Equal(t, "2001", doc["id"])
	assert.Equal(t, "1001", doc["parentId"])
	assert.Equal(t, domain.ProductTypeVariation, doc["productType"])
	assert.Equal(t, map[string]string{"size": "small"}, doc["attributes"])
	assert.Equal(t, map[string]int64{"GBP": 1100}, doc["price"])

	// Terms come from the parent when the variation has none.
	taxonomies, ok := doc["taxonomies"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, taxonomies, 1)
	assert.Equal(t, "Jackets", taxonomies[0]["name"])
}

func TestVariationDocument_InheritsParentNameWhenEmpty(t *testing.T) {
	m := New("GBP")
	parent := testProduct()
	variation := &domain.Product{ID: 2002, ParentID: 1001, Price: "10"}

	doc := m.VariationDocument(parent, variation)

	assert.Equal(t, parent.Name, doc["name"])
	assert.Equal(t, parent.Permalink, doc["permalink"])
}

func TestTermDocument(t *testing.T) {
	m := New("GBP")
	term := &domain.Term{
		ID:                 55,
		Slug:               "jackets",
		Name:               "Jackets",
		Taxonomy:           "product_cat",
		Permalink:          "https://shop.example.com/cat/jackets",
		ParentName:         "Clothing",
		LatestPostModified: time.Unix(1700000300, 0),
	}

	doc := m.TermDocument(term)

	assert.Equal(t, "55", doc["id"])
	assert.Equal(t, "product_cat", doc["type"])
	assert.Equal(t, int64(1700000300), doc["updatedAt"])
	assert.Equal(t, "Clothing", doc["parentTerm"])
	assert.NotContains(t, doc, "bannerText")
}

func TestPageDocument(t *testing.T) {
	m := New("GBP")
	page := &domain.Page{
		ID:        7,
		Slug:      "about",
		Title:     "About Us",
		Content:   "hello",
		Type:      "page",
		CreatedAt: time.Unix(1700000000, 0),
		UpdatedAt: time.Unix(1700000400, 0),
	}

	doc := m.PageDocument(page)

	assert.Equal(t, "7", doc["id"])
	assert.Equal(t, "About Us", doc["name"])
	assert.Equal(t, int64(1700000400), doc["updatedAt"])
	assert.NotContains(t, doc, "seoFullHead")
}

func TestMenuDocument_NestedItems(t *testing.T) {
	m := New("GBP")
	menu := &domain.Menu{
		ID:   3,
		Name: "Main Menu",
		Slug: "main-menu",
		Items: []domain.MenuItem{
			{Title: "Shop", URL: "/shop", Order: 1, Children: []domain.MenuItem{
				{Title: "Jackets", URL: "/shop/jackets", Order: 1},
			}},
			{Title: "About", URL: "/about", Order: 2},
		},
		UpdatedAt: time.Unix(1700000500, 0),
	}

	doc := m.MenuDocument(menu)

	assert.Equal(t, "3", doc["id"])
	items, ok := doc["items"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	children, ok := items[0]["children"].([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jackets", children[0]["title"])
	assert.NotContains(t, items[1], "children")
}

func TestSiteInfoDocument(t *testing.T) {
	m := New("GBP")
	setting := &domain.SiteSetting{
		Name:      "site_title",
		Value:     "Example Shop",
		UpdatedAt: time.Unix(1700000600, 0),
	}

	doc := m.SiteInfoDocument(setting)

	assert.Equal(t, "site_title", doc["id"])
	assert.Equal(t, "Example Shop", doc["value"])
}

func TestTransforms_RunInRegistrationOrder(t *testing.T) {
	addEUR := func(doc domain.Document, entity any) domain.Document {
		p, ok := entity.(*domain.Product)
		require.True(t, ok)
		prices, ok := doc["price"].(map[string]int64)
		require.True(t, ok)
		prices["EUR"] = PriceToCents(p.Price) * 2
		return doc
	}
	stamp := func(doc domain.Document, entity any) domain.Document {
		doc["transformed"] = true
		return doc
	}

	m := New("GBP", addEUR, stamp)
	doc := m.ProductDocument(&domain.Product{ID: 1, Price: "10.00"})

	prices := doc["price"].(map[string]int64)
	assert.Equal(t, int64(1000), prices["GBP"])
	assert.Equal(t, int64(2000), prices["EUR"])
	assert.Equal(t, true, doc["transformed"])
}

func TestTransforms_ApplyToVariations(t *testing.T) {
	stamp := func(doc domain.Document, entity any) domain.Document {
		doc["transformed"] = true
		return doc
	}
	m := New("GBP", stamp)

	parent := &domain.Product{ID: 2, Name: "Hoodie", Type: domain.ProductTypeVariable}
	doc := m.VariationDocument(parent, &domain.Product{ID: 21, Price: "30.00"})

	assert.Equal(t, true, doc["transformed"])
	assert.Equal(t, "2", doc["parentId"])
}
