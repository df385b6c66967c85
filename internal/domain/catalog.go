package domain

import "time"

// Product types the sync engine cares about. Anything else (bundle,
// grouped, ...) is treated like a simple product.
const (
	ProductTypeSimple    = "simple"
	ProductTypeVariable  = "variable"
	ProductTypeVariation = "variation"
)

// Image carries attachment metadata for thumbnails and gallery entries.
type Image struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	AltText string `json:"alt_text"`
	Src     string `json:"src"`
}

// ProductTerm is one taxonomy term attached to a product.
type ProductTerm struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
	URL      string `json:"url"`
	Parent   string `json:"parent"`
}

// Product is a catalog product or product variation as served by the
// commerce platform API. Price fields are raw decimal strings; the platform
// leaves them empty or garbage for products without prices, so all numeric
// interpretation happens in the mapper.
type Product struct {
	ID               int64             `json:"id"`
	ParentID         int64             `json:"parent_id"`
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	Permalink        string            `json:"permalink"`
	SKU              string            `json:"sku"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description"`
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Price            string            `json:"price"`
	RegularPrice     string            `json:"regular_price"`
	SalePrice        string            `json:"sale_price"`
	OnSale           bool              `json:"on_sale"`
	StockQuantity    int64             `json:"stock_quantity"`
	StockStatus      string            `json:"stock_status"`
	IsFeatured       bool              `json:"is_featured"`
	TotalSales       int64             `json:"total_sales"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	Thumbnail        *Image            `json:"thumbnail,omitempty"`
	GalleryImages    []Image           `json:"gallery_images,omitempty"`
	Terms            []ProductTerm     `json:"terms,omitempty"`
	VariationIDs     []int64           `json:"variation_ids,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	PublishedAt      time.Time         `json:"published_at"`
}

// IsVariable reports whether the product has child variations.
func (p *Product) IsVariable() bool {
	return p.Type == ProductTypeVariable
}

// Term is a taxonomy term. LatestPostModified is the most recent
// modification time across all posts currently tagged with the term,
// resolved by the catalog API.
type Term struct {
	ID                 int64     `json:"id"`
	Slug               string    `json:"slug"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Taxonomy           string    `json:"taxonomy"`
	Permalink          string    `json:"permalink"`
	ParentName         string    `json:"parent_name"`
	BannerThumbnail    string    `json:"banner_thumbnail"`
	BannerText         string    `json:"banner_text"`
	Thumbnail          *Image    `json:"thumbnail,omitempty"`
	LatestPostModified time.Time `json:"latest_post_modified"`
}

// Page is a static page or post.
type Page struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Permalink   string    `json:"permalink"`
	Type        string    `json:"type"`
	Thumbnail   *Image    `json:"thumbnail,omitempty"`
	SEOFullHead string    `json:"seo_full_head"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PublishedAt time.Time `json:"published_at"`
}

// MenuItem is one entry in a navigation menu, possibly nested.
type MenuItem struct {
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	Order    int        `json:"order"`
	Children []MenuItem `json:"children,omitempty"`
}

// Menu is a navigation menu.
type Menu struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Items     []MenuItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SiteSetting is one key-value entry of the site configuration store.
type SiteSetting struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order is the slice of an order the updater needs: which products were
// affected and what status the order moved to.
type Order struct {
	ID         int64   `json:"id"`
	Status     string  `json:"status"`
	ProductIDs []int64 `json:"product_ids"`
}

// terminalOrderStatuses are the order states that affect indexed product
// data (stock, total sales) and therefore trigger a re-index.
var terminalOrderStatuses = map[string]struct{}{
	"completed":  {},
	"processing": {},
	"cancelled":  {},
	"refunded":   {},
}

// IsTerminalOrderStatus reports whether an order status transition should
// trigger a product re-index.
func IsTerminalOrderStatus(status string) bool {
	_, ok := terminalOrderStatuses[status]
	return ok
}
