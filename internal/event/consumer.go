package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgkafka "github.com/storesync/typesync/pkg/kafka"
)

// Kafka topic constants for the catalog change events the updater consumes.
const (
	TopicProductSaved       = "storefront.product.saved"
	TopicOrderStatusChanged = "storefront.order.status_changed"
	TopicTermEdited         = "storefront.term.edited"
	TopicMenuUpdated        = "storefront.menu.updated"
)

// Topics returns every topic the consumer subscribes to.
func Topics() []string {
	return []string{
		TopicProductSaved,
		TopicOrderStatusChanged,
		TopicTermEdited,
		TopicMenuUpdated,
	}
}

// ProductSavedData is the payload of a product.saved event.
type ProductSavedData struct {
	ID int64 `json:"id"`
}

// OrderStatusData is the payload of an order.status_changed event.
type OrderStatusData struct {
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// TermEditedData is the payload of a term.edited event.
type TermEditedData struct {
	ID       int64  `json:"id"`
	Taxonomy string `json:"taxonomy"`
}

// MenuUpdatedData is the payload of a menu.updated event.
type MenuUpdatedData struct {
	ID int64 `json:"id"`
}

// Updater is the slice of the incremental updater the consumer drives.
type Updater interface {
	ProductSaved(ctx context.Context, productID int64) error
	OrderStatusChanged(ctx context.Context, orderID int64, status string) error
	TermEdited(ctx context.Context, termID int64) error
	MenuUpdated(ctx context.Context, menuID int64) error
}

// Consumer routes catalog change events to the incremental updater.
type Consumer struct {
	updater Updater
	logger  *slog.Logger
}

// NewConsumer creates an event consumer.
func NewConsumer(updater Updater, logger *slog.Logger) *Consumer {
	return &Consumer{
		updater: updater,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductSaved:
		return c.handleProductSaved(ctx, event)
	case TopicOrderStatusChanged:
		return c.handleOrderStatusChanged(ctx, event)
	case TopicTermEdited:
		return c.handleTermEdited(ctx, event)
	case TopicMenuUpdated:
		return c.handleMenuUpdated(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleProductSaved(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductSavedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.saved data: %w", err)
	}

	if err := c.updater.ProductSaved(ctx, data.ID); err != nil {
		return fmt.Errorf("update product from saved event: %w", err)
	}

	c.logger.InfoContext(ctx, "updated product from saved event",
		slog.Int64("product_id", data.ID),
	)
	return nil
}

func (c *Consumer) handleOrderStatusChanged(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderStatusData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order.status_changed data: %w", err)
	}

	if err := c.updater.OrderStatusChanged(ctx, data.OrderID, data.NewStatus); err != nil {
		return fmt.Errorf("update products from order event: %w", err)
	}

	c.logger.InfoContext(ctx, "processed order status change",
		slog.Int64("order_id", data.OrderID),
		slog.String("new_status", data.NewStatus),
	)
	return nil
}

func (c *Consumer) handleTermEdited(ctx context.Context, event *pkgkafka.Event) error {
	var data TermEditedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal term.edited data: %w", err)
	}

	if err := c.updater.TermEdited(ctx, data.ID); err != nil {
		return fmt.Errorf("update term from edited event: %w", err)
	}

	c.logger.InfoContext(ctx, "updated term from edited event",
		slog.Int64("term_id", data.ID),
	)
	return nil
}

func (c *Consumer) handleMenuUpdated(ctx context.Context, event *pkgkafka.Event) error {
	var data MenuUpdatedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal menu.updated data: %w", err)
	}

	if err := c.updater.MenuUpdated(ctx, data.ID); err != nil {
		return fmt.Errorf("update menu from updated event: %w", err)
	}

	c.logger.InfoContext(ctx, "updated menu from updated event",
		slog.Int64("menu_id", data.ID),
	)
	return nil
}
