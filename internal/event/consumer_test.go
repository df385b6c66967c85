package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/storesync/typesync/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingUpdater struct {
	productIDs []int64
	orders     []struct {
		ID     int64
		Status string
	}
	termIDs []int64
	menuIDs []int64
	err     error
}

func (r *recordingUpdater) ProductSaved(_ context.Context, id int64) error {
	r.productIDs = append(r.productIDs, id)
	return r.err
}

func (r *recordingUpdater) OrderStatusChanged(_ context.Context, id int64, status string) error {
	r.orders = append(r.orders, struct {
		ID     int64
		Status string
	}{id, status})
	return r.err
}

func (r *recordingUpdater) TermEdited(_ context.Context, id int64) error {
	r.termIDs = append(r.termIDs, id)
	return r.err
}

func (r *recordingUpdater) MenuUpdated(_ context.Context, id int64) error {
	r.menuIDs = append(r.menuIDs, id)
	return r.err
}

func newEvent(t *testing.T, eventType string, data any) *pkgkafka.Event {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	return &pkgkafka.Event{
		EventID:   "evt-1",
		EventType: eventType,
		Data:      payload,
	}
}

func TestHandle_ProductSaved(t *testing.T) {
	u := &recordingUpdater{}
	c := NewConsumer(u, newTestLogger())

	err := c.Handle(context.Background(), newEvent(t, TopicProductSaved, ProductSavedData{ID: 42}))

	require.NoError(t, err)
	assert.Equal(t, []int64{42}, u.productIDs)
}

func TestHandle_OrderStatusChanged(t *testing.T) {
	u := &recordingUpdater{}
	c := NewConsumer(u, newTestLogger())

	err := c.Handle(context.Background(), newEvent(t, TopicOrderStatusChanged, OrderStatusData{
		OrderID:   50,
		OldStatus: "pending",
		NewStatus: "completed",
	}))

	require.NoError(t, err)
	require.Len(t, u.orders, 1)
	assert.Equal(t, int64(50), u.orders[0].ID)
	assert.Equal(t, "completed", u.orders[0].Status)
}

func TestHandle_TermEdited(t *testing.T) {
	u := &recordingUpdater{}
	c := NewConsumer(u, newTestLogger())

	err := c.Handle(context.Background(), newEvent(t, TopicTermEdited, TermEditedData{ID: 5, Taxonomy: "product_cat"}))

	require.NoError(t, err)
	assert.Equal(t, []int64{5}, u.termIDs)
}

func TestHandle_MenuUpdated(t *testing.T) {
	u := &recordingUpdater{}
	c := NewConsumer(u, newTestLogger())

	err := c.Handle(context.Background(), newEvent(t, TopicMenuUpdated, MenuUpdatedData{ID: 9}))

	require.NoError(t, err)
	assert.Equal(t, []int64{9}, u.menuIDs)
}

func TestHandle_UnknownEventTypeIsSkipped(t *testing.T) {
	u := &recordingUpdater{}
	c := NewConsumer(u, newTestLogger())

	err := c.Handle(context.Background(), newEvent(t, "storefront.unknown.event", map[string]any{}))

	assert.NoError(t, err)
	assert.Empty(t, u.productIDs)
}

func TestHandle_MalformedPayload(t *testing.T) {
	u := &recordingUpdater{}
	c := NewConsumer(u, newTestLogger())

	err := c.Handle(context.Background(), &pkgkafka.Event{
		EventType: TopicProductSaved,
		Data:      json.RawMessage(`"not-an-object"`),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal product.saved data")
}

func TestHandle_UpdaterErrorPropagates(t *testing.T) {
	u := &recordingUpdater{err: errors.New("index unreachable")}
	c := NewConsumer(u, newTestLogger())

	err := c.Handle(context.Background(), newEvent(t, TopicProductSaved, ProductSavedData{ID: 1}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unreachable")
}
