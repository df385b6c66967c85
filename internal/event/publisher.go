package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storesync/typesync/internal/syncer"
	pkgkafka "github.com/storesync/typesync/pkg/kafka"
)

// TopicSyncCompleted announces a successful full sync and alias flip.
const TopicSyncCompleted = "storefront.sync.completed"

// SyncCompletedData is the payload of a sync.completed event.
type SyncCompletedData struct {
	RunID      string `json:"run_id"`
	Type       string `json:"type"`
	Target     string `json:"target"`
	Previous   string `json:"previous,omitempty"`
	Pages      int    `json:"pages"`
	Imported   int    `json:"imported"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

// Producer is the slice of the Kafka producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Publisher announces completed sync runs on the event bus so downstream
// consumers (storefront cache invalidation, monitoring) can react to alias
// flips without polling the index.
type Publisher struct {
	producer Producer
	logger   *slog.Logger
}

// NewPublisher creates a sync event publisher.
func NewPublisher(producer Producer, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger,
	}
}

// SyncCompleted publishes a sync.completed event for a finished run.
func (p *Publisher) SyncCompleted(ctx context.Context, run *syncer.Run) error {
	data := SyncCompletedData{
		RunID:      run.ID,
		Type:       string(run.Type),
		Target:     run.Target,
		Previous:   run.Previous,
		Pages:      run.Pages,
		Imported:   run.Imported,
		Failed:     run.Failed,
		DurationMS: run.Duration.Milliseconds(),
	}

	evt, err := pkgkafka.NewEvent(TopicSyncCompleted, string(run.Type), "sync_run", "typesync", data)
	if err != nil {
		return fmt.Errorf("build sync.completed event: %w", err)
	}

	if err := p.producer.Publish(ctx, TopicSyncCompleted, evt); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "published sync.completed event",
		slog.String("sync_id", run.ID),
		slog.String("type", string(run.Type)),
		slog.String("target", run.Target),
	)
	return nil
}
