// Package importer pushes document batches into the index. It chunks large
// document sets, keeps per-document results in input order, and records
// import metrics. A rejected document never aborts the batch; the caller
// decides what to do with the failures.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/index"
)

var (
	documentsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typesync_documents_imported_total",
		Help: "Documents imported into the index, by collection and outcome.",
	}, []string{"collection", "action", "status"})

	importBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typesync_import_batches_total",
		Help: "Import batches sent to the index.",
	}, []string{"collection", "action"})
)

// DefaultBatchSize bounds how many documents go to the index per request.
const DefaultBatchSize = 100

// Importer imports documents in bounded batches.
type Importer struct {
	idx       index.Client
	batchSize int
	logger    *slog.Logger
}

// New creates an importer. batchSize values below 1 fall back to
// DefaultBatchSize.
func New(idx index.Client, batchSize int, logger *slog.Logger) *Importer {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		idx:       idx,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Import sends docs to the collection in chunks of the configured batch
// size. The returned results match docs in length and order. A transport
// failure on any chunk aborts the whole import with an error; per-document
// rejections are reported in the results and logged.
func (im *Importer) Import(ctx context.Context, collection string, docs []domain.Document, action index.Action) ([]index.ImportResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	results := make([]index.ImportResult, 0, len(docs))
	for start := 0; start < len(docs); start += im.batchSize {
		end := start + im.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		chunk := docs[start:end]

		importBatches.WithLabelValues(collection, string(action)).Inc()
		chunkResults, err := im.idx.ImportDocuments(ctx, collection, chunk, action)
		if err != nil {
			return nil, fmt.Errorf("import batch %d-%d into %s: %w", start, end, collection, err)
		}
		if len(chunkResults) != len(chunk) {
			return nil, fmt.Errorf("import into %s: %d results for %d documents", collection, len(chunkResults), len(chunk))
		}

		for _, r := range chunkResults {
			status := "success"
			if !r.Success {
				status = "failure"
				im.logger.Warn("document import rejected",
					slog.String("collection", collection),
					slog.String("document_id", r.Document.ID()),
					slog.String("error", r.Error),
				)
			}
			documentsImported.WithLabelValues(collection, string(action), status).Inc()
		}
		results = append(results, chunkResults...)
	}
	return results, nil
}

// Failed filters results down to the rejected documents.
func Failed(results []index.ImportResult) []index.ImportResult {
	var failed []index.ImportResult
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
