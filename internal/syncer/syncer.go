// Package syncer runs full rebuilds of the search collections. A run builds
// the inactive blue-green slot from the catalog, promotes it by flipping the
// alias, then removes the stale slot. The storefront keeps reading the old
// collection until the flip, so an aborted run leaves it untouched.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/storesync/typesync/internal/alias"
	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/importer"
	"github.com/storesync/typesync/internal/index"
	"github.com/storesync/typesync/internal/mapper"
	"github.com/storesync/typesync/internal/schema"
)

var (
	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typesync_sync_runs_total",
		Help: "Full sync runs, by collection type and outcome.",
	}, []string{"type", "outcome"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "typesync_sync_duration_seconds",
		Help:    "Duration of full sync runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"type"})
)

// Catalog is the slice of the catalog client a full sync needs.
type Catalog interface {
	ListProducts(ctx context.Context, page, perPage int) ([]domain.Product, int, error)
	GetVariation(ctx context.Context, parentID, id int64) (*domain.Product, error)
	ListTerms(ctx context.Context, page, perPage int) ([]domain.Term, int, error)
	ListPages(ctx context.Context, page, perPage int) ([]domain.Page, int, error)
	ListMenus(ctx context.Context, page, perPage int) ([]domain.Menu, int, error)
	GetSiteSettings(ctx context.Context) ([]domain.SiteSetting, error)
}

// Run is the report of one full sync run.
type Run struct {
	ID        string
	Type      domain.CollectionType
	Target    string
	Previous  string
	Pages     int
	Imported  int
	Failed    int
	Deleted   []string
	Errors    []string
	StartedAt time.Time
	Duration  time.Duration
}

// Notifier is told about successful runs after the alias flip. A notification
// failure is logged, never fails the run.
type Notifier interface {
	SyncCompleted(ctx context.Context, run *Run) error
}

// Syncer executes full sync runs.
type Syncer struct {
	catalog  Catalog
	idx      index.Client
	aliases  *alias.Manager
	imp      *importer.Importer
	mapper   *mapper.Mapper
	schemas  *schema.Registry
	locker   Locker
	notifier Notifier
	pageSize int
	logger   *slog.Logger
}

// Config carries the syncer's collaborators. Notifier is optional.
type Config struct {
	Catalog  Catalog
	Index    index.Client
	Aliases  *alias.Manager
	Importer *importer.Importer
	Mapper   *mapper.Mapper
	Schemas  *schema.Registry
	Locker   Locker
	Notifier Notifier
	PageSize int
	Logger   *slog.Logger
}

// New creates a syncer. PageSize values below 1 fall back to the importer
// default batch size.
func New(cfg Config) *Syncer {
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = importer.DefaultBatchSize
	}
	return &Syncer{
		catalog:  cfg.Catalog,
		idx:      cfg.Index,
		aliases:  cfg.Aliases,
		imp:      cfg.Importer,
		mapper:   cfg.Mapper,
		schemas:  cfg.Schemas,
		locker:   cfg.Locker,
		notifier: cfg.Notifier,
		pageSize: pageSize,
		logger:   cfg.Logger,
	}
}

// LockKey returns the lock key guarding full syncs of a collection type.
func LockKey(t domain.CollectionType) string {
	return "typesync:sync:" + string(t)
}

// Run executes a full sync of one collection type. It returns
// ErrSyncInProgress when another run holds the type's lock. Any failure
// before the alias flip aborts the run and leaves the storefront on the old
// collection.
func (s *Syncer) Run(ctx context.Context, t domain.CollectionType) (*Run, error) {
	release, err := s.locker.Acquire(ctx, LockKey(t))
	if err != nil {
		return nil, err
	}
	defer release()

	run := &Run{
		ID:        uuid.New().String(),
		Type:      t,
		StartedAt: time.Now().UTC(),
	}
	logger := s.logger.With(slog.String("sync_id", run.ID), slog.String("type", string(t)))
	logger.Info("full sync started")

	err = s.run(ctx, t, run, logger)
	run.Duration = time.Since(run.StartedAt)
	syncDuration.WithLabelValues(string(t)).Observe(run.Duration.Seconds())

	if err != nil {
		syncRuns.WithLabelValues(string(t), "failure").Inc()
		logger.Error("full sync failed", slog.String("error", err.Error()))
		return run, err
	}

	syncRuns.WithLabelValues(string(t), "success").Inc()
	logger.Info("full sync finished",
		slog.String("target", run.Target),
		slog.String("previous", run.Previous),
		slog.Int("pages", run.Pages),
		slog.Int("imported", run.Imported),
		slog.Int("failed", run.Failed),
		slog.Duration("duration", run.Duration),
	)

	if s.notifier != nil {
		if err := s.notifier.SyncCompleted(ctx, run); err != nil {
			logger.Warn("sync completed notification failed", slog.String("error", err.Error()))
		}
	}
	return run, nil
}

// RunAll syncs every collection type in order and returns all reports. The
// first failure stops the sequence.
func (s *Syncer) RunAll(ctx context.Context) ([]*Run, error) {
	var runs []*Run
	for _, t := range domain.AllCollectionTypes() {
		run, err := s.Run(ctx, t)
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, fmt.Errorf("sync %s: %w", t, err)
		}
	}
	return runs, nil
}

func (s *Syncer) run(ctx context.Context, t domain.CollectionType, run *Run, logger *slog.Logger) error {
	target, err := s.aliases.InactiveCollection(ctx, t)
	if err != nil {
		return fmt.Errorf("resolve inactive collection: %w", err)
	}
	run.Target = target

	if err := s.recreate(ctx, t, target); err != nil {
		return err
	}

	if err := s.populate(ctx, t, target, run, logger); err != nil {
		return err
	}

	previous, err := s.aliases.Update(ctx, t, target)
	if err != nil {
		return err
	}
	run.Previous = previous

	// The new collection is already live; a cleanup failure only leaves a
	// stale collection behind for the next run.
	deleted, err := s.aliases.Cleanup(ctx, t)
	if err != nil {
		logger.Warn("post-flip cleanup failed", slog.String("error", err.Error()))
	}
	run.Deleted = deleted
	return nil
}

// recreate drops and recreates the target collection so the rebuild starts
// from an empty, correctly-typed schema.
func (s *Syncer) recreate(ctx context.Context, t domain.CollectionType, target string) error {
	if err := s.idx.DeleteCollection(ctx, target); err != nil && !errors.Is(err, index.ErrNotFound) {
		return fmt.Errorf("drop collection %s: %w", target, err)
	}
	col, err := s.schemas.For(t, target)
	if err != nil {
		return err
	}
	if err := s.idx.CreateCollection(ctx, col); err != nil {
		return err
	}
	return nil
}

func (s *Syncer) populate(ctx context.Context, t domain.CollectionType, target string, run *Run, logger *slog.Logger) error {
	switch t {
	case domain.CollectionProduct:
		return s.populateProducts(ctx, target, run, logger)
	case domain.CollectionTaxonomy:
		return s.populateTerms(ctx, target, run)
	case domain.CollectionPage:
		return s.populatePages(ctx, target, run)
	case domain.CollectionMenu:
		return s.populateMenus(ctx, target, run)
	case domain.CollectionSiteInfo:
		return s.populateSiteInfo(ctx, target, run)
	}
	return fmt.Errorf("no populate strategy for collection type %q", t)
}

func (s *Syncer) populateProducts(ctx context.Context, target string, run *Run, logger *slog.Logger) error {
	for page := 1; ; page++ {
		products, totalPages, err := s.catalog.ListProducts(ctx, page, s.pageSize)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			break
		}
		run.Pages++

		docs := make([]domain.Document, 0, len(products))
		for i := range products {
			p := &products[i]
			doc := s.mapper.ProductDocument(p)
			if p.IsVariable() {
				variations := s.fetchVariations(ctx, p, run, logger)
				summaries := make([]map[string]any, 0, len(variations))
				for _, v := range variations {
					summaries = append(summaries, s.mapper.VariationSummary(v))
					docs = append(docs, s.mapper.VariationDocument(p, v))
				}
				if len(summaries) > 0 {
					doc["variations"] = summaries
				}
			}
			docs = append(docs, doc)
		}

		if err := s.importDocs(ctx, target, docs, run); err != nil {
			return err
		}
		if page >= totalPages {
			break
		}
	}
	return nil
}

// fetchVariations loads the children of a variable product. A variation
// that cannot be fetched is recorded on the run and skipped; it must not
// sink the whole rebuild.
func (s *Syncer) fetchVariations(ctx context.Context, parent *domain.Product, run *Run, logger *slog.Logger) []*domain.Product {
	variations := make([]*domain.Product, 0, len(parent.VariationIDs))
	for _, id := range parent.VariationIDs {
		v, err := s.catalog.GetVariation(ctx, parent.ID, id)
		if err != nil {
			msg := fmt.Sprintf("variation %d of product %d: %v", id, parent.ID, err)
			run.Errors = append(run.Errors, msg)
			logger.Warn("skipping variation",
				slog.Int64("product_id", parent.ID),
				slog.Int64("variation_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		variations = append(variations, v)
	}
	return variations
}

func (s *Syncer) populateTerms(ctx context.Context, target string, run *Run) error {
	for page := 1; ; page++ {
		terms, totalPages, err := s.catalog.ListTerms(ctx, page, s.pageSize)
		if err != nil {
			return err
		}
		if len(terms) == 0 {
			break
		}
		run.Pages++

		docs := make([]domain.Document, 0, len(terms))
		for i := range terms {
			if mapper.IsInternalTaxonomy(terms[i].Taxonomy) {
				continue
			}
			docs = append(docs, s.mapper.TermDocument(&terms[i]))
		}
		if err := s.importDocs(ctx, target, docs, run); err != nil {
			return err
		}
		if page >= totalPages {
			break
		}
	}
	return nil
}

func (s *Syncer) populatePages(ctx context.Context, target string, run *Run) error {
	for page := 1; ; page++ {
		pages, totalPages, err := s.catalog.ListPages(ctx, page, s.pageSize)
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			break
		}
		run.Pages++

		docs := make([]domain.Document, 0, len(pages))
		for i := range pages {
			docs = append(docs, s.mapper.PageDocument(&pages[i]))
		}
		if err := s.importDocs(ctx, target, docs, run); err != nil {
			return err
		}
		if page >= totalPages {
			break
		}
	}
	return nil
}

func (s *Syncer) populateMenus(ctx context.Context, target string, run *Run) error {
	for page := 1; ; page++ {
		menus, totalPages, err := s.catalog.ListMenus(ctx, page, s.pageSize)
		if err != nil {
			return err
		}
		if len(menus) == 0 {
			break
		}
		run.Pages++

		docs := make([]domain.Document, 0, len(menus))
		for i := range menus {
			docs = append(docs, s.mapper.MenuDocument(&menus[i]))
		}
		if err := s.importDocs(ctx, target, docs, run); err != nil {
			return err
		}
		if page >= totalPages {
			break
		}
	}
	return nil
}

func (s *Syncer) populateSiteInfo(ctx context.Context, target string, run *Run) error {
	settings, err := s.catalog.GetSiteSettings(ctx)
	if err != nil {
		return err
	}
	if len(settings) == 0 {
		return nil
	}
	run.Pages++

	docs := make([]domain.Document, 0, len(settings))
	for i := range settings {
		docs = append(docs, s.mapper.SiteInfoDocument(&settings[i]))
	}
	return s.importDocs(ctx, target, docs, run)
}

func (s *Syncer) importDocs(ctx context.Context, target string, docs []domain.Document, run *Run) error {
	results, err := s.imp.Import(ctx, target, docs, index.ActionUpsert)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Success {
			run.Imported++
			continue
		}
		run.Failed++
		run.Errors = append(run.Errors, "document "+strconv.Quote(r.Document.ID())+": "+r.Error)
	}
	return nil
}
