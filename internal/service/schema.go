package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/models"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/internal/search"
	"github.com/Skotchmaster/robotech_store/pkg/config"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type SchemaService struct {
	Repo    *repo.GormRepo
	Catalog *catalog.Catalog
	Indexer search.Indexer
}

// Reset drops every table, recreates the schema and loads the catalog. Carts and orders are lost.
func (s *SchemaService) Reset(ctx context.Context) (repo.SeedReport, error) {
	if s.Catalog.Len() == 0 {
		return repo.SeedReport{}, ErrEmptyCatalog
	}
	report, err := s.Repo.ResetSchema(ctx, s.Catalog.Products())
	return s.finish(ctx, config.SeedModeReset, report, err)
}

// Seed upserts the catalog by id and keeps carts and orders.
func (s *SchemaService) Seed(ctx context.Context) (repo.SeedReport, error) {
	if s.Catalog.Len() == 0 {
		return repo.SeedReport{}, ErrEmptyCatalog
	}
	report, err := s.Repo.SeedProducts(ctx, s.Catalog.Products())
	return s.finish(ctx, config.SeedModeUpsert, report, err)
}

// Initialize runs the startup seed for mode.
func (s *SchemaService) Initialize(ctx context.Context, mode string) (repo.SeedReport, error) {
	switch mode {
	case config.SeedModeUpsert:
		return s.Seed(ctx)
	case config.SeedModeReset, "":
		return s.Reset(ctx)
	default:
		return repo.SeedReport{}, fmt.Errorf("unknown seed mode %q: %w", mode, ErrValidation)
	}
}

func (s *SchemaService) finish(ctx context.Context, mode string, report repo.SeedReport, err error) (repo.SeedReport, error) {
	l := logging.FromContext(ctx).With("mode", mode, "version", s.Catalog.Version())
	for _, f := range report.Failed {
		l.Warn("seed_row_failed", "product_id", f.ProductID, "error", f.Err)
	}
	if err != nil {
		l.Error("catalog_seed_failed", "failed", len(report.Failed), "error", err)
		return report, translate(err)
	}
	l.Info("catalog_seeded", "inserted", report.Inserted, "failed", len(report.Failed), "removed", report.Removed)

	if s.Indexer != nil {
		if _, err := s.Reindex(ctx); err != nil {
			l.Warn("search_reindex_failed", "error", err)
		}
	}
	return report, nil
}

// Verify compares the stored products with the catalog.
func (s *SchemaService) Verify(ctx context.Context) (catalog.Drift, error) {
	got, err := s.Repo.ListProducts(ctx, "")
	if err != nil {
		return catalog.Drift{}, translate(err)
	}
	return catalog.Diff(s.Catalog.Products(), got), nil
}

func (s *SchemaService) Summary(ctx context.Context) (catalog.Summary, error) {
	got, err := s.Repo.ListProducts(ctx, "")
	if err != nil {
		return catalog.Summary{}, translate(err)
	}
	return catalog.Summarize(got), nil
}

func (s *SchemaService) List(ctx context.Context, category string) ([]models.Product, error) {
	got, err := s.Repo.ListProducts(ctx, category)
	return got, translate(err)
}

// Reindex pushes the stored products to the search backend and returns how many were sent.
func (s *SchemaService) Reindex(ctx context.Context) (int, error) {
	if s.Indexer == nil {
		return 0, fmt.Errorf("search backend: %w", ErrNotConfigured)
	}
	products, err := s.Repo.ListProducts(ctx, "")
	if err != nil {
		return 0, translate(err)
	}
	if err := s.Indexer.IndexProducts(ctx, products); err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("search_reindexed", "documents", len(products))
	return len(products), nil
}
