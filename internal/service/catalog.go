package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/models"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/internal/search"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

// CatalogService reads products from the store and degrades to the embedded catalog
// when the store cannot answer.
type CatalogService struct {
	Repo     *repo.GormRepo
	Catalog  *catalog.Catalog
	Searcher search.Searcher
}

func (s *CatalogService) Query(ctx context.Context, f catalog.Filter) (catalog.Page, error) {
	f, err := f.Normalize()
	if err != nil {
		return catalog.Page{}, translate(err)
	}

	page, err := s.Repo.QueryProducts(ctx, f)
	if err == nil {
		return page, nil
	}
	if errors.Is(err, catalog.ErrInvalidFilter) {
		return catalog.Page{}, translate(err)
	}

	logging.FromContext(ctx).Warn("catalog_query_fallback", "version", s.Catalog.Version(), "error", err)
	page, err = s.Catalog.Query(f)
	return page, translate(err)
}

func (s *CatalogService) ByIDs(ctx context.Context, ids []int) ([]models.Product, error) {
	for _, id := range ids {
		if err := validProduct(id); err != nil {
			return nil, err
		}
	}

	items, err := s.Repo.ProductsByIDs(ctx, ids)
	if err == nil {
		return items, nil
	}
	logging.FromContext(ctx).Warn("catalog_by_ids_fallback", "version", s.Catalog.Version(), "error", err)
	return s.Catalog.ByIDs(ids), nil
}

// Search ranks with the search backend when one is configured; otherwise, or when it fails,
// it runs a substring query sorted by name.
func (s *CatalogService) Search(ctx context.Context, q string, page, limit int) (catalog.Page, error) {
	f, err := catalog.Filter{Search: q, Page: page, Limit: limit}.Normalize()
	if err != nil {
		return catalog.Page{}, translate(err)
	}
	if s.Searcher == nil || f.Search == "" {
		return s.Query(ctx, f)
	}

	total, ids, err := s.Searcher.Search(ctx, f.Search, f.Offset(), f.Limit)
	if err != nil {
		logging.FromContext(ctx).Warn("search_backend_fallback", "error", err)
		return s.Query(ctx, f)
	}

	found, err := s.ByIDs(ctx, ids)
	if err != nil {
		return catalog.Page{}, err
	}
	byID := make(map[int]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	items := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
		}
	}
	return catalog.NewPage(f, total, items), nil
}
