package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/models"
	pkgdb "github.com/Skotchmaster/robotech_store/pkg/db"
)

func (r *GormRepo) productFilter(f catalog.Filter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.Category != "" {
			q = q.Where("category = ?", f.Category)
		}
		if f.Featured != nil {
			q = q.Where("is_featured = ?", *f.Featured)
		}
		if f.Search != "" {
			pattern := pkgdb.LikePattern(f.Search)
			q = q.Where("("+r.Dialect.Contains("name")+" OR "+r.Dialect.Contains("description")+")", pattern, pattern)
		}
		return q
	}
}

func (r *GormRepo) productOrder(s catalog.Sort) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		switch s {
		case catalog.SortNewest:
			return q.Order("id DESC")
		case catalog.SortPriceLow:
			return q.Order("price ASC").Order("id ASC")
		case catalog.SortPriceHigh:
			return q.Order("price DESC").Order("id ASC")
		default:
			return q.Order(r.Dialect.OrderText("name", false)).Order("id ASC")
		}
	}
}

func (r *GormRepo) QueryProducts(ctx context.Context, f catalog.Filter) (catalog.Page, error) {
	f, err := f.Normalize()
	if err != nil {
		return catalog.Page{}, err
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Scopes(r.productFilter(f)).
		Count(&total).Error; err != nil {
		return catalog.Page{}, err
	}

	items := make([]models.Product, 0, f.Limit)
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Scopes(r.productFilter(f), r.productOrder(f.Sort)).
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&items).Error; err != nil {
		return catalog.Page{}, err
	}

	return catalog.NewPage(f, total, items), nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []int) ([]models.Product, error) {
	items := []models.Product{}
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns every product, optionally limited to one category, by id.
func (r *GormRepo) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	items := []models.Product{}
	q := r.DB.WithContext(ctx).Order("id ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
