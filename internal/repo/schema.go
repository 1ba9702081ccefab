package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

type RowFailure struct {
	ProductID int
	Err       error
}

type SeedReport struct {
	Inserted int
	Failed   []RowFailure
	// Removed counts products deleted by an upsert seed because they left the catalog.
	Removed int64
}

// ResetSchema drops and recreates all tables, then loads products. Each destructive phase
// commits on its own; the product load is one transaction that commits when at least one row
// went in. Rows that fail are rolled back to their savepoint and reported.
func (r *GormRepo) ResetSchema(ctx context.Context, products []models.Product) (SeedReport, error) {
	db := r.DB.WithContext(ctx)
	tables := models.Tables()

	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			return SeedReport{}, fmt.Errorf("drop %T: %w", tables[i], err)
		}
	}
	for _, t := range tables {
		if err := db.Migrator().CreateTable(t); err != nil {
			return SeedReport{}, fmt.Errorf("create %T: %w", t, err)
		}
	}

	if _, err := r.ClearAllCarts(ctx); err != nil {
		return SeedReport{}, fmt.Errorf("clear cart: %w", err)
	}
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
		return SeedReport{}, fmt.Errorf("clear products: %w", err)
	}

	return r.loadProducts(ctx, products, func(tx *gorm.DB, p *models.Product) error {
		return tx.Create(p).Error
	})
}

// MigrateSchema creates missing tables and columns without touching data.
func (r *GormRepo) MigrateSchema(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.Tables()...)
}

// SeedProducts upserts products by id and deletes products that are no longer listed, unless an
// order item still references them. Carts and orders are preserved.
func (r *GormRepo) SeedProducts(ctx context.Context, products []models.Product) (SeedReport, error) {
	if err := r.MigrateSchema(ctx); err != nil {
		return SeedReport{}, fmt.Errorf("migrate: %w", err)
	}

	upsert := r.Dialect.Upsert([]string{"id"}, clause.AssignmentColumns([]string{
		"name", "description", "price", "category", "stock_quantity", "image_url", "is_featured",
	}))
	report, err := r.loadProducts(ctx, products, func(tx *gorm.DB, p *models.Product) error {
		return tx.Clauses(upsert).Create(p).Error
	})
	if err != nil {
		return report, err
	}

	ids := make([]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	res := r.DB.WithContext(ctx).
		Where("id NOT IN ?", ids).
		Where("id NOT IN (?)", r.DB.Model(&models.OrderItem{}).Select("product_id")).
		Delete(&models.Product{})
	if res.Error != nil {
		return report, fmt.Errorf("prune products: %w", res.Error)
	}
	report.Removed = res.RowsAffected
	return report, nil
}

func (r *GormRepo) loadProducts(ctx context.Context, products []models.Product, write func(*gorm.DB, *models.Product) error) (SeedReport, error) {
	var report SeedReport
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range products {
			p := products[i]
			sp := fmt.Sprintf("seed_row_%d", i)
			if err := tx.SavePoint(sp).Error; err != nil {
				return err
			}
			if err := write(tx, &p); err != nil {
				if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
					return rbErr
				}
				report.Failed = append(report.Failed, RowFailure{ProductID: p.ID, Err: err})
				continue
			}
			report.Inserted++
		}
		if report.Inserted == 0 {
			return ErrNothingSeeded
		}
		return r.Dialect.ResetIdentity(tx, "products", "id")
	})
	if err != nil {
		return report, err
	}
	return report, nil
}
