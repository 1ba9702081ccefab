package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

// CreateOrder writes the order and its items in one transaction and assigns the per-user number.
// The number comes from users.order_seq, bumped in the same transaction; the row lock taken by
// the UPDATE serializes concurrent orders of one user.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", order.UserID).
			UpdateColumn("order_seq", gorm.Expr("order_seq + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserMissing
		}

		var seq []int
		if err := tx.Model(&models.User{}).Where("id = ?", order.UserID).Pluck("order_seq", &seq).Error; err != nil {
			return err
		}
		if len(seq) == 0 {
			return ErrUserMissing
		}
		order.UserOrderNumber = seq[0]

		ids := make([]int, 0, len(order.Items))
		distinct := map[int]struct{}{}
		for _, it := range order.Items {
			if _, ok := distinct[it.ProductID]; !ok {
				distinct[it.ProductID] = struct{}{}
				ids = append(ids, it.ProductID)
			}
		}
		var found int64
		if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(ids) {
			return ErrProductMissing
		}

		return tx.Create(order).Error
	})
}

func (r *GormRepo) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CompleteOrder marks the order completed. changed is false when it already was.
func (r *GormRepo) CompleteOrder(ctx context.Context, id uint) (order *models.Order, changed bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&o).Error; err != nil {
			return err
		}
		if o.Status != models.OrderStatusCompleted {
			if err := tx.Model(&o).Update("status", models.OrderStatusCompleted).Error; err != nil {
				return err
			}
			changed = true
		}
		order = &o
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return order, changed, nil
}
