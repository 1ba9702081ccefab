package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/robotech_store/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID string) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := r.DB.WithContext(ctx).
		Table("cart").
		Select("cart.product_id, cart.quantity, products.name, products.price, products.image_url, products.description, products.category").
		Joins("JOIN products ON products.id = cart.product_id").
		Where("cart.user_id = ?", userID).
		Order("cart.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) ensureProduct(tx *gorm.DB, productID int) error {
	var n int64
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrProductMissing
	}
	return nil
}

// SetCartQuantity overwrites the (user, product) quantity; quantity <= 0 deletes the row.
// The user is created on the fly when missing and phone is non-empty.
func (r *GormRepo) SetCartQuantity(ctx context.Context, userID, phone string, productID, quantity int) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.ensureUser(tx, userID, phone); err != nil {
			return err
		}
		if err := r.ensureProduct(tx, productID); err != nil {
			return err
		}

		if quantity <= 0 {
			return tx.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{}).Error
		}

		item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		return tx.Clauses(r.Dialect.Upsert([]string{"user_id", "product_id"}, clause.Set{
			{Column: clause.Column{Name: "quantity"}, Value: quantity},
		})).Create(&item).Error
	})
}

// AddToCart increments the stored quantity by quantity, inserting the row if needed.
func (r *GormRepo) AddToCart(ctx context.Context, userID, phone string, productID, quantity int) (int, error) {
	var total int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.ensureUser(tx, userID, phone); err != nil {
			return err
		}
		if err := r.ensureProduct(tx, productID); err != nil {
			return err
		}

		item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		if err := tx.Clauses(r.Dialect.Upsert([]string{"user_id", "product_id"}, clause.Set{
			{Column: clause.Column{Name: "quantity"}, Value: r.Dialect.Accumulate("cart", "quantity")},
		})).Create(&item).Error; err != nil {
			return err
		}

		var stored models.CartItem
		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&stored).Error; err != nil {
			return err
		}
		total = stored.Quantity
		return nil
	})
	return total, err
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, userID string, productID int) (bool, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// ConsumeCart takes the ordered lines out of the user's cart. A row whose quantity grew past the
// ordered amount keeps the difference; rows added after the snapshot are left alone.
func (r *GormRepo) ConsumeCart(ctx context.Context, userID string, lines []models.CartLine) (removed int64, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ln := range lines {
			res := tx.Where("user_id = ? AND product_id = ? AND quantity <= ?", userID, ln.ProductID, ln.Quantity).
				Delete(&models.CartItem{})
			if res.Error != nil {
				return res.Error
			}
			removed += res.RowsAffected
			if res.RowsAffected > 0 {
				continue
			}
			err := tx.Model(&models.CartItem{}).
				Where("user_id = ? AND product_id = ? AND quantity > ?", userID, ln.ProductID, ln.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", ln.Quantity)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return removed, err
}

// ClearAllCarts empties the cart table for every user.
func (r *GormRepo) ClearAllCarts(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) CountCartRows(ctx context.Context, userID string) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.CartItem{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Count(&n).Error
	return n, err
}
