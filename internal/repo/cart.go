package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopping_app/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0)
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart merges item.Quantity into the user's existing line for the product
// or creates a new line. created reports which of the two happened. A merge
// that would push the line past models.MaxCartQuantity fails with ErrQuantityLimit.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) (bool, error) {
	created, err := r.addToCart(ctx, item)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent add inserted the same line first; merge into it
		return r.addToCart(ctx, item)
	}
	return created, err
}

func (r *GormRepo) addToCart(ctx context.Context, item *models.CartItem) (bool, error) {
	created := false
	var line models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ? AND quantity + ? <= ?", item.UserID, item.ProductID, item.Quantity, models.MaxCartQuantity).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing int64
			if err := tx.Model(&models.CartItem{}).
				Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrQuantityLimit
			}
			fresh := models.CartItem{UserID: item.UserID, ProductID: item.ProductID, Quantity: item.Quantity}
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
			created = true
		}
		return tx.Preload("Product").
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			First(&line).Error
	})
	if err != nil {
		return false, err
	}
	*item = line
	return created, nil
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND user_id = ?", itemID, userID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Preload("Product").Where("id = ?", itemID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
