package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopping_app/internal/events"
	"github.com/Skotchmaster/shopping_app/internal/models"
	"github.com/Skotchmaster/shopping_app/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, userID)
}

// AddToCart merges quantity into the user's line for the product, creating it
// when absent. created is true only for a new line.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity uint) (*models.CartItem, bool, error) {
	if productID == uuid.Nil {
		return nil, false, invalid("productId is required")
	}
	if quantity < 1 {
		return nil, false, invalid("quantity must be at least 1")
	}

	exists, err := s.Repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, notFound("Product not found")
	}

	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	created, err := s.Repo.AddToCart(ctx, &item)
	if err != nil {
		if errors.Is(err, repo.ErrQuantityLimit) {
			return nil, false, invalid("quantity is too large")
		}
		return nil, false, err
	}

	s.publish(ctx, "cart_item_added", userID, map[string]any{
		"product_id": productID.String(),
		"added":      quantity,
		"quantity":   item.Quantity,
	})
	return &item, created, nil
}

func (s *CartService) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity uint) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}

	item, err := s.Repo.SetCartQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Cart item not found")
		}
		return nil, err
	}

	s.publish(ctx, "cart_item_updated", userID, map[string]any{
		"item_id":  itemID.String(),
		"quantity": item.Quantity,
	})
	return item, nil
}

func (s *CartService) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.Repo.DeleteCartItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Cart item not found")
		}
		return err
	}

	s.publish(ctx, "cart_item_removed", userID, map[string]any{"item_id": itemID.String()})
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.publish(ctx, "cart_cleared", userID, map[string]any{"removed": n})
	return n, nil
}

func (s *CartService) publish(ctx context.Context, typ string, userID uuid.UUID, fields map[string]any) {
	fields["type"] = typ
	fields["user_id"] = userID.String()
	events.Publish(ctx, s.Events, events.TopicCart, userID.String(), fields)
}
