package seed

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/shopping_app/internal/models"
	"github.com/Skotchmaster/shopping_app/internal/repo"
)

// Products returns fresh copies of the demo catalog.
func Products() []models.Product {
	return []models.Product{
		{
			Name:        "T-shirt",
			Price:       29.99,
			ImageURL:    "https://picsum.photos/seed/tshirt/600/400",
			Description: "Basic tee",
		},
		{
			Name:        "Hoodie",
			Price:       59.99,
			ImageURL:    "https://picsum.photos/seed/hoodie/600/400",
			Description: "Warm hoodie",
		},
		{
			Name:        "Sneakers",
			Price:       89.99,
			ImageURL:    "https://picsum.photos/seed/sneakers/600/400",
			Description: "Comfortable sneakers",
		},
	}
}

// IfEmpty inserts the demo catalog only when there are no products yet.
func IfEmpty(ctx context.Context, r *repo.GormRepo) ([]models.Product, error) {
	count, err := r.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed: count products: %w", err)
	}
	if count > 0 {
		return nil, nil
	}
	return insert(ctx, r)
}

// Force replaces the whole catalog, and every cart line with it, by the demo products.
func Force(ctx context.Context, r *repo.GormRepo) ([]models.Product, error) {
	if _, err := r.DeleteAllProducts(ctx); err != nil {
		return nil, fmt.Errorf("seed: delete products: %w", err)
	}
	return insert(ctx, r)
}

func insert(ctx context.Context, r *repo.GormRepo) ([]models.Product, error) {
	prods := Products()
	if err := r.InsertProducts(ctx, prods); err != nil {
		return nil, fmt.Errorf("seed: insert products: %w", err)
	}
	return prods, nil
}
