package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopping_app/internal/cache"
	"github.com/Skotchmaster/shopping_app/internal/events"
	"github.com/Skotchmaster/shopping_app/internal/logging"
	"github.com/Skotchmaster/shopping_app/internal/models"
	"github.com/Skotchmaster/shopping_app/internal/repo"
	"github.com/Skotchmaster/shopping_app/internal/search"
	"github.com/Skotchmaster/shopping_app/internal/seed"
	"github.com/Skotchmaster/shopping_app/internal/util"
)

// CatalogService owns product reads and admin mutations. Cache and Index are
// optional; without an index search falls back to the database.
type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  cache.ProductCache
	Index  search.Index
	Events events.Publisher
}

type ProductInput struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"imageUrl"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

func (s *CatalogService) GetProducts(ctx context.Context, page, size int) ([]models.Product, util.PageMeta, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	return items, util.Meta(page, offset, limit, total), nil
}

func (s *CatalogService) AllProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.AllProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.Cache != nil {
		if p, ok := s.Cache.Get(ctx, id); ok {
			return p, nil
		}
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Product not found")
		}
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, p)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Price == nil || in.ImageURL == nil || strings.TrimSpace(*in.ImageURL) == "" {
		return nil, invalid("Missing required fields: name, price, imageUrl")
	}
	if !validPrice(*in.Price) {
		return nil, invalid("price cannot be negative")
	}

	p := models.Product{
		Name:     strings.TrimSpace(*in.Name),
		Price:    *in.Price,
		ImageURL: strings.TrimSpace(*in.ImageURL),
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}

	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}

	s.indexProduct(ctx, &p)
	s.publish(ctx, "product_created", &p)
	return &p, nil
}

// UpdateProduct applies the non-nil fields of in.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Product not found")
		}
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name cannot be empty")
		}
		p.Name = name
	}
	if in.Price != nil {
		if !validPrice(*in.Price) {
			return nil, invalid("price cannot be negative")
		}
		p.Price = *in.Price
	}
	if in.ImageURL != nil {
		url := strings.TrimSpace(*in.ImageURL)
		if url == "" {
			return nil, invalid("imageUrl cannot be empty")
		}
		p.ImageURL = url
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}

	if err := s.Repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx, p.ID)
	}
	s.indexProduct(ctx, p)
	s.publish(ctx, "product_updated", p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Product not found")
		}
		return nil, err
	}

	s.forget(ctx, p.ID)
	s.publish(ctx, "product_deleted", p)
	return p, nil
}

// DeleteAllProducts wipes the catalog together with every cart line.
func (s *CatalogService) DeleteAllProducts(ctx context.Context) (int64, error) {
	existing, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.Repo.DeleteAllProducts(ctx)
	if err != nil {
		return 0, err
	}
	for i := range existing {
		s.forget(ctx, existing[i].ID)
	}
	return n, nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string, page, size int) ([]models.Product, util.PageMeta, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, util.PageMeta{}, invalid("query is required")
	}
	offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return items, util.Meta(page, offset, limit, total), nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	return items, util.Meta(page, offset, limit, total), nil
}

// Reindex pushes every product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) error {
	if s.Index == nil {
		return nil
	}
	items, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if err := s.Index.IndexProduct(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *CatalogService) indexProduct(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("search_index_error", "product_id", p.ID.String(), "error", err)
	}
}

func (s *CatalogService) forget(ctx context.Context, id uuid.UUID) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, id)
	}
	if s.Index == nil {
		return
	}
	if err := s.Index.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Error("search_index_error", "product_id", id.String(), "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, typ string, p *models.Product) {
	events.Publish(ctx, s.Events, events.TopicProducts, p.ID.String(), map[string]any{
		"type":       typ,
		"product_id": p.ID.String(),
		"name":       p.Name,
		"price":      p.Price,
	})
}

// SeedIfEmpty loads the demo catalog into an empty store.
func (s *CatalogService) SeedIfEmpty(ctx context.Context) (int, error) {
	inserted, err := seed.IfEmpty(ctx, s.Repo)
	if err != nil {
		return 0, err
	}
	for i := range inserted {
		s.indexProduct(ctx, &inserted[i])
	}
	return len(inserted), nil
}

// SeedForce drops every product and loads the demo catalog.
func (s *CatalogService) SeedForce(ctx context.Context) ([]models.Product, error) {
	existing, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	inserted, err := seed.Force(ctx, s.Repo)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		s.forget(ctx, existing[i].ID)
	}
	for i := range inserted {
		s.indexProduct(ctx, &inserted[i])
	}
	return inserted, nil
}
