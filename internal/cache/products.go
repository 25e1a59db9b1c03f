package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/shopping_app/internal/models"
)

// ProductCache is a read-through cache in front of product lookups by id.
type ProductCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, bool)
	Set(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context, id uuid.UUID)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type RedisProducts struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisProducts(ctx context.Context, cfg RedisConfig) (*RedisProducts, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return &RedisProducts{rdb: rdb, ttl: cfg.TTL}, nil
}

func Key(id uuid.UUID) string {
	return "product:" + id.String()
}

// Get treats every redis failure as a miss.
func (r *RedisProducts) Get(ctx context.Context, id uuid.UUID) (*models.Product, bool) {
	raw, err := r.rdb.Get(ctx, Key(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (r *RedisProducts) Set(ctx context.Context, p *models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	r.rdb.Set(ctx, Key(p.ID), data, r.ttl)
}

func (r *RedisProducts) Invalidate(ctx context.Context, id uuid.UUID) {
	r.rdb.Del(ctx, Key(id))
}

func (r *RedisProducts) Close() error {
	return r.rdb.Close()
}
