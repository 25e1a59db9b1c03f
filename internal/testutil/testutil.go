package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/shopping_app/internal/models"
)

// InitTestDB opens a fresh in-memory database with every table migrated.
func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

type Event struct {
	Topic string
	Key   string
	Event any
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Events []Event
}

func (p *Publisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, Event{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *Publisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Topic)
	}
	return out
}

// Index is an in-memory product search index matching on name.
type Index struct {
	mu       sync.Mutex
	Products map[uuid.UUID]models.Product
}

func NewIndex() *Index {
	return &Index{Products: map[uuid.UUID]models.Product{}}
}

func (i *Index) IndexProduct(_ context.Context, p *models.Product) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Products[p.ID] = *p
	return nil
}

func (i *Index) DeleteProduct(_ context.Context, id uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.Products, id)
	return nil
}

func (i *Index) Search(_ context.Context, query string, from, size int) (int64, []models.Product, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var hits []models.Product
	for _, p := range i.Products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			hits = append(hits, p)
		}
	}
	total := int64(len(hits))
	if from >= len(hits) {
		return total, []models.Product{}, nil
	}
	end := min(from+size, len(hits))
	return total, hits[from:end], nil
}

// Cache is an in-memory product cache.
type Cache struct {
	mu    sync.Mutex
	Items map[uuid.UUID]models.Product
	Hits  int
}

func NewCache() *Cache {
	return &Cache{Items: map[uuid.UUID]models.Product{}}
}

func (c *Cache) Get(_ context.Context, id uuid.UUID) (*models.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Items[id]
	if !ok {
		return nil, false
	}
	c.Hits++
	return &p, true
}

func (c *Cache) Set(_ context.Context, p *models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Items[p.ID] = *p
}

func (c *Cache) Invalidate(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Items, id)
}
