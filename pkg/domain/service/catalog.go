package service

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
	"github.com/yuipii/strawberry-website-bot/pkg/metrics"
)

type Catalog interface {
	All() []model.Product
	Active() []model.Product
	Find(id int64) (model.Product, error)
	Create(product model.Product) (model.Product, error)
	Update(id int64, patch model.ProductUpdate) (model.Product, error)
	Remove(id int64) (model.Product, error)
}

// NewCatalog loads the catalog from its backing store. A missing or
// unreadable document seeds the built-in defaults and persists them.
// A single mutex serializes catalog access between the HTTP handlers and
// the bot's ingestion loop.
func NewCatalog(store model.CatalogStore, reg *metrics.Registry) Catalog {
	c := &catalog{store: store, reg: reg}

	products, err := store.Load()
	if err != nil {
		log.WithError(err).Warn("Could not load catalog, seeding defaults")
		products = defaultProducts()
		if err := store.Save(products); err != nil {
			log.WithError(err).Error("Failed to persist default catalog")
			reg.CatalogSaveFailures.Inc()
		}
	}
	c.products = products

	log.WithField("count", len(products)).Info("Catalog loaded")
	return c
}

type catalog struct {
	mu       sync.Mutex
	store    model.CatalogStore
	reg      *metrics.Registry
	products []model.Product
}

func (c *catalog) All() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *catalog) Active() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

func (c *catalog) Find(id int64) (model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, model.ErrProductNotFound
}

func (c *catalog) Create(product model.Product) (model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	product.ID = c.nextID()
	c.products = append(c.products, product)

	return product, c.persist()
}

func (c *catalog) Update(id int64, patch model.ProductUpdate) (model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.products {
		if c.products[i].ID == id {
			patch.ApplyTo(&c.products[i])
			return c.products[i], c.persist()
		}
	}
	return model.Product{}, model.ErrProductNotFound
}

func (c *catalog) Remove(id int64) (model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, p := range c.products {
		if p.ID == id {
			c.products = append(c.products[:i], c.products[i+1:]...)
			return p, c.persist()
		}
	}
	return model.Product{}, model.ErrProductNotFound
}

// nextID and persist are called with the mutex held.
func (c *catalog) nextID() int64 {
	var max int64
	for _, p := range c.products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

func (c *catalog) persist() error {
	if err := c.store.Save(c.products); err != nil {
		log.WithError(err).Error("Failed to save catalog")
		c.reg.CatalogSaveFailures.Inc()
		return errors.Wrap(err, "save catalog")
	}
	return nil
}

func defaultProducts() []model.Product {
	return []model.Product{
		{
			ID:          1,
			Name:        "Свежая клубника",
			Price:       500,
			Image:       "https://images.unsplash.com/photo-1570913190149-e2a64af5c30f?ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D&auto=format&fit=crop&w=1000&q=80",
			Unit:        "кг",
			Description: "Натуральная, сочная и сладкая клубника, собранная вручную с любовью.",
			Active:      true,
		},
		{
			ID:          2,
			Name:        "Клубника в корзине",
			Price:       700,
			Image:       "https://images.unsplash.com/photo-1464454709131-ffd692591ee5?ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D&auto=format&fit=crop&w=1000&q=80",
			Unit:        "корзина",
			Description: "Идеальный подарок для близких. Красиво, вкусно и натурально.",
			Active:      true,
		},
		{
			ID:          3,
			Name:        "Клубника со сливками",
			Price:       850,
			Image:       "https://images.unsplash.com/photo-1556909114-f6e7ad7d3136?ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D&auto=format&fit=crop&w=1000&q=80",
			Unit:        "порция",
			Description: "Нежное сочетание свежей клубники и домашних сливок. Идеальный десерт.",
			Active:      true,
		},
	}
}
