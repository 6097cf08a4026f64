package model

import (
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Unit        string `json:"unit"`
	Image       string `json:"image"`
	Active      bool   `json:"active"`
}

// ProductUpdate is a partial patch: nil fields are left untouched.
// Used both by the admin HTTP PUT handler and by the edit conversation flow.
type ProductUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Unit        *string `json:"unit"`
	Image       *string `json:"image"`
	Active      *bool   `json:"active"`
}

func (u ProductUpdate) ApplyTo(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Unit != nil {
		p.Unit = *u.Unit
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Active != nil {
		p.Active = *u.Active
	}
}

// ProductDraft accumulates fields during the add conversation flow.
type ProductDraft struct {
	Name        string
	Description string
	Price       int64
	Unit        string
	Image       string
}

// CatalogStore is the backing document for the catalog. Save overwrites the
// whole document; a save failure is non-fatal and the in-memory mutation
// stands.
type CatalogStore interface {
	Load() ([]Product, error)
	Save(products []Product) error
}
