// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog reads and administers the store's products and categories.

Products are owned and priced by the backend. The agent never recomputes a
price; the snapshot types below are also embedded in cart lines and orders.

Architecture:

  - Service: Browsing (list, search, by category) and admin CRUD.
  - Handler: The agent's /catalog endpoints.

Category listings are soft-fail: the UI keeps showing products when the
category list cannot be fetched. Every other read surfaces its error.
*/
package catalog

// # Catalog Entities

// Category groups products on the storefront.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nom"`
	Description string `json:"description,omitempty"`
}

// Product is the backend's product record.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nom"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"prix"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Category    *Category `json:"category,omitempty"`
}

// InStock reports whether the backend still lists units for sale.
func (product Product) InStock() bool { return product.Stock > 0 }

// # Admin Payloads

// CategoryRef references an existing category by ID.
type CategoryRef struct {
	ID int64 `json:"id"`
}

// ProductInput is the body of product create and update calls.
type ProductInput struct {
	Name        string       `json:"nom"`
	Description string       `json:"description"`
	Price       float64      `json:"prix"`
	Stock       int          `json:"stock"`
	ImageURL    *string      `json:"imageUrl"`
	Category    *CategoryRef `json:"category"`
}

// CategoryInput is the body of category create and update calls.
type CategoryInput struct {
	Name        string `json:"nom"`
	Description string `json:"description"`
}
