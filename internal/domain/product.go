package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog. Stock and SoldCount are
// mutated only by the checkout path; catalog updates never touch SoldCount.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Brand       string    `json:"brand" db:"brand"`
	Category    string    `json:"category" db:"category"`
	Color       string    `json:"color" db:"color"`
	SizeRange   string    `json:"size_range" db:"size_range"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	SoldCount   int       `json:"sold_count" db:"sold_count"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
