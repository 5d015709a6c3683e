package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a committed sale. Transactions are append-only: once
// created they are never updated or deleted.
type Transaction struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	CustomerName  string            `json:"customer_name" db:"customer_name"`
	PaymentMethod string            `json:"payment_method" db:"payment_method"`
	TotalAmount   float64           `json:"total_amount" db:"total_amount"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	Items         []TransactionItem `json:"items"`
}

// TransactionItem is one line of a transaction. PriceEach and Subtotal are
// snapshots taken at sale time and stay fixed if the product price changes
// later.
type TransactionItem struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TransactionID uuid.UUID `json:"transaction_id" db:"transaction_id"`
	ProductID     uuid.UUID `json:"product_id" db:"product_id"`
	Qty           int       `json:"qty" db:"qty"`
	PriceEach     float64   `json:"price_each" db:"price_each"`
	Subtotal      float64   `json:"subtotal" db:"subtotal"`
	Product       *Product  `json:"product,omitempty"`
}

// CartLine is a requested product/quantity pair on the checkout input.
type CartLine struct {
	ProductID uuid.UUID
	Qty       int
}
