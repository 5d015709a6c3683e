package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kickshop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionRepository defines the interface for transaction data access.
// Writes take a caller-owned *sql.Tx so a checkout commits the transaction
// header, its items, and the product counter updates as one atomic unit.
// Reads return fully materialized transactions with nested items and each
// item's product.
type TransactionRepository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, transaction *domain.Transaction) error
	CreateItemTx(ctx context.Context, tx *sql.Tx, item *domain.TransactionItem) error
	List(ctx context.Context) ([]*domain.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// CreateTx inserts the transaction header inside tx
func (r *transactionRepository) CreateTx(ctx context.Context, tx *sql.Tx, transaction *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, customer_name, payment_method, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		transaction.ID,
		transaction.CustomerName,
		transaction.PaymentMethod,
		transaction.TotalAmount,
		transaction.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// CreateItemTx inserts one transaction item inside tx
func (r *transactionRepository) CreateItemTx(ctx context.Context, tx *sql.Tx, item *domain.TransactionItem) error {
	query := `
		INSERT INTO transaction_items (id, transaction_id, product_id, qty, price_each, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.TransactionID,
		item.ProductID,
		item.Qty,
		item.PriceEach,
		item.Subtotal,
	)

	if err != nil {
		return fmt.Errorf("failed to create transaction item: %w", err)
	}

	return nil
}

const transactionJoinQuery = `
	SELECT t.id, t.customer_name, t.payment_method, t.total_amount, t.created_at,
	       ti.id, ti.transaction_id, ti.product_id, ti.qty, ti.price_each, ti.subtotal,
	       p.id, p.name, p.brand, p.category, p.color, p.size_range, p.price, p.stock, p.sold_count, p.image_url, p.description, p.created_at, p.updated_at
	FROM transactions t
	JOIN transaction_items ti ON ti.transaction_id = t.id
	JOIN products p ON p.id = ti.product_id
`

// List retrieves all transactions with nested items and products, most
// recent first.
func (r *transactionRepository) List(ctx context.Context) ([]*domain.Transaction, error) {
	query := transactionJoinQuery + ` ORDER BY t.created_at DESC, t.id, ti.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// FindByID retrieves one transaction with nested items and products
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := transactionJoinQuery + ` WHERE t.id = $1 ORDER BY ti.id`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by ID: %w", err)
	}
	defer rows.Close()

	transactions, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	if len(transactions) == 0 {
		return nil, ErrTransactionNotFound
	}

	return transactions[0], nil
}

// collectTransactions folds join rows into transactions with nested items.
// Rows arrive grouped by transaction id, so a plain ordered walk suffices.
func collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	transactions := []*domain.Transaction{}
	var current *domain.Transaction

	for rows.Next() {
		transaction := &domain.Transaction{}
		item := domain.TransactionItem{}
		product := &domain.Product{}

		err := rows.Scan(
			&transaction.ID,
			&transaction.CustomerName,
			&transaction.PaymentMethod,
			&transaction.TotalAmount,
			&transaction.CreatedAt,
			&item.ID,
			&item.TransactionID,
			&item.ProductID,
			&item.Qty,
			&item.PriceEach,
			&item.Subtotal,
			&product.ID,
			&product.Name,
			&product.Brand,
			&product.Category,
			&product.Color,
			&product.SizeRange,
			&product.Price,
			&product.Stock,
			&product.SoldCount,
			&product.ImageURL,
			&product.Description,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}

		item.Product = product

		if current == nil || current.ID != transaction.ID {
			current = transaction
			transactions = append(transactions, current)
		}
		current.Items = append(current.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
