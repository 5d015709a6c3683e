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
	ErrProductNotFound = errors.New("product not found")
)

const productColumns = `id, name, brand, category, color, size_range, price, stock, sold_count, image_url, description, created_at, updated_at`

// ProductRepository defines the interface for product data access. The
// FindForUpdate/AdjustCounters pair runs inside a caller-owned transaction;
// everything else operates on the pool directly.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	FindForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error)
	AdjustCounters(ctx context.Context, tx *sql.Tx, id uuid.UUID, qty int) error
	RankBySales(ctx context.Context, limit int) ([]*domain.Product, error)
	RankBySalesForBrands(ctx context.Context, brands []string, exclude uuid.UUID, limit int) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, brand, category, color, size_range, price, stock, sold_count, image_url, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Brand,
		product.Category,
		product.Color,
		product.SizeRange,
		product.Price,
		product.Stock,
		product.SoldCount,
		product.ImageURL,
		product.Description,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update persists the full product row. SoldCount is deliberately not part
// of the update set: it belongs to the checkout path.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, brand = $3, category = $4, color = $5, size_range = $6,
		    price = $7, stock = $8, image_url = $9, description = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Brand,
		product.Category,
		product.Color,
		product.SizeRange,
		product.Price,
		product.Stock,
		product.ImageURL,
		product.Description,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProductRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves all products, newest first
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC`, productColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// FindForUpdate retrieves a product inside tx with an exclusive row lock.
// It blocks until any concurrent transaction holding the same lock commits
// or rolls back.
func (r *productRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 FOR UPDATE`, productColumns)

	product, err := scanProductRow(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return product, nil
}

// AdjustCounters atomically decrements stock and increments sold_count by
// qty inside tx. Callers must hold the row lock acquired by FindForUpdate.
func (r *productRepository) AdjustCounters(ctx context.Context, tx *sql.Tx, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, sold_count = sold_count + $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	result, err := tx.ExecContext(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("failed to adjust product counters: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// salesRankOrder scores a product by sold_count plus the summed qty of all
// its transaction items. sold_count already tracks committed sales, so the
// two terms overlap; the composite score is kept as the ranking contract.
const salesRankOrder = `ORDER BY p.sold_count + COALESCE(s.qty_sum, 0) DESC`

// RankBySales returns up to limit products ranked by the composite sales
// score. Relative order of equal scores is storage-defined.
func (r *productRepository) RankBySales(ctx context.Context, limit int) ([]*domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.brand, p.category, p.color, p.size_range, p.price, p.stock, p.sold_count, p.image_url, p.description, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(qty) AS qty_sum
			FROM transaction_items
			GROUP BY product_id
		) s ON s.product_id = p.id
		` + salesRankOrder + `
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products by sales: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// RankBySalesForBrands ranks products restricted to the given brand set,
// excluding the product identified by exclude.
func (r *productRepository) RankBySalesForBrands(ctx context.Context, brands []string, exclude uuid.UUID, limit int) ([]*domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.brand, p.category, p.color, p.size_range, p.price, p.stock, p.sold_count, p.image_url, p.description, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(qty) AS qty_sum
			FROM transaction_items
			GROUP BY product_id
		) s ON s.product_id = p.id
		WHERE p.brand = ANY($1) AND p.id != $2
		` + salesRankOrder + `
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, brands, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products by brand: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func scanProductRow(row *sql.Row) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
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
		return nil, err
	}
	return product, nil
}

func collectProducts(rows *sql.Rows) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		err := rows.Scan(
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
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
