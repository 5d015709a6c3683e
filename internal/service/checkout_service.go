package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"kickshop/internal/domain"
	"kickshop/internal/events"
	"kickshop/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxCustomerNameLength  = 255
	maxPaymentMethodLength = 100
)

// CheckoutService converts a cart into a committed transaction. The whole
// checkout runs inside one database transaction: product rows are locked in
// ascending id order, stock is verified under the lock, prices are
// snapshotted, and the transaction header, its items, and the stock and
// sold_count adjustments commit together or not at all.
//
// Transactions are append-only. Update and Delete exist as entry points
// only to reject every call.
type CheckoutService interface {
	Checkout(ctx context.Context, customerName, paymentMethod string, lines []domain.CartLine) (*domain.Transaction, error)
	List(ctx context.Context) ([]*domain.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	Update(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type checkoutService struct {
	db              *sql.DB
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	publisher       *events.Publisher
	logger          *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService. publisher
// may be disabled; commit events are then dropped.
func NewCheckoutService(
	db *sql.DB,
	productRepo repository.ProductRepository,
	transactionRepo repository.TransactionRepository,
	publisher *events.Publisher,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		db:              db,
		productRepo:     productRepo,
		transactionRepo: transactionRepo,
		publisher:       publisher,
		logger:          logger,
	}
}

// preparedLine is a cart line after locking: the product snapshot and the
// computed money amounts.
type preparedLine struct {
	product   *domain.Product
	qty       int
	priceEach float64
	subtotal  float64
}

// Checkout performs the atomic checkout described on the service interface.
func (s *checkoutService) Checkout(ctx context.Context, customerName, paymentMethod string, lines []domain.CartLine) (*domain.Transaction, error) {
	if err := validateCheckoutInput(customerName, paymentMethod, lines); err != nil {
		return nil, err
	}

	// Merge duplicate product ids so each row is locked and checked once
	// against its combined demand.
	merged := mergeLines(lines)

	// Fail fast on unknown products before any lock is taken, so a bad id
	// is reported as not-found rather than surfacing mid-transaction.
	for _, line := range merged {
		if _, err := s.productRepo.FindByID(ctx, line.ProductID); err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
	}

	// Lock rows in ascending product id order. Two checkouts with
	// overlapping carts then always contend on the first shared row
	// instead of deadlocking on each other.
	sort.Slice(merged, func(i, j int) bool {
		return bytes.Compare(merged[i].ProductID[:], merged[j].ProductID[:]) < 0
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	prepared := make([]preparedLine, 0, len(merged))
	total := 0.0

	for _, line := range merged {
		product, err := s.productRepo.FindForUpdate(ctx, tx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}

		if product.Stock < line.Qty {
			return nil, &InsufficientStockError{
				ProductID: product.ID,
				Available: product.Stock,
				Requested: line.Qty,
			}
		}

		priceEach := product.Price
		subtotal := priceEach * float64(line.Qty)
		total += subtotal

		prepared = append(prepared, preparedLine{
			product:   product,
			qty:       line.Qty,
			priceEach: priceEach,
			subtotal:  subtotal,
		})
	}

	transaction := &domain.Transaction{
		ID:            uuid.New(),
		CustomerName:  customerName,
		PaymentMethod: paymentMethod,
		TotalAmount:   total,
		CreatedAt:     time.Now(),
	}

	if err := s.transactionRepo.CreateTx(ctx, tx, transaction); err != nil {
		return nil, err
	}

	for _, line := range prepared {
		item := &domain.TransactionItem{
			ID:            uuid.New(),
			TransactionID: transaction.ID,
			ProductID:     line.product.ID,
			Qty:           line.qty,
			PriceEach:     line.priceEach,
			Subtotal:      line.subtotal,
		}

		if err := s.transactionRepo.CreateItemTx(ctx, tx, item); err != nil {
			return nil, err
		}

		if err := s.productRepo.AdjustCounters(ctx, tx, line.product.ID, line.qty); err != nil {
			return nil, fmt.Errorf("product %s: %w", line.product.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	s.logger.Info("Checkout committed",
		zap.String("transaction_id", transaction.ID.String()),
		zap.Float64("total_amount", total),
		zap.Int("line_count", len(prepared)),
	)

	// Reload the committed transaction with nested items and products.
	committed, err := s.transactionRepo.FindByID(ctx, transaction.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load committed transaction: %w", err)
	}

	// Best effort: the checkout is already durable, a publish failure only
	// gets logged inside the publisher.
	s.publisher.PublishCheckout(ctx, committed)

	return committed, nil
}

// List returns all transactions with nested items, most recent first
func (s *checkoutService) List(ctx context.Context) ([]*domain.Transaction, error) {
	return s.transactionRepo.List(ctx)
}

// Get returns one transaction with nested items
func (s *checkoutService) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactionRepo.FindByID(ctx, id)
}

// Update always fails: committed transactions are immutable. The id is not
// looked up, so the rejection is uniform for existing and unknown ids.
func (s *checkoutService) Update(ctx context.Context, id uuid.UUID) error {
	return ErrUnsupportedOperation
}

// Delete always fails: committed transactions are immutable.
func (s *checkoutService) Delete(ctx context.Context, id uuid.UUID) error {
	return ErrUnsupportedOperation
}

func validateCheckoutInput(customerName, paymentMethod string, lines []domain.CartLine) error {
	if customerName == "" {
		return &ValidationError{Field: "customer_name", Message: "is required"}
	}
	if len(customerName) > maxCustomerNameLength {
		return &ValidationError{Field: "customer_name", Message: "too long"}
	}
	if paymentMethod == "" {
		return &ValidationError{Field: "payment_method", Message: "is required"}
	}
	if len(paymentMethod) > maxPaymentMethodLength {
		return &ValidationError{Field: "payment_method", Message: "too long"}
	}
	if len(lines) == 0 {
		return &ValidationError{Field: "items", Message: "must not be empty"}
	}
	for _, line := range lines {
		if line.Qty < 1 {
			return &ValidationError{Field: "items.qty", Message: "must be a positive integer"}
		}
	}
	return nil
}

// mergeLines sums quantities of repeated product ids, preserving first
// occurrence order.
func mergeLines(lines []domain.CartLine) []domain.CartLine {
	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]domain.CartLine, 0, len(lines))

	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Qty += line.Qty
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	return merged
}
