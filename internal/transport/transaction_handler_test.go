package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kickshop/internal/domain"
	"kickshop/internal/repository"
	"kickshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockCheckoutService keeps committed transactions in memory and enforces
// the same stock rules as the real implementation.
type mockCheckoutService struct {
	products     map[uuid.UUID]*domain.Product
	transactions map[uuid.UUID]*domain.Transaction
}

func newMockCheckoutService() *mockCheckoutService {
	return &mockCheckoutService{
		products:     make(map[uuid.UUID]*domain.Product),
		transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

func (m *mockCheckoutService) Checkout(ctx context.Context, customerName, paymentMethod string, lines []domain.CartLine) (*domain.Transaction, error) {
	for _, line := range lines {
		product, exists := m.products[line.ProductID]
		if !exists {
			return nil, repository.ErrProductNotFound
		}
		if product.Stock < line.Qty {
			return nil, &service.InsufficientStockError{
				ProductID: line.ProductID,
				Available: product.Stock,
				Requested: line.Qty,
			}
		}
	}

	transaction := &domain.Transaction{
		ID:            uuid.New(),
		CustomerName:  customerName,
		PaymentMethod: paymentMethod,
		CreatedAt:     time.Now(),
	}
	for _, line := range lines {
		product := m.products[line.ProductID]
		product.Stock -= line.Qty
		subtotal := product.Price * float64(line.Qty)
		transaction.TotalAmount += subtotal
		transaction.Items = append(transaction.Items, domain.TransactionItem{
			ID:            uuid.New(),
			TransactionID: transaction.ID,
			ProductID:     line.ProductID,
			Qty:           line.Qty,
			PriceEach:     product.Price,
			Subtotal:      subtotal,
			Product:       product,
		})
	}
	m.transactions[transaction.ID] = transaction
	return transaction, nil
}

func (m *mockCheckoutService) List(ctx context.Context) ([]*domain.Transaction, error) {
	transactions := make([]*domain.Transaction, 0, len(m.transactions))
	for _, transaction := range m.transactions {
		transactions = append(transactions, transaction)
	}
	return transactions, nil
}

func (m *mockCheckoutService) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	transaction, exists := m.transactions[id]
	if !exists {
		return nil, repository.ErrTransactionNotFound
	}
	return transaction, nil
}

func (m *mockCheckoutService) Update(ctx context.Context, id uuid.UUID) error {
	return service.ErrUnsupportedOperation
}

func (m *mockCheckoutService) Delete(ctx context.Context, id uuid.UUID) error {
	return service.ErrUnsupportedOperation
}

func newTransactionTestRouter() (chi.Router, *mockCheckoutService) {
	checkoutService := newMockCheckoutService()
	logger, _ := zap.NewDevelopment()
	handler := NewTransactionHandler(checkoutService, logger)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, checkoutService
}

func postCheckout(t *testing.T, router chi.Router, payload CheckoutRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckoutReturnsCreatedTransaction(t *testing.T) {
	router, checkoutService := newTransactionTestRouter()

	productID := uuid.New()
	checkoutService.products[productID] = &domain.Product{ID: productID, Name: "Air Max 90", Price: 120.50, Stock: 10}

	w := postCheckout(t, router, CheckoutRequest{
		CustomerName:  "Jordan Lee",
		PaymentMethod: "credit_card",
		Items: []CheckoutItemRequest{
			{ProductID: productID.String(), Qty: 2},
		},
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp CheckoutResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if resp.Data == nil {
		t.Fatal("expected the committed transaction in the response")
	}
	if resp.Data.TotalAmount != 241.00 {
		t.Errorf("expected total 241.00, got %v", resp.Data.TotalAmount)
	}
	if len(resp.Data.Items) != 1 || resp.Data.Items[0].Qty != 2 {
		t.Error("expected one line item with qty 2")
	}
}

func TestCheckoutValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload CheckoutRequest
	}{
		{
			name: "missing customer name",
			payload: CheckoutRequest{
				PaymentMethod: "cash",
				Items:         []CheckoutItemRequest{{ProductID: uuid.NewString(), Qty: 1}},
			},
		},
		{
			name: "missing payment method",
			payload: CheckoutRequest{
				CustomerName: "Jordan Lee",
				Items:        []CheckoutItemRequest{{ProductID: uuid.NewString(), Qty: 1}},
			},
		},
		{
			name: "empty cart",
			payload: CheckoutRequest{
				CustomerName:  "Jordan Lee",
				PaymentMethod: "cash",
				Items:         []CheckoutItemRequest{},
			},
		},
		{
			name: "zero quantity",
			payload: CheckoutRequest{
				CustomerName:  "Jordan Lee",
				PaymentMethod: "cash",
				Items:         []CheckoutItemRequest{{ProductID: uuid.NewString(), Qty: 0}},
			},
		},
		{
			name: "malformed product id",
			payload: CheckoutRequest{
				CustomerName:  "Jordan Lee",
				PaymentMethod: "cash",
				Items:         []CheckoutItemRequest{{ProductID: "not-a-uuid", Qty: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTransactionTestRouter()

			w := postCheckout(t, router, tt.payload)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCheckoutUnknownProductReturnsNotFound(t *testing.T) {
	router, _ := newTransactionTestRouter()

	w := postCheckout(t, router, CheckoutRequest{
		CustomerName:  "Jordan Lee",
		PaymentMethod: "cash",
		Items:         []CheckoutItemRequest{{ProductID: uuid.NewString(), Qty: 1}},
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCheckoutInsufficientStockReturnsDetails(t *testing.T) {
	router, checkoutService := newTransactionTestRouter()

	productID := uuid.New()
	checkoutService.products[productID] = &domain.Product{ID: productID, Name: "Air Max 90", Price: 120, Stock: 1}

	w := postCheckout(t, router, CheckoutRequest{
		CustomerName:  "Jordan Lee",
		PaymentMethod: "cash",
		Items:         []CheckoutItemRequest{{ProductID: productID.String(), Qty: 3}},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("could not decode error response: %v", err)
	}

	errField, ok := response["error"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing error object")
	}
	details, ok := errField["details"].(map[string]interface{})
	if !ok {
		t.Fatal("error object missing details")
	}
	if details["product_id"] != productID.String() {
		t.Errorf("expected product_id %s, got %v", productID, details["product_id"])
	}
	if details["available"] != float64(1) || details["requested"] != float64(3) {
		t.Errorf("expected available 1 / requested 3, got %v / %v", details["available"], details["requested"])
	}
}

// Mutating transaction routes are rejected whether or not the id exists.
func TestTransactionMutationsAreMethodNotAllowed(t *testing.T) {
	router, checkoutService := newTransactionTestRouter()

	productID := uuid.New()
	checkoutService.products[productID] = &domain.Product{ID: productID, Name: "Air Max 90", Price: 50, Stock: 5}
	transaction, err := checkoutService.Checkout(context.Background(), "Jordan Lee", "cash", []domain.CartLine{{ProductID: productID, Qty: 1}})
	if err != nil {
		t.Fatalf("seed checkout failed: %v", err)
	}

	ids := []string{transaction.ID.String(), uuid.NewString()}
	methods := []string{http.MethodPut, http.MethodPatch, http.MethodDelete}

	for _, id := range ids {
		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/transactions/"+id, bytes.NewReader([]byte(`{}`)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s: expected 405, got %d", method, id, w.Code)
			}
		}
	}
}

func TestTransactionGetAndList(t *testing.T) {
	router, checkoutService := newTransactionTestRouter()

	productID := uuid.New()
	checkoutService.products[productID] = &domain.Product{ID: productID, Name: "Air Max 90", Price: 75, Stock: 5}
	transaction, err := checkoutService.Checkout(context.Background(), "Jordan Lee", "cash", []domain.CartLine{{ProductID: productID, Qty: 2}})
	if err != nil {
		t.Fatalf("seed checkout failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/"+transaction.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var fetched domain.Transaction
	if err := json.NewDecoder(w.Body).Decode(&fetched); err != nil {
		t.Fatalf("could not decode response: %v", err)
	}
	if fetched.ID != transaction.ID || len(fetched.Items) != 1 {
		t.Error("expected the committed transaction with its items")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from list, got %d", w.Code)
	}
	var listed []*domain.Transaction
	if err := json.NewDecoder(w.Body).Decode(&listed); err != nil {
		t.Fatalf("could not decode list response: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(listed))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/transactions/"+uuid.NewString(), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown transaction, got %d", w.Code)
	}
}
