package transport

import (
	"errors"
	"net/http"

	"kickshop/internal/domain"
	"kickshop/internal/middleware"
	"kickshop/internal/repository"
	"kickshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	CustomerName  string                `json:"customer_name" validate:"required,max=255"`
	PaymentMethod string                `json:"payment_method" validate:"required,max=100"`
	Items         []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CheckoutItemRequest is one requested cart line
type CheckoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,gte=1"`
}

// CheckoutResponse wraps the committed transaction
type CheckoutResponse struct {
	Message string              `json:"message"`
	Data    *domain.Transaction `json:"data"`
}

// TransactionHandler handles HTTP requests for transactions and checkout
type TransactionHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(checkoutService service.CheckoutService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers transaction and checkout routes. The checkout
// route takes an optional middleware chain (rate limiting).
func (h *TransactionHandler) RegisterRoutes(r chi.Router, checkoutMiddleware ...func(http.Handler) http.Handler) {
	r.Route("/api/transactions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	r.Group(func(r chi.Router) {
		r.Use(checkoutMiddleware...)
		r.Post("/api/checkout", h.Checkout)
	})
}

// Checkout handles the checkout operation
func (h *TransactionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]domain.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
			return
		}
		lines = append(lines, domain.CartLine{ProductID: productID, Qty: item.Qty})
	}

	transaction, err := h.checkoutService.Checkout(r.Context(), req.CustomerName, req.PaymentMethod, lines)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CheckoutResponse{
		Message: "Checkout successful.",
		Data:    transaction,
	})
}

// List handles listing all transactions
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.checkoutService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, transactions)
}

// Get handles fetching one transaction
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	transaction, err := h.checkoutService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, transaction)
}

// Update rejects every call: transactions are immutable once committed.
// The rejection does not depend on whether the id exists.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	err := h.checkoutService.Update(r.Context(), id)
	h.respondUnsupported(w, err, "updating transactions is not supported")
}

// Delete rejects every call: transactions are immutable once committed.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	err := h.checkoutService.Delete(r.Context(), id)
	h.respondUnsupported(w, err, "deleting transactions is not supported")
}

func (h *TransactionHandler) respondUnsupported(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, service.ErrUnsupportedOperation) {
		middleware.RespondWithError(w, http.StatusMethodNotAllowed, message)
		return
	}
	h.logger.Error("Unexpected transaction mutation outcome", zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

func (h *TransactionHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var stockErr *service.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: validationErr.Field, Message: validationErr.Message},
		})
	case errors.As(err, &stockErr):
		middleware.RespondWithErrorDetails(w, http.StatusUnprocessableEntity, stockErr.Error(), map[string]interface{}{
			"product_id": stockErr.ProductID.String(),
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	default:
		h.logger.Error("Checkout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "checkout failed")
	}
}
