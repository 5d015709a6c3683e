package transport

import (
	"errors"
	"net/http"
	"strconv"

	"kickshop/internal/middleware"
	"kickshop/internal/repository"
	"kickshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecommendationHandler handles HTTP requests for product recommendations
type RecommendationHandler struct {
	recommendationService service.RecommendationService
	logger                *zap.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(recommendationService service.RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// RegisterRoutes registers the recommendation route
func (h *RecommendationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/recommendations", h.Recommend)
}

// Recommend dispatches on the product_id query parameter: absent means
// top-seller mode, present means brand-affinity mode.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var productID *uuid.UUID
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product_id")
			return
		}
		productID = &id
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	result, err := h.recommendationService.Recommend(r.Context(), productID, limit)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to compute recommendations", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to compute recommendations")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
