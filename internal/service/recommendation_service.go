package service

import (
	"context"
	"fmt"

	"kickshop/internal/config"
	"kickshop/internal/domain"
	"kickshop/internal/repository"

	"github.com/google/uuid"
)

const (
	ModeTopSeller      = "top_seller"
	ModeRuleBasedBrand = "rule_based_brand"

	maxRecommendationLimit = 100
)

// RecommendationResult is the read-only answer of the recommendation
// engine. BaseProduct and Brands are set in brand mode only.
type RecommendationResult struct {
	Mode        string            `json:"mode"`
	BaseProduct *domain.Product   `json:"base_product,omitempty"`
	Brands      []string          `json:"brands,omitempty"`
	Products    []*domain.Product `json:"data"`
	Limit       int               `json:"limit"`
}

// RecommendationService ranks products by a composite sales score. With no
// base product it returns the overall top sellers; given a base product it
// recommends within that product's configured brand set, falling back to
// top sellers when the base product has no brand.
//
// The score is sold_count plus the summed qty of the product's transaction
// items. Both terms track the same sales activity, so every sale counts
// twice; callers rely on this composite ordering.
type RecommendationService interface {
	Recommend(ctx context.Context, productID *uuid.UUID, limit int) (*RecommendationResult, error)
}

type recommendationService struct {
	productRepo repository.ProductRepository
	cfg         config.RecommendationConfig
}

// NewRecommendationService creates a new instance of RecommendationService.
// The brand rule table is injected here and never mutated.
func NewRecommendationService(productRepo repository.ProductRepository, cfg config.RecommendationConfig) RecommendationService {
	return &recommendationService{
		productRepo: productRepo,
		cfg:         cfg,
	}
}

// Recommend dispatches on the presence of productID; see the interface doc.
func (s *recommendationService) Recommend(ctx context.Context, productID *uuid.UUID, limit int) (*RecommendationResult, error) {
	if productID == nil {
		return s.topSeller(ctx, limit)
	}
	return s.ruleBasedByBrand(ctx, *productID, limit)
}

func (s *recommendationService) topSeller(ctx context.Context, limit int) (*RecommendationResult, error) {
	limit = clampLimit(limit, s.cfg.TopSellerLimit)

	products, err := s.productRepo.RankBySales(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank top sellers: %w", err)
	}

	return &RecommendationResult{
		Mode:     ModeTopSeller,
		Products: products,
		Limit:    limit,
	}, nil
}

func (s *recommendationService) ruleBasedByBrand(ctx context.Context, productID uuid.UUID, limit int) (*RecommendationResult, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	// A product without a brand has no affinity to rank by.
	if product.Brand == "" {
		return s.topSeller(ctx, limit)
	}

	brands, ok := s.cfg.BrandRules[product.Brand]
	if !ok {
		brands = []string{product.Brand}
	}

	limit = clampLimit(limit, s.cfg.RuleBasedLimit)

	products, err := s.productRepo.RankBySalesForBrands(ctx, brands, product.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank brand recommendations: %w", err)
	}

	return &RecommendationResult{
		Mode:        ModeRuleBasedBrand,
		BaseProduct: product,
		Brands:      brands,
		Products:    products,
		Limit:       limit,
	}, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > maxRecommendationLimit {
		limit = maxRecommendationLimit
	}
	return limit
}
