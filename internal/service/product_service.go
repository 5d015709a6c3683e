package service

import (
	"context"
	"fmt"
	"time"

	"kickshop/internal/domain"
	"kickshop/internal/repository"

	"github.com/google/uuid"
)

const (
	maxNameLength     = 255
	maxImageURLLength = 2048
)

// CreateProductInput carries the client-writable fields of a new product.
// SoldCount is owned by the checkout path and is never accepted here.
type CreateProductInput struct {
	Name        string
	Brand       string
	Category    string
	Color       string
	SizeRange   string
	Price       float64
	Stock       int
	ImageURL    string
	Description string
}

// UpdateProductInput is a partial update: only non-nil fields are applied.
type UpdateProductInput struct {
	Name        *string
	Brand       *string
	Category    *string
	Color       *string
	SizeRange   *string
	Price       *float64
	Stock       *int
	ImageURL    *string
	Description *string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create validates the input and inserts a new product
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	if input.Price < 0 {
		return nil, &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if input.Stock < 0 {
		return nil, &ValidationError{Field: "stock", Message: "must not be negative"}
	}
	if len(input.ImageURL) > maxImageURLLength {
		return nil, &ValidationError{Field: "image_url", Message: "too long"}
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Brand:       input.Brand,
		Category:    input.Category,
		Color:       input.Color,
		SizeRange:   input.SizeRange,
		Price:       input.Price,
		Stock:       input.Stock,
		SoldCount:   0,
		ImageURL:    input.ImageURL,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// List returns all products, newest first
func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Get returns one product by id
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Update applies the supplied fields to an existing product. Fields left
// nil keep their current value; sold_count cannot be changed here.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := validateName(*input.Name); err != nil {
			return nil, err
		}
		product.Name = *input.Name
	}
	if input.Brand != nil {
		product.Brand = *input.Brand
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Color != nil {
		product.Color = *input.Color
	}
	if input.SizeRange != nil {
		product.SizeRange = *input.SizeRange
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, &ValidationError{Field: "price", Message: "must not be negative"}
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, &ValidationError{Field: "stock", Message: "must not be negative"}
		}
		product.Stock = *input.Stock
	}
	if input.ImageURL != nil {
		if len(*input.ImageURL) > maxImageURLLength {
			return nil, &ValidationError{Field: "image_url", Message: "too long"}
		}
		product.ImageURL = *input.ImageURL
	}
	if input.Description != nil {
		product.Description = *input.Description
	}

	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product by id
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

func validateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(name) > maxNameLength {
		return &ValidationError{Field: "name", Message: "too long"}
	}
	return nil
}
