package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brizzinck/tyutyun-shop/internal/catalog/domain"
	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
)

var ErrInvalidProduct = errors.New("invalid product")

type Service struct {
	log   *slog.Logger
	repo  Repository
	stock StockReader
}

func NewService(log *slog.Logger, repo Repository, stock StockReader) *Service {
	return &Service{log: log, repo: repo, stock: stock}
}

func (s *Service) Product(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.Product(ctx, id)
}

// ProductWithStock resolves a product together with its size-group counters.
// Checkout validation uses it to reject unknown products before any
// transaction opens.
func (s *Service) ProductWithStock(ctx context.Context, id int64) (domain.Product, invdomain.Stock, error) {
	p, err := s.repo.Product(ctx, id)
	if err != nil {
		return domain.Product{}, invdomain.Stock{}, err
	}
	st, err := s.stock.Stock(ctx, id)
	if err != nil {
		return domain.Product{}, invdomain.Stock{}, err
	}
	return p, st, nil
}

func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	return s.repo.Products(ctx)
}

func (s *Service) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	return s.repo.ProductsByCategory(ctx, categoryID)
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product, stock invdomain.Stock) (domain.Product, error) {
	if p.Name == "" || p.PriceCents <= 0 {
		return domain.Product{}, fmt.Errorf("name and positive price required: %w", ErrInvalidProduct)
	}
	created, err := s.repo.CreateProduct(ctx, p, stock)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product created", "product_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.Name == "" || p.PriceCents <= 0 {
		return domain.Product{}, fmt.Errorf("name and positive price required: %w", ErrInvalidProduct)
	}
	return s.repo.UpdateProduct(ctx, p)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	if name == "" {
		return domain.Category{}, fmt.Errorf("category name required: %w", ErrInvalidProduct)
	}
	return s.repo.CreateCategory(ctx, name)
}
