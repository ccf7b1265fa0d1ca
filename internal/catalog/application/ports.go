package application

import (
	"context"

	"github.com/brizzinck/tyutyun-shop/internal/catalog/domain"
	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
)

type Repository interface {
	Product(ctx context.Context, id int64) (domain.Product, error)
	Products(ctx context.Context) ([]domain.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product, stock invdomain.Stock) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	Categories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
}

// StockReader is the inventory ledger's read side.
type StockReader interface {
	Stock(ctx context.Context, productID int64) (invdomain.Stock, error)
}
