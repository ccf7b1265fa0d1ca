package application

import (
	"context"

	catalogdomain "github.com/brizzinck/tyutyun-shop/internal/catalog/domain"
	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

// Repository persists the order graph. CreateGraph runs the whole checkout
// write set in one transaction: stock reservation for every item, the order
// row, its items, shipping address, payment and the OrderPlaced outbox row.
// Any error leaves no observable state behind.
type Repository interface {
	CreateGraph(ctx context.Context, g domain.Graph) (domain.Graph, error)
	Get(ctx context.Context, id int64) (domain.Graph, error)
	MarkPaid(ctx context.Context, orderID int64) (domain.Graph, error)
	UpdateStatus(ctx context.Context, orderID int64, next domain.Status) (domain.Graph, error)
}

// Catalog is the read-only lookup used by checkout validation.
type Catalog interface {
	ProductWithStock(ctx context.Context, id int64) (catalogdomain.Product, invdomain.Stock, error)
}
