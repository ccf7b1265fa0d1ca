package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	catalogdomain "github.com/brizzinck/tyutyun-shop/internal/catalog/domain"
	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

var (
	ErrEmptyCart       = errors.New("empty cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrUnknownProduct  = errors.New("unknown product")
)

// CartLine is one client-submitted (product, size, quantity) entry.
type CartLine struct {
	ProductID int64
	Size      string
	Quantity  int
}

// ShippingInfo is the checkout input for the shipping address row.
type ShippingInfo struct {
	Address     string
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
}

const methodOnline = "online"

type Service struct {
	log     *slog.Logger
	repo    Repository
	catalog Catalog
}

func NewService(log *slog.Logger, repo Repository, catalog Catalog) *Service {
	return &Service{log: log, repo: repo, catalog: catalog}
}

// Checkout converts a cart into a committed order graph with the matching
// stock decrements, or fails with no observable effect. Two identical calls
// produce two independent orders; there is no idempotency key.
func (s *Service) Checkout(ctx context.Context, userID *int64, cart []CartLine, shipping ShippingInfo, paymentMethod string) (domain.OrderDetails, error) {
	items, err := s.validate(ctx, cart)
	if err != nil {
		return domain.OrderDetails{}, err
	}

	g := domain.NewGraph(userID, items, domain.ShippingAddress{
		Address:     shipping.Address,
		FirstName:   shipping.FirstName,
		LastName:    shipping.LastName,
		PhoneNumber: shipping.PhoneNumber,
		Email:       shipping.Email,
	}, paymentMethod, paymentMethod == methodOnline)

	saved, err := s.repo.CreateGraph(ctx, g)
	if err != nil {
		return domain.OrderDetails{}, fmt.Errorf("checkout: %w", err)
	}

	s.log.Info("order placed",
		"order_id", saved.Order.ID,
		"total_cents", saved.Order.TotalCents,
		"items", len(saved.Items))
	return domain.NewOrderDetails(saved), nil
}

// validate rejects malformed carts before any transaction opens, so
// validation failures are free of side effects.
func (s *Service) validate(ctx context.Context, cart []CartLine) ([]domain.OrderItem, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart))
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrInvalidQuantity)
		}
		size, err := invdomain.ParseSize(line.Size)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, err)
		}

		p, _, err := s.catalog.ProductWithStock(ctx, line.ProductID)
		if errors.Is(err, catalogdomain.ErrProductNotFound) || errors.Is(err, invdomain.ErrNoSizeGroup) {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrUnknownProduct)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve product %d: %w", line.ProductID, err)
		}

		items = append(items, domain.OrderItem{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: p.PriceCents,
			Size:           string(size),
		})
	}
	return items, nil
}

func (s *Service) Order(ctx context.Context, id int64) (domain.Graph, error) {
	return s.repo.Get(ctx, id)
}

// MarkPaid captures the pending payment and moves the order to paid. The
// repository enforces payment.amount == order.total_price at capture time.
func (s *Service) MarkPaid(ctx context.Context, orderID int64) (domain.Graph, error) {
	g, err := s.repo.MarkPaid(ctx, orderID)
	if err != nil {
		return domain.Graph{}, err
	}
	s.log.Info("order paid", "order_id", orderID, "amount_cents", g.Payment.AmountCents)
	return g, nil
}

// UpdateStatus applies a validated lifecycle transition. Cancelling a
// pending or paid order returns its reserved units to stock in the same
// transaction.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, next domain.Status) (domain.Graph, error) {
	g, err := s.repo.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return domain.Graph{}, err
	}
	s.log.Info("order status changed", "order_id", orderID, "status", next)
	return g, nil
}
