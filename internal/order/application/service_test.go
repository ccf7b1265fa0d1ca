package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/brizzinck/tyutyun-shop/internal/catalog/domain"
	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

type fakeRepo struct {
	created []domain.Graph
	err     error
	nextID  int64
}

func (r *fakeRepo) CreateGraph(_ context.Context, g domain.Graph) (domain.Graph, error) {
	if r.err != nil {
		return domain.Graph{}, r.err
	}
	r.nextID++
	g.Order.ID = r.nextID
	r.created = append(r.created, g)
	return g, nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (domain.Graph, error) {
	for _, g := range r.created {
		if g.Order.ID == id {
			return g, nil
		}
	}
	return domain.Graph{}, domain.ErrNotFound
}

func (r *fakeRepo) MarkPaid(_ context.Context, id int64) (domain.Graph, error) {
	g, err := r.Get(context.Background(), id)
	if err != nil {
		return domain.Graph{}, err
	}
	g.Order.Status = domain.StatusPaid
	g.Payment.Status = domain.PaymentCaptured
	return g, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int64, next domain.Status) (domain.Graph, error) {
	g, err := r.Get(context.Background(), id)
	if err != nil {
		return domain.Graph{}, err
	}
	if !g.Order.Status.CanTransitionTo(next) {
		return domain.Graph{}, domain.ErrIllegalTransition
	}
	g.Order.Status = next
	return g, nil
}

type fakeCatalog struct {
	products map[int64]catalogdomain.Product
}

func (c *fakeCatalog) ProductWithStock(_ context.Context, id int64) (catalogdomain.Product, invdomain.Stock, error) {
	p, ok := c.products[id]
	if !ok {
		return catalogdomain.Product{}, invdomain.Stock{}, catalogdomain.ErrProductNotFound
	}
	return p, invdomain.Stock{ProductID: id}, nil
}

func newTestService() (*Service, *fakeRepo, *fakeCatalog) {
	repo := &fakeRepo{}
	cat := &fakeCatalog{products: map[int64]catalogdomain.Product{
		1: {ID: 1, Name: "Hoodie", PriceCents: 1000},
		2: {ID: 2, Name: "Cap", PriceCents: 500},
	}}
	return NewService(slog.Default(), repo, cat), repo, cat
}

var testShipping = ShippingInfo{
	Address: "Kyiv", FirstName: "Taras", LastName: "S",
	PhoneNumber: "+380000000000", Email: "taras@example.com",
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Checkout(context.Background(), nil, nil, testShipping, "cod")
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, repo.created)
}

func TestCheckoutNonPositiveQuantity(t *testing.T) {
	svc, repo, _ := newTestService()

	for _, qty := range []int{0, -1} {
		_, err := svc.Checkout(context.Background(), nil,
			[]CartLine{{ProductID: 1, Size: "M", Quantity: qty}}, testShipping, "cod")
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, repo.created)
}

func TestCheckoutUnknownProduct(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Checkout(context.Background(), nil,
		[]CartLine{{ProductID: 99, Size: "M", Quantity: 1}}, testShipping, "cod")
	require.ErrorIs(t, err, ErrUnknownProduct)
	assert.Empty(t, repo.created)
}

func TestCheckoutUnknownSize(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Checkout(context.Background(), nil,
		[]CartLine{{ProductID: 1, Size: "XS", Quantity: 1}}, testShipping, "cod")
	require.ErrorIs(t, err, invdomain.ErrUnknownSize)
	assert.Empty(t, repo.created)
}

func TestCheckoutBuildsConsistentGraph(t *testing.T) {
	svc, repo, _ := newTestService()

	details, err := svc.Checkout(context.Background(), nil, []CartLine{
		{ProductID: 1, Size: "M", Quantity: 2},
		{ProductID: 2, Size: "single", Quantity: 3},
	}, testShipping, "online")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	g := repo.created[0]
	assert.Equal(t, int64(3500), g.Order.TotalCents)
	assert.Equal(t, domain.StatusPending, g.Order.Status)
	assert.True(t, g.Order.OnlinePayment)
	assert.Equal(t, g.Order.TotalCents, g.Payment.AmountCents)
	assert.Equal(t, domain.PaymentPending, g.Payment.Status)
	assert.Equal(t, "taras@example.com", g.Shipping.Email)

	assert.Equal(t, int64(3500), details.TotalCents)
	require.Len(t, details.Items, 2)
	assert.Equal(t, int64(2000), details.Items[0].LineTotal)
	assert.Equal(t, int64(1500), details.Items[1].LineTotal)
}

func TestCheckoutInsufficientStockAbortsWhole(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = fmt.Errorf("product 1 size M: have 1, want 2: %w", invdomain.ErrInsufficientStock)

	_, err := svc.Checkout(context.Background(), nil,
		[]CartLine{{ProductID: 1, Size: "M", Quantity: 2}}, testShipping, "cod")
	require.ErrorIs(t, err, invdomain.ErrInsufficientStock)
	assert.Empty(t, repo.created)
}

func TestCheckoutPersistenceErrorSurfaces(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = errors.New("connection refused")

	_, err := svc.Checkout(context.Background(), nil,
		[]CartLine{{ProductID: 1, Size: "M", Quantity: 1}}, testShipping, "cod")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutIsNotIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	cart := []CartLine{{ProductID: 1, Size: "S", Quantity: 1}}

	first, err := svc.Checkout(context.Background(), nil, cart, testShipping, "cod")
	require.NoError(t, err)
	second, err := svc.Checkout(context.Background(), nil, cart, testShipping, "cod")
	require.NoError(t, err)

	// Same cart twice means two independent orders and two reservations.
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Len(t, repo.created, 2)
}

func TestMarkPaid(t *testing.T) {
	svc, _, _ := newTestService()

	details, err := svc.Checkout(context.Background(), nil,
		[]CartLine{{ProductID: 2, Size: "single", Quantity: 1}}, testShipping, "online")
	require.NoError(t, err)

	g, err := svc.MarkPaid(context.Background(), details.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, g.Order.Status)
	assert.Equal(t, domain.PaymentCaptured, g.Payment.Status)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	svc, _, _ := newTestService()

	details, err := svc.Checkout(context.Background(), nil,
		[]CartLine{{ProductID: 2, Size: "single", Quantity: 1}}, testShipping, "cod")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), details.OrderID, domain.StatusCompleted)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}
