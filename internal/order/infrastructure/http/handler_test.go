package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/brizzinck/tyutyun-shop/internal/catalog/domain"
	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
	"github.com/brizzinck/tyutyun-shop/internal/order/application"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

type stubRepo struct {
	err    error
	graphs map[int64]domain.Graph
	nextID int64
}

func (r *stubRepo) CreateGraph(_ context.Context, g domain.Graph) (domain.Graph, error) {
	if r.err != nil {
		return domain.Graph{}, r.err
	}
	r.nextID++
	g.Order.ID = r.nextID
	if r.graphs == nil {
		r.graphs = map[int64]domain.Graph{}
	}
	r.graphs[g.Order.ID] = g
	return g, nil
}

func (r *stubRepo) Get(_ context.Context, id int64) (domain.Graph, error) {
	g, ok := r.graphs[id]
	if !ok {
		return domain.Graph{}, domain.ErrNotFound
	}
	return g, nil
}

func (r *stubRepo) MarkPaid(_ context.Context, id int64) (domain.Graph, error) {
	g, ok := r.graphs[id]
	if !ok {
		return domain.Graph{}, domain.ErrNotFound
	}
	g.Order.Status = domain.StatusPaid
	g.Payment.Status = domain.PaymentCaptured
	return g, nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id int64, next domain.Status) (domain.Graph, error) {
	g, ok := r.graphs[id]
	if !ok {
		return domain.Graph{}, domain.ErrNotFound
	}
	g.Order.Status = next
	return g, nil
}

type stubCatalog struct{}

func (stubCatalog) ProductWithStock(_ context.Context, id int64) (catalogdomain.Product, invdomain.Stock, error) {
	if id != 1 {
		return catalogdomain.Product{}, invdomain.Stock{}, catalogdomain.ErrProductNotFound
	}
	return catalogdomain.Product{ID: 1, Name: "Hoodie", PriceCents: 1000}, invdomain.Stock{}, nil
}

func newTestServer(repo *stubRepo) *httptest.Server {
	svc := application.NewService(slog.Default(), repo, stubCatalog{})
	h := NewHandler(slog.Default(), svc)
	r := chi.NewRouter()
	h.Register(r)
	return httptest.NewServer(r)
}

const checkoutBody = `{
	"items": [{"product_id": 1, "size": "M", "quantity": 2}],
	"shipping": {"address": "Kyiv", "first_name": "Taras", "email": "taras@example.com"},
	"payment_method": "cod"
}`

func TestCheckoutEndpointCreatesOrder(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(checkoutBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCheckoutEndpointRejectsEmptyCart(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders", "application/json",
		strings.NewReader(`{"items": [], "shipping": {}, "payment_method": "cod"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutEndpointInsufficientStockConflicts(t *testing.T) {
	srv := newTestServer(&stubRepo{err: invdomain.ErrInsufficientStock})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(checkoutBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetOrderNotFound(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/orders/99")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
