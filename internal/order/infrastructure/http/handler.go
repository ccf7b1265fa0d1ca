package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
	"github.com/brizzinck/tyutyun-shop/internal/order/application"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/capture", h.capture)
	r.Post("/orders/{id}/status", h.updateStatus)
}

type checkoutReq struct {
	UserID        *int64        `json:"user_id,omitempty"`
	Items         []checkoutRow `json:"items"`
	Shipping      shippingReq   `json:"shipping"`
	PaymentMethod string        `json:"payment_method"`
}

type checkoutRow struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type shippingReq struct {
	Address     string `json:"address"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	cart := make([]application.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		cart = append(cart, application.CartLine{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity})
	}

	details, err := h.service.Checkout(ctx, req.UserID, cart, application.ShippingInfo{
		Address:     req.Shipping.Address,
		FirstName:   req.Shipping.FirstName,
		LastName:    req.Shipping.LastName,
		PhoneNumber: req.Shipping.PhoneNumber,
		Email:       req.Shipping.Email,
	}, req.PaymentMethod)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(details)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	g, err := h.service.Order(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeGraph(w, http.StatusOK, g)
}

func (h *Handler) capture(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CapturePayment")
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	g, err := h.service.MarkPaid(ctx, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeGraph(w, http.StatusOK, g)
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	g, err := h.service.UpdateStatus(ctx, id, domain.Status(req.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeGraph(w, http.StatusOK, g)
}

type orderResp struct {
	ID            int64           `json:"id"`
	UserID        *int64          `json:"user_id,omitempty"`
	TotalCents    int64           `json:"total_cents"`
	Status        domain.Status   `json:"status"`
	OnlinePayment bool            `json:"online_payment"`
	Items         []orderItemResp `json:"items"`
	Shipping      shippingReq     `json:"shipping"`
	Payment       paymentResp     `json:"payment"`
}

type orderItemResp struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitCents   int64  `json:"unit_price_cents"`
	Size        string `json:"size"`
	LineTotal   int64  `json:"line_total"`
}

type paymentResp struct {
	Method      string               `json:"method"`
	Status      domain.PaymentStatus `json:"status"`
	AmountCents int64                `json:"amount_cents"`
}

func (h *Handler) writeGraph(w http.ResponseWriter, code int, g domain.Graph) {
	resp := orderResp{
		ID:            g.Order.ID,
		UserID:        g.Order.UserID,
		TotalCents:    g.Order.TotalCents,
		Status:        g.Order.Status,
		OnlinePayment: g.Order.OnlinePayment,
		Shipping: shippingReq{
			Address:     g.Shipping.Address,
			FirstName:   g.Shipping.FirstName,
			LastName:    g.Shipping.LastName,
			PhoneNumber: g.Shipping.PhoneNumber,
			Email:       g.Shipping.Email,
		},
		Payment: paymentResp{
			Method:      g.Payment.Method,
			Status:      g.Payment.Status,
			AmountCents: g.Payment.AmountCents,
		},
	}
	for _, it := range g.Items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitCents:   it.UnitPriceCents,
			Size:        it.Size,
			LineTotal:   it.LineTotal(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, application.ErrEmptyCart),
		errors.Is(err, application.ErrInvalidQuantity),
		errors.Is(err, application.ErrUnknownProduct),
		errors.Is(err, invdomain.ErrUnknownSize):
		code = http.StatusBadRequest
	case errors.Is(err, invdomain.ErrInsufficientStock),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrAmountMismatch):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	}
	if code == http.StatusInternalServerError {
		h.log.Error("order request failed", "err", err)
		http.Error(w, "internal error", code)
		return
	}
	http.Error(w, err.Error(), code)
}
