package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
	invpg "github.com/brizzinck/tyutyun-shop/internal/inventory/infrastructure/postgres"
	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
)

// StockLedger is the only component allowed to touch size-group counters.
// Reserve and Release run against the repository's transaction, so the row
// lock lives exactly as long as the checkout transaction does.
type StockLedger interface {
	Reserve(ctx context.Context, tx invpg.Querier, productID int64, size invdomain.Size, qty int) error
	Release(ctx context.Context, tx invpg.Querier, productID int64, size invdomain.Size, qty int) error
}

type Repository struct {
	log    *slog.Logger
	pool   *pgxpool.Pool
	ledger StockLedger
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, ledger StockLedger) *Repository {
	return &Repository{log: log, pool: pool, ledger: ledger}
}

// CreateGraph runs the whole checkout write set in one transaction. Any
// error on any step rolls everything back: no partial orders, no partial
// stock decrements. The OrderPlaced outbox row commits atomically with the
// order, and the relay publishes it only after the commit is durable.
func (r *Repository) CreateGraph(ctx context.Context, g domain.Graph) (domain.Graph, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Graph{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, it := range g.Items {
		size, err := invdomain.ParseSize(it.Size)
		if err != nil {
			return domain.Graph{}, err
		}
		if err := r.ledger.Reserve(ctx, tx, it.ProductID, size, it.Quantity); err != nil {
			return domain.Graph{}, err
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, total_price, status, online_payment)
		 VALUES ($1,$2,$3,$4)
		 RETURNING id, created_at, updated_at`,
		g.Order.UserID, g.Order.TotalCents, g.Order.Status, g.Order.OnlinePayment,
	).Scan(&g.Order.ID, &g.Order.CreatedAt, &g.Order.UpdatedAt)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, it := range g.Items {
		batch.Queue(
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, price, size)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 RETURNING id`,
			g.Order.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPriceCents, it.Size)
	}
	br := tx.SendBatch(ctx, batch)
	for i := range g.Items {
		g.Items[i].OrderID = g.Order.ID
		if err := br.QueryRow().Scan(&g.Items[i].ID); err != nil {
			_ = br.Close()
			return domain.Graph{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return domain.Graph{}, fmt.Errorf("insert order items: %w", err)
	}

	g.Shipping.OrderID = g.Order.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO shipping_addresses (order_id, address, first_name, last_name, phone_number, email)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		g.Order.ID, g.Shipping.Address, g.Shipping.FirstName, g.Shipping.LastName,
		g.Shipping.PhoneNumber, g.Shipping.Email,
	).Scan(&g.Shipping.ID)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("insert shipping address: %w", err)
	}

	g.Payment.OrderID = g.Order.ID
	err = tx.QueryRow(ctx,
		`INSERT INTO payments (order_id, payment_method, payment_status, amount)
		 VALUES ($1,$2,$3,$4)
		 RETURNING id, payment_date`,
		g.Order.ID, g.Payment.Method, g.Payment.Status, g.Payment.AmountCents,
	).Scan(&g.Payment.ID, &g.Payment.CreatedAt)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("insert payment: %w", err)
	}

	payload, err := json.Marshal(domain.NewOrderDetails(g))
	if err != nil {
		return domain.Graph{}, fmt.Errorf("marshal order details: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		 VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", strconv.FormatInt(g.Order.ID, 10), domain.EventOrderPlaced, payload, traceparent(ctx))
	if err != nil {
		return domain.Graph{}, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Graph{}, fmt.Errorf("commit: %w", err)
	}
	return g, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Graph, error) {
	var g domain.Graph
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, total_price, status, online_payment, created_at, updated_at
		 FROM orders WHERE id=$1`, id,
	).Scan(&g.Order.ID, &g.Order.UserID, &g.Order.TotalCents, &g.Order.Status,
		&g.Order.OnlinePayment, &g.Order.CreatedAt, &g.Order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Graph{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Graph{}, err
	}

	// product_id nulls out when the referenced product is deleted.
	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(product_id, 0), product_name, quantity, price, size
		 FROM order_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return domain.Graph{}, err
	}
	defer rows.Close()
	for rows.Next() {
		it := domain.OrderItem{OrderID: id}
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPriceCents, &it.Size); err != nil {
			return domain.Graph{}, err
		}
		g.Items = append(g.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Graph{}, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT id, address, first_name, last_name, phone_number, email
		 FROM shipping_addresses WHERE order_id=$1`, id,
	).Scan(&g.Shipping.ID, &g.Shipping.Address, &g.Shipping.FirstName,
		&g.Shipping.LastName, &g.Shipping.PhoneNumber, &g.Shipping.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Graph{}, err
	}
	g.Shipping.OrderID = id

	err = r.pool.QueryRow(ctx,
		`SELECT id, payment_method, payment_status, amount, payment_date
		 FROM payments WHERE order_id=$1`, id,
	).Scan(&g.Payment.ID, &g.Payment.Method, &g.Payment.Status,
		&g.Payment.AmountCents, &g.Payment.CreatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Graph{}, err
	}
	g.Payment.OrderID = id

	return g, nil
}

// MarkPaid captures the payment. amount == total_price is checked under the
// order row lock, so a concurrent total mutation cannot slip past it.
func (r *Repository) MarkPaid(ctx context.Context, orderID int64) (domain.Graph, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Graph{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var status domain.Status
	var total int64
	err = tx.QueryRow(ctx,
		`SELECT status, total_price FROM orders WHERE id=$1 FOR UPDATE`, orderID,
	).Scan(&status, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Graph{}, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Graph{}, err
	}
	if !status.CanTransitionTo(domain.StatusPaid) {
		return domain.Graph{}, fmt.Errorf("order %d is %s: %w", orderID, status, domain.ErrIllegalTransition)
	}

	var amount int64
	err = tx.QueryRow(ctx,
		`SELECT amount FROM payments WHERE order_id=$1 AND payment_status=$2 FOR UPDATE`,
		orderID, domain.PaymentPending,
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Graph{}, fmt.Errorf("no pending payment for order %d: %w", orderID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Graph{}, err
	}
	if amount != total {
		return domain.Graph{}, fmt.Errorf("amount %d vs total %d: %w", amount, total, domain.ErrAmountMismatch)
	}

	if _, err = tx.Exec(ctx,
		`UPDATE payments SET payment_status=$2 WHERE order_id=$1`,
		orderID, domain.PaymentCaptured); err != nil {
		return domain.Graph{}, err
	}
	if _, err = tx.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		orderID, domain.StatusPaid); err != nil {
		return domain.Graph{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Graph{}, fmt.Errorf("commit: %w", err)
	}
	return r.Get(ctx, orderID)
}

// UpdateStatus applies a lifecycle transition under the order row lock.
// Cancellation restocks every item through the ledger in the same
// transaction.
func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, next domain.Status) (domain.Graph, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Graph{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Graph{}, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Graph{}, err
	}
	if !current.CanTransitionTo(next) {
		return domain.Graph{}, fmt.Errorf("order %d: %s -> %s: %w", orderID, current, next, domain.ErrIllegalTransition)
	}

	if next == domain.StatusCancelled {
		rows, err := tx.Query(ctx,
			`SELECT COALESCE(product_id, 0), quantity, size FROM order_items WHERE order_id=$1`, orderID)
		if err != nil {
			return domain.Graph{}, err
		}
		type line struct {
			productID int64
			qty       int
			size      string
		}
		var lines []line
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.productID, &l.qty, &l.size); err != nil {
				rows.Close()
				return domain.Graph{}, err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return domain.Graph{}, err
		}
		for _, l := range lines {
			if l.productID == 0 {
				// product deleted since purchase; nothing to restock
				continue
			}
			size, err := invdomain.ParseSize(l.size)
			if err != nil {
				return domain.Graph{}, err
			}
			if err := r.ledger.Release(ctx, tx, l.productID, size, l.qty); err != nil {
				return domain.Graph{}, err
			}
		}
	}

	if _, err = tx.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, next); err != nil {
		return domain.Graph{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Graph{}, fmt.Errorf("commit: %w", err)
	}
	return r.Get(ctx, orderID)
}

// traceparent snapshots the current trace context for the outbox row, so the
// relay can stitch the async dispatch onto the checkout trace.
func traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier["traceparent"]
}
