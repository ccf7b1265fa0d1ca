package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
)

// Querier is the subset of pgx satisfied by both pgx.Tx and *pgxpool.Pool.
// Reserve and Release take it explicitly so the caller's transaction owns
// the row lock until commit or rollback.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// sizeColumns is a fixed allowlist; size labels are never interpolated from
// user input without passing through it.
var sizeColumns = map[domain.Size]string{
	domain.SizeSingle: "single_size",
	domain.SizeS:      "s",
	domain.SizeM:      "m",
	domain.SizeL:      "l",
	domain.SizeXL:     "xl",
	domain.SizeXXL:    "xxl",
}

// Ledger mutates size-group counters. All mutation goes through an exclusive
// row lock on the product's product_sizes row, so concurrent reservations on
// one size group serialize in lock-acquisition order.
type Ledger struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewLedger(log *slog.Logger, pool *pgxpool.Pool) *Ledger {
	return &Ledger{log: log, pool: pool}
}

// Reserve checks and decrements one counter inside the caller's transaction.
// On domain.ErrInsufficientStock nothing is mutated; the enclosing
// transaction is expected to roll back either way it sees an error.
func (l *Ledger) Reserve(ctx context.Context, tx Querier, productID int64, size domain.Size, qty int) error {
	col, ok := sizeColumns[size]
	if !ok {
		return fmt.Errorf("size %q: %w", size, domain.ErrUnknownSize)
	}

	var have int
	err := tx.QueryRow(ctx,
		`SELECT `+col+` FROM product_sizes WHERE product_id=$1 FOR UPDATE`,
		productID,
	).Scan(&have)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNoSizeGroup)
	}
	if err != nil {
		return fmt.Errorf("lock size group: %w", err)
	}

	if have < qty {
		l.log.Warn("reservation refused",
			"product_id", productID, "size", size, "have", have, "want", qty)
		return fmt.Errorf("product %d size %s: have %d, want %d: %w",
			productID, size, have, qty, domain.ErrInsufficientStock)
	}

	_, err = tx.Exec(ctx,
		`UPDATE product_sizes SET `+col+`=`+col+`-$1, updated_at=now() WHERE product_id=$2`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

// Release adds units back, used when a cancelled order returns its items.
func (l *Ledger) Release(ctx context.Context, tx Querier, productID int64, size domain.Size, qty int) error {
	col, ok := sizeColumns[size]
	if !ok {
		return fmt.Errorf("size %q: %w", size, domain.ErrUnknownSize)
	}
	ct, err := tx.Exec(ctx,
		`UPDATE product_sizes SET `+col+`=`+col+`+$1, updated_at=now() WHERE product_id=$2`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNoSizeGroup)
	}
	return nil
}

// Stock reads the current counters without locking.
func (l *Ledger) Stock(ctx context.Context, productID int64) (domain.Stock, error) {
	counts := make(map[domain.Size]int, len(sizeColumns))
	var single, s, m, lg, xl, xxl int
	err := l.pool.QueryRow(ctx,
		`SELECT single_size, s, m, l, xl, xxl FROM product_sizes WHERE product_id=$1`,
		productID,
	).Scan(&single, &s, &m, &lg, &xl, &xxl)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Stock{}, fmt.Errorf("product %d: %w", productID, domain.ErrNoSizeGroup)
	}
	if err != nil {
		return domain.Stock{}, fmt.Errorf("read stock: %w", err)
	}
	counts[domain.SizeSingle] = single
	counts[domain.SizeS] = s
	counts[domain.SizeM] = m
	counts[domain.SizeL] = lg
	counts[domain.SizeXL] = xl
	counts[domain.SizeXXL] = xxl
	return domain.Stock{ProductID: productID, Counts: counts}, nil
}
