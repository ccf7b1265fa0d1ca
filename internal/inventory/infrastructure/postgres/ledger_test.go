package postgres

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
)

type fakeRow struct {
	val int
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int)) = r.val
	return nil
}

type fakeTx struct {
	row      fakeRow
	execSQL  []string
	execArgs [][]any
}

func (t *fakeTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return t.row
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execSQL = append(t.execSQL, sql)
	t.execArgs = append(t.execArgs, args)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func TestReserveDecrements(t *testing.T) {
	tx := &fakeTx{row: fakeRow{val: 5}}
	l := NewLedger(slog.Default(), nil)

	err := l.Reserve(context.Background(), tx, 7, domain.SizeM, 2)
	require.NoError(t, err)
	require.Len(t, tx.execSQL, 1)
	assert.Contains(t, tx.execSQL[0], "m=m-$1")
	assert.Equal(t, []any{2, int64(7)}, tx.execArgs[0])
}

func TestReserveInsufficientStockLeavesCounter(t *testing.T) {
	tx := &fakeTx{row: fakeRow{val: 1}}
	l := NewLedger(slog.Default(), nil)

	err := l.Reserve(context.Background(), tx, 7, domain.SizeS, 2)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, tx.execSQL, "no mutation on refusal")
}

func TestReserveUnknownSizeNeverTouchesStore(t *testing.T) {
	l := NewLedger(slog.Default(), nil)

	err := l.Reserve(context.Background(), nil, 7, domain.Size("XS"), 1)
	require.ErrorIs(t, err, domain.ErrUnknownSize)
}

func TestReserveMissingSizeGroup(t *testing.T) {
	tx := &fakeTx{row: fakeRow{err: pgx.ErrNoRows}}
	l := NewLedger(slog.Default(), nil)

	err := l.Reserve(context.Background(), tx, 404, domain.SizeL, 1)
	require.ErrorIs(t, err, domain.ErrNoSizeGroup)
	assert.Empty(t, tx.execSQL)
}

func TestReleaseAddsBack(t *testing.T) {
	tx := &fakeTx{}
	l := NewLedger(slog.Default(), nil)

	err := l.Release(context.Background(), tx, 7, domain.SizeXL, 3)
	require.NoError(t, err)
	require.Len(t, tx.execSQL, 1)
	assert.Contains(t, tx.execSQL[0], "xl=xl+$1")
}

func TestParseSize(t *testing.T) {
	for _, ok := range []string{"single", "S", "M", "L", "XL", "XXL"} {
		_, err := domain.ParseSize(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", "xs", "XS", "xxxl", "s"} {
		_, err := domain.ParseSize(bad)
		assert.ErrorIs(t, err, domain.ErrUnknownSize, bad)
	}
}
