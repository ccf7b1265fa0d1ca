package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brizzinck/tyutyun-shop/internal/catalog/domain"
	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
)

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const productColumns = `id, name, description, price, category_id, size_id, primary_image_id, created_at, updated_at`

func (r *Repository) Product(ctx context.Context, id int64) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
	}
	return p, err
}

func (r *Repository) Products(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repository) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE category_id=$1 ORDER BY id`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// CreateProduct inserts the product together with its size-group row so a
// product never exists without stock counters.
func (r *Repository) CreateProduct(ctx context.Context, p domain.Product, stock invdomain.Stock) (domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Product{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO products (name, description, price, category_id, primary_image_id)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.PriceCents, p.CategoryID, p.PrimaryImageID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}

	var sizeID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO product_sizes (product_id, single_size, s, m, l, xl, xxl)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		p.ID,
		stock.Count(invdomain.SizeSingle), stock.Count(invdomain.SizeS),
		stock.Count(invdomain.SizeM), stock.Count(invdomain.SizeL),
		stock.Count(invdomain.SizeXL), stock.Count(invdomain.SizeXXL),
	).Scan(&sizeID)
	if err != nil {
		return domain.Product{}, err
	}

	if _, err = tx.Exec(ctx, `UPDATE products SET size_id=$1 WHERE id=$2`, sizeID, p.ID); err != nil {
		return domain.Product{}, err
	}
	p.SizeGroupID = &sizeID

	if err = tx.Commit(ctx); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE products
		 SET name=$2, description=$3, price=$4, category_id=$5, primary_image_id=$6, updated_at=now()
		 WHERE id=$1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.PriceCents, p.CategoryID, p.PrimaryImageID)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", p.ID, domain.ErrProductNotFound)
	}
	return updated, err
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
	}
	return nil
}

func (r *Repository) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at, updated_at`,
		name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Category{}, fmt.Errorf("category %q: %w", name, domain.ErrCategoryExists)
	}
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents,
		&p.CategoryID, &p.SizeGroupID, &p.PrimaryImageID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
