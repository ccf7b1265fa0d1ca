package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brizzinck/tyutyun-shop/internal/user/domain"
)

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, phone_number, address, role, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, pending domain.PendingUser) (domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, address)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING `+userColumns,
		pending.Username, pending.Email, pending.PasswordHash,
		pending.FirstName, pending.LastName, pending.PhoneNumber, pending.Address)
	u, err := scanUser(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.User{}, fmt.Errorf("%s: %w", pending.Username, domain.ErrAlreadyRegistered)
	}
	return u, err
}

func (r *Repository) ByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, err
}

func (r *Repository) UpdateProfile(ctx context.Context, id int64, p domain.Profile) (domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET username=$2, email=$3, first_name=$4, last_name=$5, phone_number=$6, address=$7, updated_at=now()
		 WHERE id=$1
		 RETURNING `+userColumns,
		id, p.Username, p.Email, p.FirstName, p.LastName, p.PhoneNumber, p.Address)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.User{}, fmt.Errorf("%s: %w", p.Username, domain.ErrAlreadyRegistered)
	}
	return u, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.PhoneNumber, &u.Address, &u.Role,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}
