package application

import (
	"context"
	"time"

	"github.com/brizzinck/tyutyun-shop/internal/user/domain"
)

type Repository interface {
	Create(ctx context.Context, pending domain.PendingUser) (domain.User, error)
	ByID(ctx context.Context, id int64) (domain.User, error)
	UpdateProfile(ctx context.Context, id int64, p domain.Profile) (domain.User, error)
}

// TokenStore holds pending registrations behind one-shot activation tokens.
type TokenStore interface {
	Save(ctx context.Context, token string, payload []byte, ttl time.Duration) error
	// Take returns the payload and consumes the token; a second Take with
	// the same token fails.
	Take(ctx context.Context, token string) ([]byte, error)
}

// Mailer delivers the activation link. Unlike order notifications, a failure
// here fails registration: an account nobody can activate is useless.
type Mailer interface {
	ActivationLink(ctx context.Context, email, link string) error
}
