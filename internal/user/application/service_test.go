package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/brizzinck/tyutyun-shop/internal/user/domain"
)

type fakeUserRepo struct {
	created []domain.PendingUser
	nextID  int64
}

func (r *fakeUserRepo) Create(_ context.Context, pending domain.PendingUser) (domain.User, error) {
	r.created = append(r.created, pending)
	r.nextID++
	return domain.User{
		ID:           r.nextID,
		Username:     pending.Username,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
	}, nil
}

func (r *fakeUserRepo) ByID(_ context.Context, id int64) (domain.User, error) {
	if id > r.nextID {
		return domain.User{}, domain.ErrNotFound
	}
	return domain.User{ID: id}, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id int64, p domain.Profile) (domain.User, error) {
	return domain.User{ID: id, Username: p.Username, Email: p.Email}, nil
}

type fakeTokens struct {
	store map[string][]byte
}

func (t *fakeTokens) Save(_ context.Context, token string, payload []byte, _ time.Duration) error {
	t.store[token] = payload
	return nil
}

func (t *fakeTokens) Take(_ context.Context, token string) ([]byte, error) {
	v, ok := t.store[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	delete(t.store, token)
	return v, nil
}

type fakeMailer struct {
	links []string
	err   error
}

func (m *fakeMailer) ActivationLink(_ context.Context, _, link string) error {
	if m.err != nil {
		return m.err
	}
	m.links = append(m.links, link)
	return nil
}

func newTestService() (*Service, *fakeUserRepo, *fakeTokens, *fakeMailer) {
	repo := &fakeUserRepo{}
	tokens := &fakeTokens{store: map[string][]byte{}}
	mailer := &fakeMailer{}
	svc := NewService(slog.Default(), repo, tokens, mailer, "http://127.0.0.1:8181", time.Hour)
	return svc, repo, tokens, mailer
}

var testReg = Registration{
	Username: "taras",
	Email:    "taras@example.com",
	Password: "secret123",
}

func TestRegisterStashesPendingUserAndMailsLink(t *testing.T) {
	svc, repo, tokens, mailer := newTestService()

	require.NoError(t, svc.Register(context.Background(), testReg))

	assert.Empty(t, repo.created, "no users row before activation")
	require.Len(t, tokens.store, 1)
	require.Len(t, mailer.links, 1)
	assert.Contains(t, mailer.links[0], "http://127.0.0.1:8181/api/registration?token=")

	for _, payload := range tokens.store {
		var pending domain.PendingUser
		require.NoError(t, json.Unmarshal(payload, &pending))
		assert.Equal(t, "taras", pending.Username)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(pending.PasswordHash), []byte("secret123")))
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc, _, tokens, _ := newTestService()

	for _, reg := range []Registration{
		{Email: "a@b.c", Password: "x"},
		{Username: "u", Password: "x", Email: "not-an-email"},
		{Username: "u", Email: "a@b.c"},
	} {
		err := svc.Register(context.Background(), reg)
		require.ErrorIs(t, err, ErrInvalidRegistration)
	}
	assert.Empty(t, tokens.store)
}

func TestRegisterFailsWhenMailUndeliverable(t *testing.T) {
	svc, repo, _, mailer := newTestService()
	mailer.err = errors.New("smtp down")

	err := svc.Register(context.Background(), testReg)
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestActivateCreatesAccountOnce(t *testing.T) {
	svc, repo, tokens, _ := newTestService()
	require.NoError(t, svc.Register(context.Background(), testReg))

	var token string
	for k := range tokens.store {
		token = k
	}

	u, err := svc.Activate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "taras", u.Username)
	require.Len(t, repo.created, 1)

	// activation tokens are one-shot
	_, err = svc.Activate(context.Background(), token)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestActivateUnknownToken(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Activate(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}
