package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/brizzinck/tyutyun-shop/internal/user/domain"
)

var ErrInvalidRegistration = errors.New("invalid registration")

// Registration is the raw signup input; the password only ever exists in
// memory here, everything stored or mailed carries the bcrypt hash.
type Registration struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
}

type Service struct {
	log     *slog.Logger
	repo    Repository
	tokens  TokenStore
	mailer  Mailer
	baseURL string
	ttl     time.Duration
}

func NewService(log *slog.Logger, repo Repository, tokens TokenStore, mailer Mailer, baseURL string, ttl time.Duration) *Service {
	return &Service{log: log, repo: repo, tokens: tokens, mailer: mailer, baseURL: baseURL, ttl: ttl}
}

// Register validates the signup, stashes it behind a one-shot token and
// mails the activation link. The users row is only created on activation.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	if reg.Username == "" || reg.Password == "" || !strings.Contains(reg.Email, "@") {
		return fmt.Errorf("username, email and password required: %w", ErrInvalidRegistration)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	payload, err := json.Marshal(domain.PendingUser{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PhoneNumber:  reg.PhoneNumber,
		Address:      reg.Address,
	})
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.tokens.Save(ctx, token, payload, s.ttl); err != nil {
		return fmt.Errorf("save registration token: %w", err)
	}

	link := fmt.Sprintf("%s/api/registration?token=%s", s.baseURL, token)
	if err := s.mailer.ActivationLink(ctx, reg.Email, link); err != nil {
		return fmt.Errorf("send activation mail: %w", err)
	}

	s.log.Info("registration pending", "username", reg.Username, "email", reg.Email)
	return nil
}

// Activate consumes the token and creates the account.
func (s *Service) Activate(ctx context.Context, token string) (domain.User, error) {
	payload, err := s.tokens.Take(ctx, token)
	if err != nil {
		return domain.User{}, err
	}

	var pending domain.PendingUser
	if err := json.Unmarshal(payload, &pending); err != nil {
		return domain.User{}, fmt.Errorf("decode pending user: %w", err)
	}

	u, err := s.repo.Create(ctx, pending)
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("account activated", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *Service) Profile(ctx context.Context, id int64) (domain.User, error) {
	return s.repo.ByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, p domain.Profile) (domain.User, error) {
	if p.Username == "" || !strings.Contains(p.Email, "@") {
		return domain.User{}, fmt.Errorf("username and email required: %w", ErrInvalidRegistration)
	}
	return s.repo.UpdateProfile(ctx, id, p)
}
