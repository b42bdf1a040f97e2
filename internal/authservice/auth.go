package authservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

// NewAuthService creates the service. mb may be nil, in which case no
// account.created events are published.
func NewAuthService(accounts backend.Accounts, mb common.MessageProducer, logger *slog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		mb:       mb,
		logger:   logger,
	}
}

// CreateAccount registers a new user and logs them in with the same credentials.
// If the login fails the account is kept and the login error is returned.
func (s *AuthService) CreateAccount(ctx context.Context, email, password, name string) (*backend.Session, error) {
	v := common.NewValidator()
	validateEmail(v, email)
	validatePassword(v, password)
	validateName(v, name)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.accounts.Create(ctx, backend.NewID(), email, password, name)
	if err != nil {
		s.logger.Error("could not create account", slog.String("op", "create-account"), slog.String("error", err.Error()))
		return nil, err
	}

	session, err := s.accounts.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		s.logger.Error("account created but login failed", slog.String("op", "create-account"), slog.String("user_id", user.ID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("login after sign-up: %w", err)
	}

	s.publishAccountCreated(ctx, user)

	return session, nil
}

func (s *AuthService) publishAccountCreated(ctx context.Context, user *backend.User) {
	if s.mb == nil {
		return
	}

	msg, err := json.Marshal(common.AccountCreatedMessage{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		s.logger.Error("could not encode account.created", slog.String("error", err.Error()))
		return
	}

	err = s.mb.Publish(ctx, msg, common.AccountCreatedKey, common.AccountExchange)
	if err != nil {
		s.logger.Error("could not publish account.created", slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*backend.Session, error) {
	v := common.NewValidator()
	validateEmail(v, email)
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.accounts.CreateEmailPasswordSession(ctx, email, password)
}

// CurrentUser resolves the user owning secret. The returned error classifies
// as unauthorized when there is no valid session and as remote-unavailable
// when the backend could not be asked.
func (s *AuthService) CurrentUser(ctx context.Context, secret string) (*backend.User, error) {
	if secret == "" {
		return nil, fmt.Errorf("missing session: %w", common.ErrUnauthorized)
	}

	user, err := s.accounts.Get(ctx, secret)
	if err != nil {
		s.logger.Error("could not get current user", slog.String("op", "get-current-user"), slog.String("kind", common.KindOf(err).String()), slog.String("error", err.Error()))
		return nil, err
	}

	return user, nil
}

// Logout ends every session of the user owning secret.
func (s *AuthService) Logout(ctx context.Context, secret string) error {
	if secret == "" {
		return fmt.Errorf("missing session: %w", common.ErrUnauthorized)
	}

	err := s.accounts.DeleteSessions(ctx, secret)
	if err != nil {
		s.logger.Error("could not delete sessions", slog.String("op", "logout"), slog.String("kind", common.KindOf(err).String()), slog.String("error", err.Error()))
		return err
	}

	return nil
}
