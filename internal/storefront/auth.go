package storefront

import (
	"context"
	"log/slog"

	"storefront/internal/backend"
	"storefront/internal/model"
)

const minCredentialLength = 6

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return model.NewCredentialsError("Username is a required field")
	case len(username) < minCredentialLength:
		return model.NewCredentialsError("Username must be at least 6 characters")
	case password == "":
		return model.NewCredentialsError("Password is a required field")
	case len(password) < minCredentialLength:
		return model.NewCredentialsError("Password must be at least 6 characters")
	}
	return nil
}

// Login checks the form locally, exchanges credentials for a token and
// stores token, username and balance in the session.
func (s *Shop) Login(ctx context.Context, username, password string) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}

	res, err := s.backend.Login(ctx, &backend.Credentials{Username: username, Password: password})
	if err != nil {
		s.logger.Warn("login failed", slog.String("username", username), slog.String("error", err.Error()))
		return err
	}
	if err := s.Session.Begin(res.Token, res.Username, res.Balance); err != nil {
		return model.NewInternalError(err)
	}

	s.logger.Info("logged in", slog.String("username", res.Username), slog.Int64("balance", res.Balance))
	return nil
}

// Register creates an account. The shopper still has to log in.
func (s *Shop) Register(ctx context.Context, username, password, confirm string) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	if password != confirm {
		return model.NewCredentialsError("Passwords do not match")
	}

	if err := s.backend.Register(ctx, &backend.Credentials{Username: username, Password: password}); err != nil {
		s.logger.Warn("register failed", slog.String("username", username), slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("registered", slog.String("username", username))
	return nil
}

// Logout clears the session and every per-session snapshot.
func (s *Shop) Logout() error {
	s.debouncer.Cancel()
	s.Cart.Reset()
	s.Addresses.Reset()
	if err := s.Session.End(); err != nil {
		return model.NewInternalError(err)
	}
	s.logger.Info("logged out")
	return nil
}
