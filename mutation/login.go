package mutation

import (
	"context"

	"github.com/goliatone/go-catalog-admin/auth"
)

// SessionStarter stores a freshly issued token. Starting a session purges cached queries.
type SessionStarter interface {
	Login(ctx context.Context, token string) error
}

// LoginRequest is the payload of the login coordinator.
type LoginRequest struct {
	Email    string
	Password string
}

// NewLogin builds the login coordinator: authenticate, then start the session.
func NewLogin(authenticator auth.Authenticator, sessions SessionStarter, opts ...Option) *Coordinator[LoginRequest, auth.Result] {
	run := func(ctx context.Context, req LoginRequest) (auth.Result, error) {
		res, err := authenticator.Authenticate(ctx, req.Email, req.Password)
		if err != nil {
			return auth.Result{}, err
		}
		if err := sessions.Login(ctx, res.Token); err != nil {
			return auth.Result{}, err
		}
		return res, nil
	}

	return New[LoginRequest, auth.Result]("login", run, opts...).
		FailureTitle("Login failed").
		Announce(func(res auth.Result) (string, string) {
			if res.Mock {
				return "Login successful", "Logged in with MOCK token (identity provider blocked)."
			}
			return "Login successful", "Token stored successfully."
		})
}
