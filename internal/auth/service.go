package auth

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/users"
	"log"
)

type Users interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	TouchLogin(ctx context.Context, dni string) error
}

type Service struct {
	Users  Users
	Tokens *Manager
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var errBadCredentials = apperr.Unauthorized("no active account found with the given credentials")

// Obtain checks email and password and issues a token pair.
func (s *Service) Obtain(ctx context.Context, cred Credentials) (Pair, error) {
	if cred.Email == "" || cred.Password == "" {
		return Pair{}, apperr.Invalid("email and password are required")
	}
	u, err := s.Users.GetByEmail(ctx, cred.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		return Pair{}, errBadCredentials
	}
	if err != nil {
		return Pair{}, err
	}
	if !users.CheckPassword(u.PasswordHash, cred.Password) {
		return Pair{}, errBadCredentials
	}
	if err := s.Users.TouchLogin(ctx, u.DNI); err != nil {
		log.Printf("auth: last_login for %s: %v", u.DNI, err)
	}
	return s.Tokens.Issue(u.DNI, u.IsAdmin())
}
