package directory

import (
	"context"
	"errors"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// LocalProvider checks bcrypt hashes stored on mirrored or CLI-created users.
// Hashes weaker than cost are upgraded after a successful login.
type LocalProvider struct {
	users repository.UserRepository
	cost  int
}

// NewLocalProvider builds the provider.
func NewLocalProvider(users repository.UserRepository, cost int) *LocalProvider {
	return &LocalProvider{users: users, cost: cost}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*Entry, error) {
	user, err := p.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if auth.NeedsRehash(user.PasswordHash, p.cost) {
		// A failed upgrade keeps the old hash; the login still succeeds.
		if hash, err := auth.HashPassword(password, p.cost); err == nil {
			_ = p.users.SetPassword(ctx, user.ID, hash)
		}
	}
	groups, err := p.users.Groups(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Groups:   groups,
		Source:   domain.UserSourceLocal,
	}, nil
}
