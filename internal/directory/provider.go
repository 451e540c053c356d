// Package directory authenticates users against the corporate directory and
// the local account table.
package directory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	// ErrInvalidCredentials is returned when no provider accepts the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable is returned when a provider cannot be reached.
	ErrUnavailable = errors.New("directory unavailable")
)

// Entry is an authenticated directory record.
type Entry struct {
	Username string
	Name     string
	Email    string
	Groups   []string
	Source   domain.UserSource
}

// Provider authenticates a username and password.
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, username, password string) (*Entry, error)
}

// Chain tries providers in order and returns the first success. Providers
// that reject the credentials or are unreachable are skipped.
type Chain struct {
	providers []Provider
	logger    *zap.Logger
}

// NewChain builds a chain; nil providers are ignored.
func NewChain(logger *zap.Logger, providers ...Provider) *Chain {
	chain := &Chain{logger: logger}
	for _, p := range providers {
		if p != nil {
			chain.providers = append(chain.providers, p)
		}
	}
	return chain
}

func (c *Chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, ",")
}

func (c *Chain) Authenticate(ctx context.Context, username, password string) (*Entry, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	for _, p := range c.providers {
		entry, err := p.Authenticate(ctx, username, password)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			c.logger.Warn("directory provider failed",
				zap.String("provider", p.Name()),
				zap.String("username", username),
				zap.Error(err))
		}
	}
	return nil, ErrInvalidCredentials
}

// filterGroups drops excluded and duplicate group names.
func filterGroups(groups, except []string) []string {
	skip := make(map[string]struct{}, len(except))
	for _, g := range except {
		skip[strings.ToLower(g)] = struct{}{}
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, ok := skip[strings.ToLower(g)]; ok {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
