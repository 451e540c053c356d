package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/directory"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Landing dashboards returned after login.
const (
	LandingTechnicianDashboard = "technician_dashboard"
	LandingUserDashboard       = "user_dashboard"
)

// Session is the outcome of a successful login.
type Session struct {
	Profile *Profile
	Token   *auth.IssuedToken
}

// Profile describes the caller and where the client should take them.
type Profile struct {
	User    *domain.User
	Groups  []string
	Role    lifecycle.Role
	Landing string
}

// AuthService coordinates login, logout and local account management.
type AuthService struct {
	store      repository.Store
	directory  directory.Provider
	tokenMgr   *auth.TokenManager
	revoker    auth.Revoker
	policy     lifecycle.Policy
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Store      repository.Store
	Directory  directory.Provider
	Tokens     *auth.TokenManager
	Revoker    auth.Revoker
	Policy     lifecycle.Policy
	BcryptCost int
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:      deps.Store,
		directory:  deps.Directory,
		tokenMgr:   deps.Tokens,
		revoker:    deps.Revoker,
		policy:     deps.Policy,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
	}
}

// Login authenticates against the directory, mirrors the account and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperrors.NewFieldErrors(map[string]string{"credentials": "username and password are required"})
	}
	entry, err := s.directory.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}

	user, groups, err := s.mirror(ctx, entry)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}

	token, err := s.tokenMgr.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("source", string(entry.Source)))
	return &Session{Profile: s.profile(&domain.Identity{User: user, Groups: groups}), Token: token}, nil
}

// mirror copies a directory entry into users and user_groups. Local entries
// already live there.
func (s *AuthService) mirror(ctx context.Context, entry *directory.Entry) (*domain.User, []string, error) {
	if entry.Source == domain.UserSourceLocal {
		repos := s.store.Repos()
		user, err := repos.Users.GetByUsername(ctx, entry.Username)
		if err != nil {
			return nil, nil, err
		}
		return user, entry.Groups, nil
	}

	user := &domain.User{
		Username: entry.Username,
		Name:     entry.Name,
		Email:    entry.Email,
		Source:   entry.Source,
		Active:   true,
	}
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Users.Upsert(ctx, user); err != nil {
			return err
		}
		return repos.Users.ReplaceGroups(ctx, user.ID, entry.Groups)
	})
	if err != nil {
		return nil, nil, err
	}
	return user, entry.Groups, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Me describes the authenticated caller.
func (s *AuthService) Me(id *domain.Identity) (*Profile, error) {
	if id.UserID() == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return s.profile(id), nil
}

func (s *AuthService) profile(id *domain.Identity) *Profile {
	role := s.policy.RoleOf(id)
	landing := LandingUserDashboard
	if role == lifecycle.RoleTechnician {
		landing = LandingTechnicianDashboard
	}
	groups := id.Groups
	if groups == nil {
		groups = []string{}
	}
	return &Profile{User: id.User, Groups: groups, Role: role, Landing: landing}
}

// LocalAccount describes a user created outside the corporate directory.
type LocalAccount struct {
	Username string
	Name     string
	Email    string
	Password string
	Groups   []string
}

// CreateLocalUser creates or resets a local account.
func (s *AuthService) CreateLocalUser(ctx context.Context, account LocalAccount) (*domain.User, error) {
	username := strings.TrimSpace(account.Username)
	if username == "" {
		return nil, apperrors.NewFieldErrors(map[string]string{"username": "username is required"})
	}
	if err := auth.ValidatePassword(account.Password); err != nil {
		return nil, apperrors.NewFieldErrors(map[string]string{"password": err.Error()})
	}
	hash, err := auth.HashPassword(account.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     username,
		Name:         strings.TrimSpace(account.Name),
		Email:        strings.TrimSpace(account.Email),
		PasswordHash: hash,
		Source:       domain.UserSourceLocal,
		Active:       true,
	}
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Users.Upsert(ctx, user); err != nil {
			return err
		}
		for _, group := range account.Groups {
			if err := repos.Users.AddGroup(ctx, user.ID, group); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// GrantGroup adds username to group.
func (s *AuthService) GrantGroup(ctx context.Context, username, group string) error {
	return s.changeGroup(ctx, username, group, true)
}

// RevokeGroup removes username from group.
func (s *AuthService) RevokeGroup(ctx context.Context, username, group string) error {
	return s.changeGroup(ctx, username, group, false)
}

func (s *AuthService) changeGroup(ctx context.Context, username, group string, add bool) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return apperrors.NewFieldErrors(map[string]string{"group": "group is required"})
	}
	repos := s.store.Repos()
	user, err := repos.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("user", map[string]any{"username": username})
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	if add {
		err = repos.Users.AddGroup(ctx, user.ID, group)
	} else {
		err = repos.Users.RemoveGroup(ctx, user.ID, group)
	}
	return apperrors.MapError(err)
}
