package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/directory"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/sqlite"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

type stubProvider struct {
	entry *directory.Entry
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Authenticate(_ context.Context, username, password string) (*directory.Entry, error) {
	if p.entry == nil || username != p.entry.Username || password != "correct horse" {
		return nil, directory.ErrInvalidCredentials
	}
	return p.entry, nil
}

func newAuthService(t *testing.T, store repository.Store, providers ...directory.Provider) (*AuthService, *auth.MemoryRevoker) {
	t.Helper()
	revoker := auth.NewMemoryRevoker()
	providers = append(providers, directory.NewLocalProvider(store.Repos().Users, 4))
	return NewAuthService(AuthDependencies{
		Store:      store,
		Directory:  directory.NewChain(zap.NewNop(), providers...),
		Tokens:     auth.NewTokenManager("test-secret", 5),
		Revoker:    revoker,
		Policy:     lifecycle.NewPolicy(testPolicyConfig),
		BcryptCost: 4,
	}), revoker
}

func TestLoginMirrorsDirectoryEntry(t *testing.T) {
	store := sqlite.NewTestStore(t)
	ctx := context.Background()
	svc, _ := newAuthService(t, store, stubProvider{entry: &directory.Entry{
		Username: "tiago",
		Name:     "Tiago Souza",
		Email:    "tiago@example.org",
		Groups:   []string{"CPD", "Financeiro"},
		Source:   domain.UserSourceLDAP,
	}})

	session, err := svc.Login(ctx, "tiago", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleTechnician, session.Profile.Role)
	assert.Equal(t, LandingTechnicianDashboard, session.Profile.Landing)
	assert.NotEmpty(t, session.Token.Token)

	user, err := store.Repos().Users.GetByUsername(ctx, "tiago")
	require.NoError(t, err)
	assert.Equal(t, "Tiago Souza", user.Name)
	assert.Equal(t, domain.UserSourceLDAP, user.Source)
	groups, err := store.Repos().Users.Groups(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CPD", "Financeiro"}, groups)

	tokens := auth.NewTokenManager("test-secret", 5)
	claims, err := tokens.ParseToken(session.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLoginReplacesMirroredGroups(t *testing.T) {
	store := sqlite.NewTestStore(t)
	ctx := context.Background()
	entry := &directory.Entry{Username: "rita", Groups: []string{"CPD"}, Source: domain.UserSourceLDAP}
	svc, _ := newAuthService(t, store, stubProvider{entry: entry})

	_, err := svc.Login(ctx, "rita", "correct horse")
	require.NoError(t, err)

	entry.Groups = []string{"Compras"}
	session, err := svc.Login(ctx, "rita", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleRequester, session.Profile.Role)
	assert.Equal(t, LandingUserDashboard, session.Profile.Landing)

	groups, err := store.Repos().Users.Groups(ctx, session.Profile.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Compras"}, groups)
}

func TestLoginFallsBackToLocalAccounts(t *testing.T) {
	store := sqlite.NewTestStore(t)
	ctx := context.Background()
	svc, _ := newAuthService(t, store, stubProvider{})

	_, err := svc.CreateLocalUser(ctx, LocalAccount{Username: "admin", Password: "short"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	user, err := svc.CreateLocalUser(ctx, LocalAccount{Username: "admin", Name: "Admin", Password: "s3cret-pass", Groups: []string{"CPD"}})
	require.NoError(t, err)

	session, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.Profile.User.ID)
	assert.Equal(t, lifecycle.RoleTechnician, session.Profile.Role)

	_, err = svc.Login(ctx, "admin", "wrong-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = svc.Login(ctx, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestGrantAndRevokeGroup(t *testing.T) {
	store := sqlite.NewTestStore(t)
	ctx := context.Background()
	svc, _ := newAuthService(t, store)

	user, err := svc.CreateLocalUser(ctx, LocalAccount{Username: "bia", Password: "long-enough"})
	require.NoError(t, err)

	require.NoError(t, svc.GrantGroup(ctx, "bia", "CPD"))
	require.NoError(t, svc.GrantGroup(ctx, "bia", "CPD"))
	groups, err := store.Repos().Users.Groups(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CPD"}, groups)

	require.NoError(t, svc.RevokeGroup(ctx, "bia", "CPD"))
	groups, err = store.Repos().Users.Groups(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)

	err = svc.GrantGroup(ctx, "nobody", "CPD")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestLogoutRevokesToken(t *testing.T) {
	store := sqlite.NewTestStore(t)
	ctx := context.Background()
	svc, revoker := newAuthService(t, store)

	_, err := svc.CreateLocalUser(ctx, LocalAccount{Username: "bia", Password: "long-enough"})
	require.NoError(t, err)
	session, err := svc.Login(ctx, "bia", "long-enough")
	require.NoError(t, err)

	claims, err := auth.NewTokenManager("test-secret", 5).ParseToken(session.Token.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err := revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMeRequiresIdentity(t *testing.T) {
	store := sqlite.NewTestStore(t)
	svc, _ := newAuthService(t, store)

	_, err := svc.Me(nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	profile, err := svc.Me(&domain.Identity{User: &domain.User{ID: "u1"}})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.RoleRequester, profile.Role)
	assert.Empty(t, profile.Groups)
}
