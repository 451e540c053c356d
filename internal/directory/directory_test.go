package directory

import (
	"context"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/sqlite"
)

type stubProvider struct {
	name  string
	entry *Entry
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Authenticate(context.Context, string, string) (*Entry, error) {
	s.calls++
	return s.entry, s.err
}

func TestChainFallsThrough(t *testing.T) {
	down := &stubProvider{name: "ldap", err: ErrUnavailable}
	reject := &stubProvider{name: "other", err: ErrInvalidCredentials}
	accept := &stubProvider{name: "local", entry: &Entry{Username: "alice"}}

	chain := NewChain(zap.NewNop(), down, nil, reject, accept)
	entry, err := chain.Authenticate(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, 1, down.calls)
	assert.Equal(t, 1, reject.calls)
	assert.Equal(t, "ldap,other,local", chain.Name())
}

func TestChainRejectsBlankCredentials(t *testing.T) {
	accept := &stubProvider{name: "local", entry: &Entry{Username: "alice"}}
	chain := NewChain(zap.NewNop(), accept)

	_, err := chain.Authenticate(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = chain.Authenticate(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Zero(t, accept.calls)
}

func TestLocalProvider(t *testing.T) {
	store := sqlite.NewTestStore(t)
	users := store.Repos().Users
	ctx := context.Background()

	hash, err := auth.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	user := &domain.User{Username: "carol", Name: "Carol", PasswordHash: hash, Source: domain.UserSourceLocal, Active: true}
	require.NoError(t, users.Upsert(ctx, user))
	require.NoError(t, users.AddGroup(ctx, user.ID, "CPD"))

	p := NewLocalProvider(users, 4)

	entry, err := p.Authenticate(ctx, "carol", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, []string{"CPD"}, entry.Groups)
	assert.Equal(t, domain.UserSourceLocal, entry.Source)

	_, err = p.Authenticate(ctx, "carol", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.Authenticate(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalProviderUpgradesWeakHash(t *testing.T) {
	store := sqlite.NewTestStore(t)
	users := store.Repos().Users
	ctx := context.Background()

	hash, err := auth.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	user := &domain.User{Username: "carol", PasswordHash: hash, Source: domain.UserSourceLocal, Active: true}
	require.NoError(t, users.Upsert(ctx, user))

	p := NewLocalProvider(users, 5)
	_, err = p.Authenticate(ctx, "carol", "s3cret-pass")
	require.NoError(t, err)

	stored, err := users.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash, 5))
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "s3cret-pass"))
}

type fakeLDAP struct {
	binds    [][2]string
	userPass string
	users    []*ldap.Entry
	groups   []*ldap.Entry
}

func (f *fakeLDAP) Bind(username, password string) error {
	f.binds = append(f.binds, [2]string{username, password})
	if username == "cn=svc" {
		return nil
	}
	if password == f.userPass {
		return nil
	}
	return ldap.NewError(ldap.LDAPResultInvalidCredentials, nil)
}

func (f *fakeLDAP) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	if req.BaseDN == "ou=groups" {
		return &ldap.SearchResult{Entries: f.groups}, nil
	}
	return &ldap.SearchResult{Entries: f.users}, nil
}

func (f *fakeLDAP) Close() error { return nil }

func TestLDAPProvider(t *testing.T) {
	cfg := config.DirectoryConfig{
		LDAPEnabled:        true,
		ServerURI:          "ldaps://dc.example.com",
		BindDN:             "cn=svc",
		BindPassword:       "svc-pass",
		UserSearchBase:     "ou=users",
		UserFilter:         "(sAMAccountName=%s)",
		GroupSearchBase:    "ou=groups",
		MirrorGroupsExcept: []string{"Domain Users"},
	}
	fake := &fakeLDAP{
		userPass: "pw",
		users: []*ldap.Entry{ldap.NewEntry("cn=Dave,ou=users", map[string][]string{
			"givenName": {"Dave"},
			"sn":        {"Jones"},
			"mail":      {"dave@example.com"},
		})},
		groups: []*ldap.Entry{
			ldap.NewEntry("cn=CPD,ou=groups", map[string][]string{"cn": {"CPD"}}),
			ldap.NewEntry("cn=Domain Users,ou=groups", map[string][]string{"cn": {"Domain Users"}}),
		},
	}
	p := NewLDAPProvider(cfg)
	require.NotNil(t, p)
	p.dial = func() (ldapConn, error) { return fake, nil }

	entry, err := p.Authenticate(context.Background(), "dave", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Dave Jones", entry.Name)
	assert.Equal(t, "dave@example.com", entry.Email)
	assert.Equal(t, []string{"CPD"}, entry.Groups)
	assert.Equal(t, domain.UserSourceLDAP, entry.Source)

	_, err = p.Authenticate(context.Background(), "dave", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	fake.users = nil
	_, err = p.Authenticate(context.Background(), "ghost", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewLDAPProviderDisabled(t *testing.T) {
	assert.Nil(t, NewLDAPProvider(config.DirectoryConfig{}))
}

func TestGroupsFromMemberOf(t *testing.T) {
	groups := groupsFromMemberOf([]string{
		"CN=CPD,OU=Groups,DC=example,DC=com",
		"not a dn",
		"CN=Diretoria,OU=Groups,DC=example,DC=com",
	})
	assert.Equal(t, []string{"CPD", "Diretoria"}, groups)
}

func TestFilterGroups(t *testing.T) {
	out := filterGroups([]string{"CPD", "users", "CPD", " ", "TI"}, []string{"Users"})
	assert.Equal(t, []string{"CPD", "TI"}, out)
}
