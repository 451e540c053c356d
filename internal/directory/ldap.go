package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// LDAPProvider authenticates against Active Directory: a service account
// finds the user entry, a second bind checks the password, and group names
// come from the group search base (or memberOf when no base is set).
type LDAPProvider struct {
	cfg     config.DirectoryConfig
	timeout time.Duration
	dial    func() (ldapConn, error)
}

// ldapConn is the subset of *ldap.Conn the provider uses.
type ldapConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// NewLDAPProvider returns nil when LDAP is disabled.
func NewLDAPProvider(cfg config.DirectoryConfig) *LDAPProvider {
	if !cfg.LDAPEnabled || cfg.ServerURI == "" {
		return nil
	}
	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &LDAPProvider{cfg: cfg, timeout: timeout}
	p.dial = func() (ldapConn, error) {
		conn, err := ldap.DialURL(cfg.ServerURI, ldap.DialWithTLSConfig(&tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}))
		if err != nil {
			return nil, err
		}
		conn.SetTimeout(timeout)
		return conn, nil
	}
	return p
}

func (p *LDAPProvider) Name() string { return "ldap" }

func (p *LDAPProvider) Authenticate(ctx context.Context, username, password string) (*Entry, error) {
	if password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	if err := conn.Bind(p.cfg.BindDN, p.cfg.BindPassword); err != nil {
		return nil, fmt.Errorf("%w: service bind: %v", ErrUnavailable, err)
	}

	filter := strings.ReplaceAll(p.cfg.UserFilter, "%s", ldap.EscapeFilter(username))
	result, err := conn.Search(ldap.NewSearchRequest(
		p.cfg.UserSearchBase,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, int(p.timeout.Seconds()), false,
		filter,
		[]string{"dn", "sAMAccountName", "givenName", "sn", "displayName", "mail", "memberOf"},
		nil,
	))
	if err != nil {
		return nil, fmt.Errorf("user search: %w", err)
	}
	if len(result.Entries) != 1 {
		return nil, ErrInvalidCredentials
	}
	userEntry := result.Entries[0]

	if err := conn.Bind(userEntry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user bind: %w", err)
	}

	// Group lookups run as the service account again.
	if err := conn.Bind(p.cfg.BindDN, p.cfg.BindPassword); err != nil {
		return nil, fmt.Errorf("%w: service rebind: %v", ErrUnavailable, err)
	}
	groups, err := p.groups(conn, userEntry)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Username: username,
		Name:     displayName(userEntry),
		Email:    userEntry.GetAttributeValue("mail"),
		Groups:   filterGroups(groups, p.cfg.MirrorGroupsExcept),
		Source:   domain.UserSourceLDAP,
	}, nil
}

func (p *LDAPProvider) groups(conn ldapConn, user *ldap.Entry) ([]string, error) {
	if p.cfg.GroupSearchBase == "" {
		return groupsFromMemberOf(user.GetAttributeValues("memberOf")), nil
	}
	result, err := conn.Search(ldap.NewSearchRequest(
		p.cfg.GroupSearchBase,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, int(p.timeout.Seconds()), false,
		fmt.Sprintf("(&(objectClass=group)(member=%s))", ldap.EscapeFilter(user.DN)),
		[]string{"cn"},
		nil,
	))
	if err != nil {
		return nil, fmt.Errorf("group search: %w", err)
	}
	groups := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		groups = append(groups, entry.GetAttributeValue("cn"))
	}
	return groups, nil
}

// groupsFromMemberOf extracts the CN of each group DN.
func groupsFromMemberOf(dns []string) []string {
	groups := make([]string, 0, len(dns))
	for _, raw := range dns {
		dn, err := ldap.ParseDN(raw)
		if err != nil || len(dn.RDNs) == 0 {
			continue
		}
		for _, attr := range dn.RDNs[0].Attributes {
			if strings.EqualFold(attr.Type, "cn") {
				groups = append(groups, attr.Value)
				break
			}
		}
	}
	return groups
}

func displayName(entry *ldap.Entry) string {
	name := strings.TrimSpace(entry.GetAttributeValue("givenName") + " " + entry.GetAttributeValue("sn"))
	if name != "" {
		return name
	}
	if name = entry.GetAttributeValue("displayName"); name != "" {
		return name
	}
	return entry.GetAttributeValue("sAMAccountName")
}
