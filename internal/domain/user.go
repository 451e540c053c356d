package domain

import "time"

// UserSource records which directory last authenticated the user.
type UserSource string

const (
	UserSourceLocal UserSource = "LOCAL"
	UserSourceLDAP  UserSource = "LDAP"
)

// User is a person known to the helpdesk, mirrored from a directory.
type User struct {
	ID           string
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Source       UserSource
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is an authenticated caller and its current group memberships.
type Identity struct {
	User   *User
	Groups []string
}

// UserID returns the caller id or empty when unauthenticated.
func (i *Identity) UserID() string {
	if i == nil || i.User == nil {
		return ""
	}
	return i.User.ID
}

// InGroup reports membership in group.
func (i *Identity) InGroup(group string) bool {
	if i == nil || group == "" {
		return false
	}
	for _, g := range i.Groups {
		if g == group {
			return true
		}
	}
	return false
}
