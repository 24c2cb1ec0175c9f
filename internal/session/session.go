// Package session carries the authenticated caller through the service
// layer. Handlers build a Session from the verified token and pass it
// explicitly; services never read ambient request state.
package session

import (
	"strings"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

const DefaultAdminDomain = "admin.com"

type Session struct {
	Email string
	Role  Role
}

func New(email string, role Role) Session {
	return Session{Email: NormalizeEmail(email), Role: role}
}

func (s Session) IsZero() bool {
	return s.Email == ""
}

// Owns reports whether the caller is the employee identified by email.
func (s Session) Owns(email string) bool {
	return s.Email != "" && s.Email == NormalizeEmail(email)
}

func (s Session) IsReviewer() bool {
	return s.Role == RoleAdmin
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleForEmail derives the role from the email domain. An empty adminDomain
// falls back to DefaultAdminDomain.
func RoleForEmail(email, adminDomain string) Role {
	if adminDomain == "" {
		adminDomain = DefaultAdminDomain
	}
	email = NormalizeEmail(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return RoleEmployee
	}
	if email[at+1:] == strings.ToLower(adminDomain) {
		return RoleAdmin
	}
	return RoleEmployee
}

// LocalPart returns the portion of the address before '@'.
func LocalPart(email string) string {
	email = NormalizeEmail(email)
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}
