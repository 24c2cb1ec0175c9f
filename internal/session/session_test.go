package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleForEmail(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		domain string
		want   Role
	}{
		{"default admin domain", "boss@admin.com", "", RoleAdmin},
		{"case insensitive", "Boss@ADMIN.com", "admin.com", RoleAdmin},
		{"employee domain", "alice@corp.com", "admin.com", RoleEmployee},
		{"custom domain", "hr@hq.example.com", "hq.example.com", RoleAdmin},
		{"subdomain is not admin", "x@sub.admin.com", "admin.com", RoleEmployee},
		{"no at sign", "nobody", "admin.com", RoleEmployee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleForEmail(tt.email, tt.domain))
		})
	}
}

func TestSession_Owns(t *testing.T) {
	s := New(" Alice@Corp.com ", RoleEmployee)

	assert.Equal(t, "alice@corp.com", s.Email)
	assert.True(t, s.Owns("ALICE@corp.com"))
	assert.False(t, s.Owns("bob@corp.com"))
	assert.False(t, s.IsReviewer())
	assert.False(t, Session{}.Owns(""))
	assert.True(t, Session{}.IsZero())
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "boss", LocalPart("Boss@admin.com"))
	assert.Equal(t, "plain", LocalPart("plain"))
}
