package domain

import "time"

// Role is one of the three static roles a user may hold.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID                string
	Username          string
	Email             string
	PasswordHash      string
	Role              Role
	EmailVerified     bool
	VerificationToken *string
	// AssignedBlogID is derived from the blog side of the assignment and is
	// never written directly.
	AssignedBlogID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// MarkEmailVerified flips the account to verified and drops the pending token.
func (u *User) MarkEmailVerified() {
	u.EmailVerified = true
	u.VerificationToken = nil
}

// VerificationConsistent reports whether the verified flag and the pending
// token agree: unverified accounts carry a token, verified ones never do.
func (u *User) VerificationConsistent() bool {
	return u.EmailVerified == (u.VerificationToken == nil)
}
