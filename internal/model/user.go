package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// User represents an application account as stored in the `users` table.
// PasswordHash is a bcrypt digest and never leaves the server.
type User struct {
	ID           uint64    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user may use back-office endpoints.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// ValidRole reports whether r is a known role name.
func ValidRole(r string) bool { return r == RoleAdmin || r == RoleCustomer }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hex digest of the raw token is stored.
type RefreshToken struct {
	ID        uint64     `db:"id"`
	UserID    uint64     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}
