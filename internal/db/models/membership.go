// Package models - membership.go defines the membership join entity linking a
// user to an organization with a role. At most one row exists per
// (user, organization) pair, enforced by a database uniqueness constraint.
package models

import "time"

// Membership roles use Clerk's wire values.
const (
	RoleMember = "org:member"
	RoleAdmin  = "org:admin"
)

// Membership represents a user's membership in an organization
type Membership struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	OrganizationID string    `db:"organization_id"`
	Role           string    `db:"role"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ValidRole reports whether role is one of the recognised membership roles
func ValidRole(role string) bool {
	return role == RoleMember || role == RoleAdmin
}
