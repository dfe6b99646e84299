// Package models - user.go defines the User model for locally mirrored Clerk
// accounts, keyed for reconciliation by the provider-assigned clerk_id with
// email as the fallback lookup key.
package models

import "time"

// User represents a user in the system
type User struct {
	ID        string
	ClerkID   *string // Clerk user identifier; nil until the account is linked
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLinked reports whether the user has been linked to a Clerk account
func (u *User) IsLinked() bool {
	return u.ClerkID != nil && *u.ClerkID != ""
}
