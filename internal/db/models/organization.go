// Package models - organization.go defines the Organization model mirroring a
// Clerk organization, plus the OrganizationWithRole read projection.
package models

import "time"

// Organization represents an organization mirrored from Clerk
type Organization struct {
	ID        string
	ClerkID   *string // Clerk organization identifier; nil for locally created orgs
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrganizationWithRole combines an organization's fields with one user's role
// in it. It is a presentation value, never persisted: the role belongs to the
// membership row, not to the organization itself.
type OrganizationWithRole struct {
	Organization
	Role string
}

// NewOrganizationWithRole builds the read projection for "organization as seen
// by a member with this role".
func NewOrganizationWithRole(org Organization, role string) OrganizationWithRole {
	return OrganizationWithRole{Organization: org, Role: role}
}
