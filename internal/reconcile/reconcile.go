// Package reconcile applies Clerk webhook events to the local identity store.
// Reconcilers are written to converge rather than to mirror a strict event
// order: replayed, reordered, or duplicated deliveries must leave the store
// in the same state as a single clean delivery stream.
package reconcile

import (
	"context"
	"errors"

	"github.com/identity-sync/identity-sync/internal/db/models"
)

// Outcome reports what a reconciler did with an event.
type Outcome string

const (
	// OutcomeApplied means the event changed (or confirmed) local state.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means the event referenced state this service does not
	// hold, and was dropped without error. Deletes of unknown entities and
	// memberships of unknown parents land here.
	OutcomeSkipped Outcome = "skipped"
)

// ErrClerkIDConflict is returned when an event's email resolves to a local
// user already linked to a different Clerk identifier. The delivery fails so
// the provider retries; the conflict needs operator attention.
var ErrClerkIDConflict = errors.New("user already linked to a different clerk id")

// UserStore is the subset of the user repository reconcilers need.
type UserStore interface {
	GetByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID string) error
}

// OrganizationStore is the subset of the organization repository reconcilers need.
type OrganizationStore interface {
	GetByClerkID(ctx context.Context, clerkID string) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, orgID string) error
}

// MembershipStore is the subset of the membership repository reconcilers need.
type MembershipStore interface {
	Upsert(ctx context.Context, userID, orgID, role string) error
	Delete(ctx context.Context, userID, orgID string) error
}
