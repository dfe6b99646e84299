package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/identity-sync/identity-sync/internal/clerk"
	"github.com/identity-sync/identity-sync/internal/db/models"
)

// UserReconciler applies user.* events.
type UserReconciler struct {
	users UserStore
}

// NewUserReconciler creates a new UserReconciler
func NewUserReconciler(users UserStore) *UserReconciler {
	return &UserReconciler{users: users}
}

// Apply routes a user event to the matching operation.
func (r *UserReconciler) Apply(ctx context.Context, env *clerk.Envelope) (Outcome, error) {
	data, err := env.UserData()
	if err != nil {
		return OutcomeSkipped, err
	}

	switch env.Type {
	case clerk.UserCreated, clerk.UserUpdated:
		return r.upsert(ctx, data)
	case clerk.UserDeleted:
		return r.delete(ctx, data.ID)
	default:
		return OutcomeSkipped, fmt.Errorf("user reconciler cannot handle %s", env.Type)
	}
}

// upsert converges on the event's user state. Lookup runs in two tiers: the
// Clerk identifier first, then the primary email so that users provisioned
// locally before Clerk knew them get linked instead of duplicated. Email is
// written only at creation; later events never change it.
func (r *UserReconciler) upsert(ctx context.Context, data *clerk.UserData) (Outcome, error) {
	user, err := r.users.GetByClerkID(ctx, data.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("looking up user by clerk id: %w", err)
	}
	if user != nil {
		user.FirstName = data.FirstName
		user.LastName = data.LastName
		if err := r.users.Update(ctx, user); err != nil {
			return OutcomeSkipped, fmt.Errorf("updating user %s: %w", user.ID, err)
		}
		return OutcomeApplied, nil
	}

	email := data.PrimaryEmail()
	if email != "" {
		user, err = r.users.GetByEmail(ctx, email)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("looking up user by email: %w", err)
		}
		if user != nil {
			if user.IsLinked() && *user.ClerkID != data.ID {
				return OutcomeSkipped, fmt.Errorf("%w: email %s belongs to %s", ErrClerkIDConflict, email, *user.ClerkID)
			}
			clerkID := data.ID
			user.ClerkID = &clerkID
			user.FirstName = data.FirstName
			user.LastName = data.LastName
			if err := r.users.Update(ctx, user); err != nil {
				return OutcomeSkipped, fmt.Errorf("linking user %s: %w", user.ID, err)
			}
			slog.Info("linked pre-provisioned user to clerk identity",
				"user_id", user.ID,
				"clerk_id", data.ID)
			return OutcomeApplied, nil
		}
	}

	clerkID := data.ID
	user = &models.User{
		ClerkID:   &clerkID,
		Email:     email,
		FirstName: data.FirstName,
		LastName:  data.LastName,
	}
	if err := r.users.Create(ctx, user); err != nil {
		return OutcomeSkipped, fmt.Errorf("creating user for %s: %w", data.ID, err)
	}
	return OutcomeApplied, nil
}

// delete removes the user linked to the Clerk identifier. An unknown
// identifier is a no-op so replayed deletes stay idempotent.
func (r *UserReconciler) delete(ctx context.Context, clerkID string) (Outcome, error) {
	user, err := r.users.GetByClerkID(ctx, clerkID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("looking up user by clerk id: %w", err)
	}
	if user == nil {
		return OutcomeSkipped, nil
	}
	if err := r.users.Delete(ctx, user.ID); err != nil {
		return OutcomeSkipped, fmt.Errorf("deleting user %s: %w", user.ID, err)
	}
	return OutcomeApplied, nil
}
