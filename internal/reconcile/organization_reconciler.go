package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/identity-sync/identity-sync/internal/clerk"
	"github.com/identity-sync/identity-sync/internal/db/models"
)

// OrganizationReconciler applies organization.* and organizationMembership.*
// events.
type OrganizationReconciler struct {
	users       UserStore
	orgs        OrganizationStore
	memberships MembershipStore
}

// NewOrganizationReconciler creates a new OrganizationReconciler
func NewOrganizationReconciler(users UserStore, orgs OrganizationStore, memberships MembershipStore) *OrganizationReconciler {
	return &OrganizationReconciler{
		users:       users,
		orgs:        orgs,
		memberships: memberships,
	}
}

// Apply routes an organization or membership event to the matching operation.
func (r *OrganizationReconciler) Apply(ctx context.Context, env *clerk.Envelope) (Outcome, error) {
	switch env.Type {
	case clerk.OrganizationCreated, clerk.OrganizationUpdated:
		data, err := env.OrganizationData()
		if err != nil {
			return OutcomeSkipped, err
		}
		return r.upsertOrganization(ctx, data)
	case clerk.OrganizationDeleted:
		data, err := env.OrganizationData()
		if err != nil {
			return OutcomeSkipped, err
		}
		return r.deleteOrganization(ctx, data.ID)
	case clerk.MembershipCreated, clerk.MembershipUpdated:
		data, err := env.MembershipData()
		if err != nil {
			return OutcomeSkipped, err
		}
		return r.upsertMembership(ctx, data)
	case clerk.MembershipDeleted:
		data, err := env.MembershipData()
		if err != nil {
			return OutcomeSkipped, err
		}
		return r.deleteMembership(ctx, data)
	default:
		return OutcomeSkipped, fmt.Errorf("organization reconciler cannot handle %s", env.Type)
	}
}

func (r *OrganizationReconciler) upsertOrganization(ctx context.Context, data *clerk.OrganizationData) (Outcome, error) {
	org, err := r.orgs.GetByClerkID(ctx, data.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("looking up organization: %w", err)
	}
	if org != nil {
		org.Name = data.Name
		if err := r.orgs.Update(ctx, org); err != nil {
			return OutcomeSkipped, fmt.Errorf("updating organization %s: %w", org.ID, err)
		}
		return OutcomeApplied, nil
	}

	clerkID := data.ID
	org = &models.Organization{
		ClerkID: &clerkID,
		Name:    data.Name,
	}
	if err := r.orgs.Create(ctx, org); err != nil {
		return OutcomeSkipped, fmt.Errorf("creating organization for %s: %w", data.ID, err)
	}
	return OutcomeApplied, nil
}

func (r *OrganizationReconciler) deleteOrganization(ctx context.Context, clerkID string) (Outcome, error) {
	org, err := r.orgs.GetByClerkID(ctx, clerkID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("looking up organization: %w", err)
	}
	if org == nil {
		return OutcomeSkipped, nil
	}
	if err := r.orgs.Delete(ctx, org.ID); err != nil {
		return OutcomeSkipped, fmt.Errorf("deleting organization %s: %w", org.ID, err)
	}
	return OutcomeApplied, nil
}

// resolveMembershipParents looks up the local user and organization a
// membership event references. Either being unknown makes the event
// unapplicable here: the parent's own create event will arrive (or already
// failed) on its own delivery, and Clerk redelivers memberships
// independently.
func (r *OrganizationReconciler) resolveMembershipParents(ctx context.Context, data *clerk.MembershipData) (*models.User, *models.Organization, error) {
	user, err := r.users.GetByClerkID(ctx, data.PublicUserData.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up membership user: %w", err)
	}
	org, err := r.orgs.GetByClerkID(ctx, data.Organization.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up membership organization: %w", err)
	}
	return user, org, nil
}

func (r *OrganizationReconciler) upsertMembership(ctx context.Context, data *clerk.MembershipData) (Outcome, error) {
	user, org, err := r.resolveMembershipParents(ctx, data)
	if err != nil {
		return OutcomeSkipped, err
	}
	if user == nil || org == nil {
		slog.Warn("membership event references unknown parent, skipping",
			"clerk_user_id", data.PublicUserData.UserID,
			"clerk_org_id", data.Organization.ID)
		return OutcomeSkipped, nil
	}

	if err := r.memberships.Upsert(ctx, user.ID, org.ID, data.Role); err != nil {
		return OutcomeSkipped, fmt.Errorf("upserting membership: %w", err)
	}
	return OutcomeApplied, nil
}

func (r *OrganizationReconciler) deleteMembership(ctx context.Context, data *clerk.MembershipData) (Outcome, error) {
	user, org, err := r.resolveMembershipParents(ctx, data)
	if err != nil {
		return OutcomeSkipped, err
	}
	if user == nil || org == nil {
		return OutcomeSkipped, nil
	}

	if err := r.memberships.Delete(ctx, user.ID, org.ID); err != nil {
		return OutcomeSkipped, fmt.Errorf("deleting membership: %w", err)
	}
	return OutcomeApplied, nil
}
