package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/identity-sync/identity-sync/internal/db/models"
)

// MembershipRepository handles membership database operations
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Get retrieves the membership for a (user, organization) pair
func (r *MembershipRepository) Get(ctx context.Context, userID, orgID string) (*models.Membership, error) {
	query := `
		SELECT id, user_id, organization_id, role, created_at, updated_at
		FROM organization_memberships
		WHERE user_id = $1 AND organization_id = $2
	`

	var m models.Membership
	err := r.db.GetContext(ctx, &m, query, userID, orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert creates or updates the membership for a (user, organization) pair,
// setting the role. The uniqueness constraint on (user_id, organization_id) is
// the conflict target, so replayed or concurrent webhook deliveries converge
// on a single row.
func (r *MembershipRepository) Upsert(ctx context.Context, userID, orgID, role string) error {
	now := time.Now()
	query := `
		INSERT INTO organization_memberships (id, user_id, organization_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, organization_id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), userID, orgID, role, now)
	return err
}

// Delete removes the membership for a (user, organization) pair. Deleting a
// membership that does not exist is not an error.
func (r *MembershipRepository) Delete(ctx context.Context, userID, orgID string) error {
	query := `DELETE FROM organization_memberships WHERE user_id = $1 AND organization_id = $2`
	_, err := r.db.ExecContext(ctx, query, userID, orgID)
	return err
}

// userOrganizationRow is the flat join row behind ListUserOrganizations.
type userOrganizationRow struct {
	ID        string    `db:"id"`
	ClerkID   *string   `db:"clerk_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Role      string    `db:"role"`
}

// ListUserOrganizations returns every organization the user belongs to,
// combined with the user's role in each, ordered by membership age.
func (r *MembershipRepository) ListUserOrganizations(ctx context.Context, userID string) ([]models.OrganizationWithRole, error) {
	query := `
		SELECT o.id, o.clerk_id, o.name, o.created_at, o.updated_at, m.role
		FROM organization_memberships m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1
		ORDER BY m.created_at
	`

	var rows []userOrganizationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	orgs := make([]models.OrganizationWithRole, 0, len(rows))
	for _, row := range rows {
		orgs = append(orgs, models.NewOrganizationWithRole(models.Organization{
			ID:        row.ID,
			ClerkID:   row.ClerkID,
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}, row.Role))
	}
	return orgs, nil
}
