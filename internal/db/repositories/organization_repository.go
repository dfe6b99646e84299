package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/identity-sync/identity-sync/internal/db/models"
)

// OrganizationRepository handles organization database operations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const organizationColumns = "id, clerk_id, name, created_at, updated_at"

func scanOrganization(row *sql.Row) (*models.Organization, error) {
	org := &models.Organization{}
	err := row.Scan(
		&org.ID,
		&org.ClerkID,
		&org.Name,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetByID retrieves an organization by local ID
func (r *OrganizationRepository) GetByID(ctx context.Context, orgID string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	return scanOrganization(r.db.QueryRowContext(ctx, query, orgID))
}

// GetByClerkID retrieves an organization by the Clerk-assigned identifier
func (r *OrganizationRepository) GetByClerkID(ctx context.Context, clerkID string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE clerk_id = $1`
	return scanOrganization(r.db.QueryRowContext(ctx, query, clerkID))
}

// Create inserts a new organization. The local ID and timestamps are assigned here.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	org.ID = uuid.New().String()
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt

	query := `
		INSERT INTO organizations (id, clerk_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.ClerkID,
		org.Name,
		org.CreatedAt,
		org.UpdatedAt,
	)

	return err
}

// Update overwrites an organization's tracked fields
func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()

	query := `
		UPDATE organizations
		SET clerk_id = $2, name = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.ClerkID,
		org.Name,
		org.UpdatedAt,
	)

	return err
}

// Delete removes an organization (memberships cascade)
func (r *OrganizationRepository) Delete(ctx context.Context, orgID string) error {
	query := `DELETE FROM organizations WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, orgID)
	return err
}
