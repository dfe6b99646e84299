// Package repositories implements the data access layer (repository pattern) for identity-sync.
// Each repository type encapsulates all database queries for a domain entity.
// Reconcilers and handlers never issue SQL directly — all database access goes through
// this layer, which makes query logic testable in isolation. Lookups that miss return
// (nil, nil), never an error: "not found" is an expected outcome during webhook
// reconciliation, not a fault.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/identity-sync/identity-sync/internal/db/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, clerk_id, email, first_name, last_name, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.ClerkID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by local ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetByClerkID retrieves a user by the Clerk-assigned identifier
func (r *UserRepository) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, clerkID))
}

// GetByEmail retrieves a user by email. Email is the fallback reconciliation
// key for accounts provisioned locally before being linked to Clerk.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Create inserts a new user. The local ID and timestamps are assigned here.
// Duplicate clerk_id or email surfaces as a constraint violation; callers rely
// on that to stay single-row under concurrent identical webhook deliveries.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (id, clerk_id, email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.ClerkID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// Update overwrites a user's tracked fields
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET clerk_id = $2, email = $3, first_name = $4, last_name = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.ClerkID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.UpdatedAt,
	)

	return err
}

// Delete removes a user (memberships cascade)
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
