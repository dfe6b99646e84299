package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/identity-sync/identity-sync/internal/db/models"
)

var errDB = errors.New("db error")

var userCols = []string{"id", "clerk_id", "email", "first_name", "last_name", "created_at", "updated_at"}

func sampleUserRow() *sqlmock.Rows {
	clerkID := "user_2abc"
	return sqlmock.NewRows(userCols).
		AddRow("local-1", &clerkID, "alice@example.com", "Alice", "Smith", time.Now(), time.Now())
}

func emptyUserRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols)
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

// ---------------------------------------------------------------------------
// GetByClerkID
// ---------------------------------------------------------------------------

func TestUserGetByClerkID_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE clerk_id").
		WithArgs("user_2abc").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetByClerkID(context.Background(), "user_2abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %s, want alice@example.com", user.Email)
	}
	if !user.IsLinked() {
		t.Error("user from clerk_id lookup should be linked")
	}
}

func TestUserGetByClerkID_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE clerk_id").
		WithArgs("user_missing").
		WillReturnRows(emptyUserRow())

	user, err := repo.GetByClerkID(context.Background(), "user_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user for not found, got %v", user)
	}
}

func TestUserGetByClerkID_DBError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE clerk_id").
		WithArgs("user_2abc").
		WillReturnError(errDB)

	_, err := repo.GetByClerkID(context.Background(), "user_2abc")
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetByEmail
// ---------------------------------------------------------------------------

func TestUserGetByEmail_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnRows(emptyUserRow())

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %v", user)
	}
}

// ---------------------------------------------------------------------------
// Create / Update / Delete
// ---------------------------------------------------------------------------

func TestUserCreate_AssignsIDAndTimestamps(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), nil, "bob@example.com", "Bob", "Jones", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "bob@example.com", FirstName: "Bob", LastName: "Jones"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Error("Create did not assign a local ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create did not assign timestamps")
	}
}

func TestUserCreate_ConstraintViolation(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

	err := repo.Create(context.Background(), &models.User{Email: "dup@example.com"})
	if err == nil {
		t.Error("expected constraint violation error, got nil")
	}
}

func TestUserUpdate(t *testing.T) {
	repo, mock := newUserRepo(t)
	clerkID := "user_2abc"
	mock.ExpectExec("UPDATE users").
		WithArgs("local-1", &clerkID, "alice@example.com", "Alice", "Cooper", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{
		ID:        "local-1",
		ClerkID:   &clerkID,
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Cooper",
	}
	if err := repo.Update(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserDelete(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec("DELETE FROM users").
		WithArgs("local-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "local-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
