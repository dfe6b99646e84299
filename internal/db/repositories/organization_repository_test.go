package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/identity-sync/identity-sync/internal/db/models"
)

var orgCols = []string{"id", "clerk_id", "name", "created_at", "updated_at"}

func sampleOrgRow() *sqlmock.Rows {
	clerkID := "org_2xyz"
	return sqlmock.NewRows(orgCols).
		AddRow("org-local-1", &clerkID, "Acme", time.Now(), time.Now())
}

func newOrgRepo(t *testing.T) (*OrganizationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOrganizationRepository(db), mock
}

func TestOrgGetByClerkID_Found(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations WHERE clerk_id").
		WithArgs("org_2xyz").
		WillReturnRows(sampleOrgRow())

	org, err := repo.GetByClerkID(context.Background(), "org_2xyz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org == nil {
		t.Fatal("expected organization, got nil")
	}
	if org.Name != "Acme" {
		t.Errorf("Name = %s, want Acme", org.Name)
	}
}

func TestOrgGetByClerkID_NotFound(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations WHERE clerk_id").
		WithArgs("org_missing").
		WillReturnRows(sqlmock.NewRows(orgCols))

	org, err := repo.GetByClerkID(context.Background(), "org_missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org != nil {
		t.Errorf("expected nil organization, got %v", org)
	}
}

func TestOrgGetByClerkID_DBError(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations WHERE clerk_id").
		WithArgs("org_2xyz").
		WillReturnError(errDB)

	_, err := repo.GetByClerkID(context.Background(), "org_2xyz")
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestOrgCreate_AssignsIDAndTimestamps(t *testing.T) {
	repo, mock := newOrgRepo(t)
	clerkID := "org_2xyz"
	mock.ExpectExec("INSERT INTO organizations").
		WithArgs(sqlmock.AnyArg(), &clerkID, "Acme", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	org := &models.Organization{ClerkID: &clerkID, Name: "Acme"}
	if err := repo.Create(context.Background(), org); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org.ID == "" {
		t.Error("Create did not assign a local ID")
	}
}

func TestOrgUpdate(t *testing.T) {
	repo, mock := newOrgRepo(t)
	clerkID := "org_2xyz"
	mock.ExpectExec("UPDATE organizations").
		WithArgs("org-local-1", &clerkID, "Acme Renamed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	org := &models.Organization{ID: "org-local-1", ClerkID: &clerkID, Name: "Acme Renamed"}
	if err := repo.Update(context.Background(), org); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrgDelete(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectExec("DELETE FROM organizations").
		WithArgs("org-local-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "org-local-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
