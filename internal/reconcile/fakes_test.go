package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/identity-sync/identity-sync/internal/clerk"
	"github.com/identity-sync/identity-sync/internal/db/models"
)

// In-memory stores backing the reconciler tests. They mirror the repository
// contracts: lookups return (nil, nil) on miss, creates assign local IDs.

type fakeUserStore struct {
	users map[string]*models.User // keyed by local ID
	err   error                   // when set, every call fails with it
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) GetByClerkID(_ context.Context, clerkID string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.ClerkID != nil && *u.ClerkID == clerkID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	user.ID = uuid.New().String()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[user.ID]; !ok {
		return fmt.Errorf("no user %s", user.ID)
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, userID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.users, userID)
	return nil
}

type fakeOrgStore struct {
	orgs map[string]*models.Organization
	err  error
}

func newFakeOrgStore() *fakeOrgStore {
	return &fakeOrgStore{orgs: make(map[string]*models.Organization)}
}

func (s *fakeOrgStore) GetByClerkID(_ context.Context, clerkID string) (*models.Organization, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, o := range s.orgs {
		if o.ClerkID != nil && *o.ClerkID == clerkID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeOrgStore) Create(_ context.Context, org *models.Organization) error {
	if s.err != nil {
		return s.err
	}
	org.ID = uuid.New().String()
	copied := *org
	s.orgs[org.ID] = &copied
	return nil
}

func (s *fakeOrgStore) Update(_ context.Context, org *models.Organization) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.orgs[org.ID]; !ok {
		return fmt.Errorf("no organization %s", org.ID)
	}
	copied := *org
	s.orgs[org.ID] = &copied
	return nil
}

func (s *fakeOrgStore) Delete(_ context.Context, orgID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.orgs, orgID)
	return nil
}

type membershipKey struct {
	userID string
	orgID  string
}

type fakeMembershipStore struct {
	roles map[membershipKey]string
	err   error
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{roles: make(map[membershipKey]string)}
}

func (s *fakeMembershipStore) Upsert(_ context.Context, userID, orgID, role string) error {
	if s.err != nil {
		return s.err
	}
	s.roles[membershipKey{userID, orgID}] = role
	return nil
}

func (s *fakeMembershipStore) Delete(_ context.Context, userID, orgID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.roles, membershipKey{userID, orgID})
	return nil
}

// ---------------------------------------------------------------------------
// Envelope builders
// ---------------------------------------------------------------------------

func userEvent(t *testing.T, typ, clerkID, first, last, email string) *clerk.Envelope {
	t.Helper()
	payload := fmt.Sprintf(`{
		"object": "event",
		"type": %q,
		"data": {
			"id": %q,
			"first_name": %q,
			"last_name": %q,
			"primary_email_address_id": "idn_1",
			"email_addresses": [{"id": "idn_1", "email_address": %q}]
		}
	}`, typ, clerkID, first, last, email)
	env, err := clerk.ParseEnvelope([]byte(payload))
	if err != nil {
		t.Fatalf("building user event: %v", err)
	}
	return env
}

func orgEvent(t *testing.T, typ, clerkID, name string) *clerk.Envelope {
	t.Helper()
	payload := fmt.Sprintf(`{
		"object": "event",
		"type": %q,
		"data": {"id": %q, "name": %q}
	}`, typ, clerkID, name)
	env, err := clerk.ParseEnvelope([]byte(payload))
	if err != nil {
		t.Fatalf("building organization event: %v", err)
	}
	return env
}

func membershipEvent(t *testing.T, typ, clerkUserID, clerkOrgID, role string) *clerk.Envelope {
	t.Helper()
	payload := fmt.Sprintf(`{
		"object": "event",
		"type": %q,
		"data": {
			"role": %q,
			"organization": {"id": %q},
			"public_user_data": {"user_id": %q}
		}
	}`, typ, role, clerkOrgID, clerkUserID)
	env, err := clerk.ParseEnvelope([]byte(payload))
	if err != nil {
		t.Fatalf("building membership event: %v", err)
	}
	return env
}
