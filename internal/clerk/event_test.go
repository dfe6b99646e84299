package clerk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope_UserCreated(t *testing.T) {
	payload := []byte(`{
		"object": "event",
		"type": "user.created",
		"data": {
			"id": "user_2abc",
			"first_name": "Alice",
			"last_name": "Smith",
			"primary_email_address_id": "idn_1",
			"email_addresses": [
				{"id": "idn_0", "email_address": "alice.old@example.com"},
				{"id": "idn_1", "email_address": "alice@example.com"}
			]
		}
	}`)

	env, err := ParseEnvelope(payload)
	require.NoError(t, err)
	assert.Equal(t, UserCreated, env.Type)
	assert.True(t, env.Type.IsUserEvent())

	data, err := env.UserData()
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", data.ID)
	assert.Equal(t, "alice@example.com", data.PrimaryEmail())
}

func TestParseEnvelope_Membership(t *testing.T) {
	payload := []byte(`{
		"object": "event",
		"type": "organizationMembership.created",
		"data": {
			"role": "org:admin",
			"organization": {"id": "org_2xyz"},
			"public_user_data": {"user_id": "user_2abc"}
		}
	}`)

	env, err := ParseEnvelope(payload)
	require.NoError(t, err)
	assert.False(t, env.Type.IsUserEvent())

	data, err := env.MembershipData()
	require.NoError(t, err)
	assert.Equal(t, "org:admin", data.Role)
	assert.Equal(t, "org_2xyz", data.Organization.ID)
	assert.Equal(t, "user_2abc", data.PublicUserData.UserID)
}

func TestParseEnvelope_MembershipRoleDefaults(t *testing.T) {
	payload := []byte(`{
		"object": "event",
		"type": "organizationMembership.updated",
		"data": {
			"organization": {"id": "org_2xyz"},
			"public_user_data": {"user_id": "user_2abc"}
		}
	}`)

	env, err := ParseEnvelope(payload)
	require.NoError(t, err)

	data, err := env.MembershipData()
	require.NoError(t, err)
	assert.Equal(t, "org:member", data.Role)
}

func TestParseEnvelope_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"malformed json":  []byte(`{"type": "user.created"`),
		"unknown type":    []byte(`{"object": "event", "type": "session.created", "data": {"id": "sess_1"}}`),
		"empty type":      []byte(`{"object": "event", "data": {"id": "user_2abc"}}`),
		"missing data":    []byte(`{"object": "event", "type": "user.created"}`),
		"non-object body": []byte(`"user.created"`),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEnvelope(payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEnvelope), "want ErrInvalidEnvelope, got %v", err)
		})
	}
}

func TestUserDataPrimaryEmail_NoMatch(t *testing.T) {
	data := &UserData{
		PrimaryEmailAddressID: "idn_9",
		EmailAddresses: []EmailAddress{
			{ID: "idn_1", EmailAddress: "alice@example.com"},
		},
	}
	assert.Empty(t, data.PrimaryEmail())
}
