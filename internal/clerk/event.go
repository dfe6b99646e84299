// Package clerk defines the wire format of Clerk webhook deliveries and the
// signature verification applied to them. Payloads arrive as an envelope with
// a type discriminator and a type-specific data object; handlers decode the
// envelope first and the data lazily once the event kind is known.
package clerk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/identity-sync/identity-sync/internal/db/models"
)

// EventType identifies the kind of change a webhook delivery describes.
type EventType string

const (
	UserCreated EventType = "user.created"
	UserUpdated EventType = "user.updated"
	UserDeleted EventType = "user.deleted"

	OrganizationCreated EventType = "organization.created"
	OrganizationUpdated EventType = "organization.updated"
	OrganizationDeleted EventType = "organization.deleted"

	MembershipCreated EventType = "organizationMembership.created"
	MembershipUpdated EventType = "organizationMembership.updated"
	MembershipDeleted EventType = "organizationMembership.deleted"
)

var knownEventTypes = map[EventType]bool{
	UserCreated:         true,
	UserUpdated:         true,
	UserDeleted:         true,
	OrganizationCreated: true,
	OrganizationUpdated: true,
	OrganizationDeleted: true,
	MembershipCreated:   true,
	MembershipUpdated:   true,
	MembershipDeleted:   true,
}

// IsUserEvent reports whether the event concerns a user object rather than an
// organization or membership.
func (t EventType) IsUserEvent() bool {
	return strings.HasPrefix(string(t), "user.")
}

// ErrInvalidEnvelope is returned when a payload is not a well-formed Clerk
// event envelope or carries an event type this service does not know.
var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Envelope is the outer structure of every Clerk webhook delivery. Data is
// left raw; decode it with the payload type matching the event Type.
type Envelope struct {
	Object string          `json:"object"`
	Type   EventType       `json:"type"`
	Data   json.RawMessage `json:"data"`
}

// ParseEnvelope decodes a webhook body into an Envelope. Malformed JSON,
// missing data, and unrecognized event types all fail with ErrInvalidEnvelope.
func ParseEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if !knownEventTypes[env.Type] {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidEnvelope, env.Type)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data object", ErrInvalidEnvelope)
	}
	return &env, nil
}

// EmailAddress is one entry of a user's email address list.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// UserData is the data object of user.* events.
type UserData struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
}

// PrimaryEmail returns the address whose ID matches PrimaryEmailAddressID, or
// "" when the list has no such entry.
func (u *UserData) PrimaryEmail() string {
	for _, addr := range u.EmailAddresses {
		if addr.ID == u.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	return ""
}

// OrganizationData is the data object of organization.* events.
type OrganizationData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MembershipData is the data object of organizationMembership.* events. The
// user and organization are nested references carrying Clerk identifiers.
type MembershipData struct {
	Role         string `json:"role"`
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

// UserData decodes the envelope's data as a user payload.
func (e *Envelope) UserData() (*UserData, error) {
	var data UserData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &data, nil
}

// OrganizationData decodes the envelope's data as an organization payload.
func (e *Envelope) OrganizationData() (*OrganizationData, error) {
	var data OrganizationData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &data, nil
}

// MembershipData decodes the envelope's data as a membership payload.
// Deliveries without an explicit role default to the member role.
func (e *Envelope) MembershipData() (*MembershipData, error) {
	var data MembershipData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if data.Role == "" {
		data.Role = models.RoleMember
	}
	return &data, nil
}
