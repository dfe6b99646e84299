package clerk

import (
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
)

// ErrSignatureInvalid is returned when a delivery fails Svix signature
// verification for any reason: bad signature, missing headers, or a
// timestamp outside the tolerance window.
var ErrSignatureInvalid = errors.New("webhook signature invalid")

// Verifier checks the Svix signature headers Clerk attaches to every
// webhook delivery.
type Verifier struct {
	wh *svix.Webhook
}

// NewVerifier builds a Verifier from the signing secret shown in the Clerk
// dashboard (whsec_ prefixed).
func NewVerifier(signingSecret string) (*Verifier, error) {
	wh, err := svix.NewWebhook(signingSecret)
	if err != nil {
		return nil, fmt.Errorf("parsing webhook signing secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

// Verify checks the raw payload against the svix-id, svix-timestamp and
// svix-signature headers. Verification must run on the exact bytes received,
// before any JSON decoding.
func (v *Verifier) Verify(payload []byte, headers http.Header) error {
	if err := v.wh.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return nil
}
