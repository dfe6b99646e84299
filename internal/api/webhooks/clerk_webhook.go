// Package webhooks handles inbound webhook events from Clerk. Every delivery
// carries Svix signature headers which are verified against the shared signing
// secret before the payload is decoded. Verified events are handed to the
// reconcilers, which converge local state regardless of delivery order or
// duplication.
package webhooks

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/identity-sync/identity-sync/internal/clerk"
	"github.com/identity-sync/identity-sync/internal/reconcile"
	"github.com/identity-sync/identity-sync/internal/telemetry"
)

// ClerkWebhookHandler handles incoming Clerk webhooks
type ClerkWebhookHandler struct {
	verifier *clerk.Verifier
	users    *reconcile.UserReconciler
	orgs     *reconcile.OrganizationReconciler
}

// NewClerkWebhookHandler creates a new webhook handler
func NewClerkWebhookHandler(verifier *clerk.Verifier, users *reconcile.UserReconciler, orgs *reconcile.OrganizationReconciler) *ClerkWebhookHandler {
	return &ClerkWebhookHandler{
		verifier: verifier,
		users:    users,
		orgs:     orgs,
	}
}

// HandleWebhook processes a Clerk webhook delivery.
// POST /auth/clerk_webhook/
//
// Responses follow the delivery contract Clerk retries on: 400 rejects the
// delivery permanently (bad signature or payload), 500 makes Clerk redeliver
// later, 200 acknowledges it.
func (h *ClerkWebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	// Signature verification runs on the raw bytes, before any decoding.
	if err := h.verifier.Verify(payload, c.Request.Header); err != nil {
		telemetry.WebhookVerificationFailuresTotal.Inc()
		slog.Warn("rejected webhook with invalid signature", "ip", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
		return
	}

	env, err := clerk.ParseEnvelope(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	var outcome reconcile.Outcome
	if env.Type.IsUserEvent() {
		outcome, err = h.users.Apply(c.Request.Context(), env)
	} else {
		outcome, err = h.orgs.Apply(c.Request.Context(), env)
	}
	if err != nil {
		telemetry.WebhookEventsTotal.WithLabelValues(string(env.Type), "error").Inc()
		slog.Error("failed to apply webhook event", "type", env.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	telemetry.WebhookEventsTotal.WithLabelValues(string(env.Type), string(outcome)).Inc()
	c.String(http.StatusOK, "OK")
}
