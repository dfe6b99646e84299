// Package users exposes read endpoints over the synchronized identity data.
package users

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/identity-sync/identity-sync/internal/db/repositories"
)

// Handler serves user-scoped read endpoints
type Handler struct {
	users       *repositories.UserRepository
	memberships *repositories.MembershipRepository
}

// NewHandler creates a new Handler
func NewHandler(users *repositories.UserRepository, memberships *repositories.MembershipRepository) *Handler {
	return &Handler{users: users, memberships: memberships}
}

type organizationResponse struct {
	ID        string    `json:"id"`
	ClerkID   *string   `json:"clerk_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListOrganizations returns the organizations a user belongs to, with the
// user's role in each.
// GET /api/v1/users/:clerk_id/organizations
func (h *Handler) ListOrganizations(c *gin.Context) {
	clerkID := c.Param("clerk_id")

	user, err := h.users.GetByClerkID(c.Request.Context(), clerkID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	orgs, err := h.memberships.ListUserOrganizations(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list organizations"})
		return
	}

	out := make([]organizationResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, organizationResponse{
			ID:        org.ID,
			ClerkID:   org.ClerkID,
			Name:      org.Name,
			Role:      org.Role,
			CreatedAt: org.CreatedAt,
			UpdatedAt: org.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"organizations": out})
}
