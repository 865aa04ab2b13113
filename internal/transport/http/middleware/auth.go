// The magic-link login flow, session cookies, and RBAC live outside this
// repo. What this file owns is the narrow contract this service needs from
// that auth layer: a caller's workspace_id and plan, already authenticated by
// the time a request reaches these handlers, passed as headers behind an
// internal gateway. Analytics handlers read that identity off the Gin context
// via the accessors below; nothing here validates tokens or sessions.
package middleware

import (
	"github.com/gin-gonic/gin"

	"shortcut/internal/core/domain/catalog"
	"shortcut/pkg/response"
	"shortcut/pkg/ulid"
)

// Context keys the auth collaborator is expected to populate before a
// request reaches an authenticated route.
const (
	WorkspaceIDKey = "workspace_id"
	PlanKey        = "plan"
)

// Header names the upstream auth collaborator is expected to set once it has
// authenticated the caller and resolved their workspace.
const (
	WorkspaceIDHeader = "X-Workspace-ID"
	PlanHeader        = "X-Workspace-Plan"
)

// RequireWorkspace extracts the authenticated workspace identity the auth
// collaborator attaches to the request and rejects requests missing it. It
// does not itself authenticate anything.
func RequireWorkspace() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader(WorkspaceIDHeader)
		if rawID == "" {
			response.Unauthorized(c, "workspace identity required")
			c.Abort()
			return
		}

		workspaceID, err := ulid.Parse(rawID)
		if err != nil {
			response.Unauthorized(c, "invalid workspace identity")
			c.Abort()
			return
		}

		plan := catalog.Plan(c.GetHeader(PlanHeader))
		if plan != catalog.PlanFree && plan != catalog.PlanPro {
			response.Unauthorized(c, "invalid workspace plan")
			c.Abort()
			return
		}

		c.Set(WorkspaceIDKey, workspaceID)
		c.Set(PlanKey, plan)
		c.Next()
	}
}

// GetWorkspaceID retrieves the authenticated workspace id from the Gin
// context, as set by RequireWorkspace.
func GetWorkspaceID(c *gin.Context) (ulid.ULID, bool) {
	v, exists := c.Get(WorkspaceIDKey)
	if !exists {
		return ulid.ULID{}, false
	}
	id, ok := v.(ulid.ULID)
	return id, ok
}

// GetPlan retrieves the authenticated workspace's plan from the Gin context,
// as set by RequireWorkspace.
func GetPlan(c *gin.Context) (catalog.Plan, bool) {
	v, exists := c.Get(PlanKey)
	if !exists {
		return "", false
	}
	plan, ok := v.(catalog.Plan)
	return plan, ok
}
