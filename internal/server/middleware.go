package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/opsdesk/internal/authorization"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the bearer token to a user and stores the user's
// workspace, id and role on the request context. Every authenticated
// route is scoped to the caller's own workspace.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := workspacectx.WithWorkspaceID(c.Request.Context(), user.WorkspaceID)
		ctx = workspacectx.WithUserID(ctx, user.ID)
		ctx = workspacectx.WithRole(ctx, string(user.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, user.ID.String())
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authorizeAction enforces an RBAC policy check for the authenticated user
// within their workspace.
func (s *Server) authorizeAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		userID, ok := workspacectx.UserIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(ctx, "user:"+userID.String(), workspaceID.String(), object, action); err != nil {
			if err == authorization.ErrForbidden {
				AbortWithError(c, ErrForbidden)
				return
			}
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// PublicIntakeRateLimit throttles the unauthenticated intake endpoints per
// client address and per target workspace. Passes everything through when
// redis is not configured.
func (s *Server) PublicIntakeRateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.intakeLimiter.Enabled() {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		clientResult, err := s.intakeLimiter.AllowClient(ctx, c.ClientIP())
		if err == nil && !clientResult.Allowed {
			s.recordIntakeDenied(ctx, endpoint, "client")
			c.Header("Retry-After", retryAfterSeconds(clientResult.RetryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		workspaceID := strings.TrimSpace(c.Param("workspace_id"))
		if workspaceID != "" {
			workspaceResult, err := s.intakeLimiter.AllowWorkspace(ctx, workspaceID)
			if err == nil && !workspaceResult.Allowed {
				s.recordIntakeDenied(ctx, endpoint, "workspace")
				c.Header("Retry-After", retryAfterSeconds(workspaceResult.RetryAfter))
				AbortWithError(c, ErrRateLimited)
				return
			}
		}

		s.recordIntakeAllowed(ctx, endpoint)
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
