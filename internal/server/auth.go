package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/smallbiznis/opsdesk/internal/identity/domain"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.identitySvc.Login(c.Request.Context(), identitydomain.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": resp.Token,
		"token_type":   "bearer",
		"user":         resp.User,
	})
}

func (s *Server) Me(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := workspacectx.UserIDFromContext(ctx)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	workspaceID, _ := workspacectx.WorkspaceIDFromContext(ctx)
	role, _ := workspacectx.RoleFromContext(ctx)

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID.String(),
		"workspace_id": workspaceID.String(),
		"role":         role,
	})
}
