package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	workspacedomain "github.com/smallbiznis/opsdesk/internal/workspace/domain"
)

type createWorkspaceRequest struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Timezone      string `json:"timezone"`
	ContactEmail  string `json:"contact_email"`
	OwnerEmail    string `json:"owner_email"`
	OwnerPassword string `json:"owner_password"`
}

func (s *Server) CreateWorkspace(c *gin.Context) {
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.Create(c.Request.Context(), workspacedomain.CreateRequest{
		Name:          strings.TrimSpace(req.Name),
		Address:       strings.TrimSpace(req.Address),
		Timezone:      strings.TrimSpace(req.Timezone),
		ContactEmail:  strings.TrimSpace(req.ContactEmail),
		OwnerEmail:    strings.TrimSpace(req.OwnerEmail),
		OwnerPassword: req.OwnerPassword,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetWorkspace(c *gin.Context) {
	resp, err := s.workspaceSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateWorkspace(c *gin.Context) {
	resp, err := s.workspaceSvc.Activate(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateIntegrationsRequest struct {
	Channels map[string]any `json:"channels"`
}

func (s *Server) UpdateIntegrations(c *gin.Context) {
	var req updateIntegrationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.UpdateIntegrations(c.Request.Context(), workspacedomain.UpdateIntegrationsRequest{
		Channels: req.Channels,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type testIntegrationRequest struct {
	Channel string `json:"channel"`
}

func (s *Server) TestIntegration(c *gin.Context) {
	var req testIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workspaceSvc.TestIntegration(c.Request.Context(), workspacedomain.TestIntegrationRequest{
		Channel: strings.TrimSpace(req.Channel),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListIntegrationLogs(c *gin.Context) {
	resp, err := s.workspaceSvc.ListIntegrationLogs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
