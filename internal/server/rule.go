package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ruledomain "github.com/smallbiznis/opsdesk/internal/rule/domain"
)

type createRuleRequest struct {
	Name           string         `json:"name"`
	FormTemplateID string         `json:"form_template_id"`
	ActionType     string         `json:"action_type"`
	ActionConfig   map[string]any `json:"action_config"`
	IsActive       *bool          `json:"is_active"`
}

func (s *Server) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ruleSvc.Create(c.Request.Context(), ruledomain.CreateRuleRequest{
		Name:           strings.TrimSpace(req.Name),
		FormTemplateID: strings.TrimSpace(req.FormTemplateID),
		ActionType:     ruledomain.ActionType(strings.TrimSpace(req.ActionType)),
		ActionConfig:   req.ActionConfig,
		IsActive:       req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListRules(c *gin.Context) {
	resp, err := s.ruleSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateRuleRequest struct {
	Name         *string        `json:"name"`
	ActionConfig map[string]any `json:"action_config"`
	IsActive     *bool          `json:"is_active"`
}

func (s *Server) UpdateRule(c *gin.Context) {
	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ruleSvc.Update(c.Request.Context(), ruledomain.UpdateRuleRequest{
		ID:           c.Param("id"),
		Name:         req.Name,
		ActionConfig: req.ActionConfig,
		IsActive:     req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRule(c *gin.Context) {
	if err := s.ruleSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
