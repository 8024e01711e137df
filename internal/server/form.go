package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
)

type createFormTemplateRequest struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

func (s *Server) CreateFormTemplate(c *gin.Context) {
	var req createFormTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.formSvc.CreateTemplate(c.Request.Context(), formdomain.CreateTemplateRequest{
		Name:   strings.TrimSpace(req.Name),
		Schema: req.Schema,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListFormTemplates(c *gin.Context) {
	resp, err := s.formSvc.ListTemplates(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignFormRequest struct {
	TemplateID string     `json:"template_id"`
	ContactID  string     `json:"contact_id"`
	DueAt      *time.Time `json:"due_at"`
}

func (s *Server) AssignForm(c *gin.Context) {
	var req assignFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.formSvc.Assign(c.Request.Context(), formdomain.AssignRequest{
		TemplateID: strings.TrimSpace(req.TemplateID),
		ContactID:  strings.TrimSpace(req.ContactID),
		DueAt:      req.DueAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListFormSubmissions(c *gin.Context) {
	resp, err := s.formSvc.ListSubmissions(c.Request.Context(), formdomain.ListSubmissionsRequest{
		TemplateID: strings.TrimSpace(c.Query("template_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
