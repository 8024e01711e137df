package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/smallbiznis/opsdesk/internal/alert/domain"
)

func (s *Server) ListAlerts(c *gin.Context) {
	resp, err := s.alertSvc.List(c.Request.Context(), alertdomain.ListRequest{
		UnreadOnly: c.Query("unread_only") == "true",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkAlertRead(c *gin.Context) {
	if err := s.alertSvc.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
