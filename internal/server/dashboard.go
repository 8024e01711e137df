package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	workspacedomain "github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"github.com/smallbiznis/opsdesk/internal/workspacectx"
)

type dashboardStats struct {
	Bookings            int64 `json:"bookings"`
	Contacts            int64 `json:"contacts"`
	ActiveConversations int64 `json:"active_conversations"`
	PendingForms        int64 `json:"pending_forms"`
	UnreadAlerts        int64 `json:"unread_alerts"`
}

func (s *Server) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	workspaceID, ok := workspacectx.WorkspaceIDFromContext(ctx)
	if !ok {
		AbortWithError(c, workspacedomain.ErrInvalidWorkspace)
		return
	}

	var stats dashboardStats

	count := func(dest *int64, sql string, args ...any) error {
		return s.db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error
	}

	type statQuery struct {
		dest *int64
		sql  string
		args []any
	}
	for _, q := range []statQuery{
		{&stats.Bookings, "SELECT COUNT(*) FROM bookings b JOIN offerings o ON o.id = b.offering_id WHERE o.workspace_id = ?", []any{workspaceID}},
		{&stats.Contacts, "SELECT COUNT(*) FROM contacts WHERE workspace_id = ?", []any{workspaceID}},
		{&stats.ActiveConversations, "SELECT COUNT(*) FROM conversations WHERE workspace_id = ? AND status = ?", []any{workspaceID, "active"}},
		{&stats.PendingForms, "SELECT COUNT(*) FROM form_submissions s JOIN form_templates t ON t.id = s.template_id WHERE t.workspace_id = ? AND s.status = ?", []any{workspaceID, "pending"}},
		{&stats.UnreadAlerts, "SELECT COUNT(*) FROM alerts WHERE workspace_id = ? AND is_read = ?", []any{workspaceID, false}},
	} {
		if err := count(q.dest, q.sql, q.args...); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
