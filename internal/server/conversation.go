package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	conversationdomain "github.com/smallbiznis/opsdesk/internal/conversation/domain"
)

func (s *Server) ListConversations(c *gin.Context) {
	resp, err := s.conversationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMessages(c *gin.Context) {
	resp, err := s.conversationSvc.Messages(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type replyRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (s *Server) ReplyConversation(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.conversationSvc.Reply(c.Request.Context(), conversationdomain.ReplyRequest{
		ConversationID: strings.TrimSpace(c.Param("id")),
		Content:        req.Content,
		Type:           strings.TrimSpace(req.Type),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
