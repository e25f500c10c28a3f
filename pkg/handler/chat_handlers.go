// Chat HTTP handlers - conversations and message sends
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parleyhq/parley/pkg/db"
	"github.com/parleyhq/parley/pkg/models"
	"github.com/parleyhq/parley/pkg/service"
)

// ChatHandler handles conversation-related HTTP requests
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// RegisterRoutes registers conversation and send routes
func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	conversations := r.Group("/conversations")
	{
		conversations.GET("", h.ListConversations)
		conversations.POST("", h.CreateConversation)
		conversations.DELETE("", h.DeleteAllConversations)
		conversations.GET("/:id", h.GetConversation)
		conversations.PATCH("/:id", h.UpdateConversation)
		conversations.DELETE("/:id", h.DeleteConversation)
		conversations.POST("/:id/archive", h.ArchiveConversation)
		conversations.DELETE("/:id/archive", h.UnarchiveConversation)
	}

	archive := r.Group("/archive")
	{
		archive.GET("", h.ListArchivedConversations)
		archive.DELETE("", h.DeleteArchivedConversations)
	}

	r.POST("/chat/completions", h.SendTextMessage)
	r.POST("/images/generations", h.GenerateImageMessage)
}

// ListConversations handles GET /api/v1/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	conversations, err := h.chatService.ListConversations(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	if conversations == nil {
		conversations = []db.Conversation{}
	}
	c.JSON(http.StatusOK, conversations)
}

// ListArchivedConversations handles GET /api/v1/archive
func (h *ChatHandler) ListArchivedConversations(c *gin.Context) {
	conversations, err := h.chatService.ListConversations(true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	if conversations == nil {
		conversations = []db.Conversation{}
	}
	c.JSON(http.StatusOK, conversations)
}

// CreateConversation handles POST /api/v1/conversations
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	var req models.CreateConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
	}
	conv, err := h.chatService.CreateConversation(req.Type)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// GetConversation handles GET /api/v1/conversations/:id
func (h *ChatHandler) GetConversation(c *gin.Context) {
	detail, err := h.chatService.GetConversationDetail(c.Param("id"))
	if err != nil {
		c.JSON(conversationStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateConversation handles PATCH /api/v1/conversations/:id
func (h *ChatHandler) UpdateConversation(c *gin.Context) {
	var req models.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	conv, err := h.chatService.UpdateConversation(c.Param("id"), &req)
	if err != nil {
		c.JSON(conversationStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// DeleteConversation handles DELETE /api/v1/conversations/:id
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	if err := h.chatService.DeleteConversation(c.Param("id")); err != nil {
		c.JSON(conversationStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAllConversations handles DELETE /api/v1/conversations
func (h *ChatHandler) DeleteAllConversations(c *gin.Context) {
	count, err := h.chatService.DeleteAllConversations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.CountResponse{Deleted: count})
}

// DeleteArchivedConversations handles DELETE /api/v1/archive
func (h *ChatHandler) DeleteArchivedConversations(c *gin.Context) {
	count, err := h.chatService.DeleteArchivedConversations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.CountResponse{Deleted: count})
}

// ArchiveConversation handles POST /api/v1/conversations/:id/archive
func (h *ChatHandler) ArchiveConversation(c *gin.Context) {
	conv, err := h.chatService.ArchiveConversation(c.Param("id"))
	if err != nil {
		c.JSON(conversationStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// UnarchiveConversation handles DELETE /api/v1/conversations/:id/archive
func (h *ChatHandler) UnarchiveConversation(c *gin.Context) {
	conv, err := h.chatService.UnarchiveConversation(c.Param("id"))
	if err != nil {
		c.JSON(conversationStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// SendTextMessage handles POST /api/v1/chat/completions
func (h *ChatHandler) SendTextMessage(c *gin.Context) {
	h.handleSend(c, false)
}

// GenerateImageMessage handles POST /api/v1/images/generations
func (h *ChatHandler) GenerateImageMessage(c *gin.Context) {
	h.handleSend(c, true)
}

func (h *ChatHandler) handleSend(c *gin.Context, image bool) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	detail, err := h.chatService.SendMessage(c.Request.Context(), req.ConversationID, req.Prompt, image)
	if err != nil {
		resp := models.ErrorResponse{Error: err.Error()}
		// On a reply failure the user message is already persisted;
		// attach the canonical snapshot for client reconciliation.
		if detail != nil {
			resp.Conversation = detail
		}
		c.JSON(sendStatus(err), resp)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func conversationStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrProjectNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func sendStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyPrompt):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
