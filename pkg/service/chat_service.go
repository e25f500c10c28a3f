// Workspace chat service - conversations and message exchanges
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/pkg/db"
	"github.com/parleyhq/parley/pkg/models"
	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrEmptyPrompt          = errors.New("prompt must not be empty")
)

// ChatService handles conversation and message operations against the
// database. Replies are produced by the configured Responder.
type ChatService struct {
	db        *gorm.DB
	responder Responder
	logger    *slog.Logger
}

// NewChatService creates a new chat service.
func NewChatService(gdb *gorm.DB, responder Responder, logger *slog.Logger) *ChatService {
	if responder == nil {
		responder = EchoResponder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{db: gdb, responder: responder, logger: logger}
}

// ========== Conversation Management ==========

// ListConversations returns the active or the archived set, most recently
// updated first, with message counts filled in.
func (s *ChatService) ListConversations(archived bool) ([]db.Conversation, error) {
	var conversations []db.Conversation
	query := s.db.Order("updated_at DESC")
	if archived {
		query = query.Where("archived_at IS NOT NULL")
	} else {
		query = query.Where("archived_at IS NULL")
	}
	if err := query.Find(&conversations).Error; err != nil {
		return nil, err
	}
	if err := s.fillMessageCounts(conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation creates a new conversation with the default title for
// its type.
func (s *ChatService) CreateConversation(convType string) (*db.Conversation, error) {
	if convType != db.ConversationTypeImage {
		convType = db.ConversationTypeText
	}
	conv := &db.Conversation{
		ID:    uuid.New().String(),
		Title: db.DefaultTitle(convType),
		Type:  convType,
	}
	if err := s.db.Create(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation retrieves a conversation summary by ID.
func (s *ChatService) GetConversation(id string) (*db.Conversation, error) {
	var conv db.Conversation
	if err := s.db.First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if err := s.fillMessageCount(&conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversationDetail retrieves a conversation with its full message
// history in creation order.
func (s *ChatService) GetConversationDetail(id string) (*db.ConversationDetail, error) {
	conv, err := s.GetConversation(id)
	if err != nil {
		return nil, err
	}
	var messages []db.Message
	if err := s.db.Where("conversation_id = ?", id).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return &db.ConversationDetail{Conversation: *conv, Messages: messages}, nil
}

// UpdateConversation patches title and/or project assignment.
func (s *ChatService) UpdateConversation(id string, req *models.UpdateConversationRequest) (*db.Conversation, error) {
	if _, err := s.GetConversation(id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil && *req.Title != "" {
		updates["title"] = *req.Title
	}
	if req.ProjectID.Set {
		if req.ProjectID.Value != nil {
			var count int64
			if err := s.db.Model(&db.Project{}).Where("id = ?", *req.ProjectID.Value).Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, ErrProjectNotFound
			}
		}
		updates["project_id"] = req.ProjectID.Value
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := s.db.Model(&db.Conversation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetConversation(id)
}

// ArchiveConversation moves a conversation into the archived set, stamping
// the archive time server-side.
func (s *ChatService) ArchiveConversation(id string) (*db.Conversation, error) {
	if _, err := s.GetConversation(id); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.db.Model(&db.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"archived_at": now, "updated_at": now}).Error; err != nil {
		return nil, err
	}
	return s.GetConversation(id)
}

// UnarchiveConversation restores a conversation into the active set.
func (s *ChatService) UnarchiveConversation(id string) (*db.Conversation, error) {
	if _, err := s.GetConversation(id); err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"archived_at": nil, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	return s.GetConversation(id)
}

// DeleteConversation deletes a conversation and its messages.
func (s *ChatService) DeleteConversation(id string) error {
	if _, err := s.GetConversation(id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Conversation{}, "id = ?", id).Error
	})
}

// DeleteAllConversations deletes every active conversation and its
// messages, returning the number removed. Archived conversations survive.
func (s *ChatService) DeleteAllConversations() (int, error) {
	return s.deleteConversationsWhere("archived_at IS NULL")
}

// DeleteArchivedConversations deletes every archived conversation and its
// messages, returning the number removed.
func (s *ChatService) DeleteArchivedConversations() (int, error) {
	return s.deleteConversationsWhere("archived_at IS NOT NULL")
}

func (s *ChatService) deleteConversationsWhere(cond string) (int, error) {
	var ids []string
	if err := s.db.Model(&db.Conversation{}).Where(cond).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id IN ?", ids).Delete(&db.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&db.Conversation{}).Error
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ========== Message Exchange ==========

// SendMessage persists the user prompt, produces the assistant reply (text
// via the responder, image sends get a generated data URI) and returns the
// canonical conversation detail. When the reply fails after the user
// message was persisted, the returned detail snapshot still reflects the
// stored state so the client can reconcile.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, prompt string, image bool) (*db.ConversationDetail, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	conv, err := s.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := db.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           db.RoleUser,
		Content:        prompt,
		CreatedAt:      now,
	}
	if err := s.db.Create(&userMsg).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	title := conv.Title
	if title == db.DefaultTitle(conv.Type) {
		title = truncateTitle(prompt)
	}
	if err := s.db.Model(&db.Conversation{}).Where("id = ?", conv.ID).
		Updates(map[string]interface{}{"title": title, "updated_at": now}).Error; err != nil {
		return nil, err
	}

	var reply string
	if image {
		reply, err = s.generateImage(ctx, prompt)
	} else {
		var history []db.Message
		if herr := s.db.Where("conversation_id = ?", conv.ID).
			Order("created_at ASC").Find(&history).Error; herr != nil {
			return nil, herr
		}
		reply, err = s.responder.Reply(ctx, conv, history, prompt)
	}
	if err != nil {
		// The user message is already persisted; hand back the stored
		// state alongside the error so the client can reconcile.
		s.logger.Warn("reply generation failed", "conversation", conv.ID, "error", err)
		if snapshot, derr := s.GetConversationDetail(conv.ID); derr == nil {
			return snapshot, err
		}
		return nil, err
	}

	assistantMsg := db.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           db.RoleAssistant,
		Content:        reply,
		CreatedAt:      time.Now(),
	}
	if err := s.db.Create(&assistantMsg).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	return s.GetConversationDetail(conv.ID)
}

// truncateTitle applies the 45/48 title rule also used by clients, so a
// reconciled summary matches the optimistic one.
func truncateTitle(prompt string) string {
	r := []rune(prompt)
	if len(r) > 48 {
		return string(r[:45]) + "..."
	}
	return prompt
}

// ========== Counts ==========

func (s *ChatService) fillMessageCount(conv *db.Conversation) error {
	var count int64
	if err := s.db.Model(&db.Message{}).Where("conversation_id = ?", conv.ID).Count(&count).Error; err != nil {
		return err
	}
	conv.MessageCount = int(count)
	return nil
}

func (s *ChatService) fillMessageCounts(conversations []db.Conversation) error {
	if len(conversations) == 0 {
		return nil
	}
	ids := make([]string, len(conversations))
	for i := range conversations {
		ids[i] = conversations[i].ID
	}
	var rows []struct {
		ConversationID string
		N              int
	}
	if err := s.db.Model(&db.Message{}).
		Select("conversation_id, count(*) as n").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&rows).Error; err != nil {
		return err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.ConversationID] = r.N
	}
	for i := range conversations {
		conversations[i].MessageCount = counts[conversations[i].ID]
	}
	return nil
}
