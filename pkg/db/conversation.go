// Database models for chat conversations
package db

import "time"

// Conversation types
const (
	ConversationTypeText  = "text"
	ConversationTypeImage = "image"
)

// Default titles assigned to freshly created conversations, per type.
const (
	DefaultTitleText  = "New chat"
	DefaultTitleImage = "New image chat"
)

// Conversation represents a chat conversation in the workspace.
// A conversation is active when ArchivedAt is nil and archived otherwise;
// it is never in both sets at once.
type Conversation struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	Title      string     `json:"title" gorm:"size:200;default:'New chat'"`
	Type       string     `json:"type" gorm:"size:10;default:'text'"` // text, image
	ProjectID  *string    `json:"project_id" gorm:"index;size:36"`
	ArchivedAt *time.Time `json:"archived_at" gorm:"index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// MessageCount is computed from the messages table when loading,
	// not stored on this row.
	MessageCount int `json:"message_count" gorm:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Archived reports whether the conversation is in the archived set.
func (c *Conversation) Archived() bool {
	return c.ArchivedAt != nil
}

// DefaultTitle returns the default title for a conversation type.
func DefaultTitle(convType string) string {
	if convType == ConversationTypeImage {
		return DefaultTitleImage
	}
	return DefaultTitleText
}

// ConversationDetail is a conversation plus its full message history,
// as returned by the detail and send endpoints.
type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages" gorm:"-"`
}
