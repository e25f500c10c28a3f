// Database models for chat messages
package db

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single message in a conversation.
// Messages are ordered by creation time and never edited or reordered;
// they are deleted only together with their conversation.
type Message struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	ConversationID string    `json:"conversation_id,omitempty" gorm:"index;size:36;not null"`
	Role           string    `json:"role" gorm:"size:20;not null"` // user, assistant, system
	Content        string    `json:"content" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
