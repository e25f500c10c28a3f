// Database models for projects that group conversations
package db

import "time"

// Project groups conversations in the workspace sidebar.
// ConversationCount counts active (non-archived) conversations only.
type Project struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ConversationCount is computed from the conversations table when
	// loading, not stored on this row.
	ConversationCount int `json:"conversation_count" gorm:"-"`
}

func (Project) TableName() string {
	return "projects"
}
