// API types for the Parley workspace service
package models

import (
	"bytes"
	"encoding/json"

	"github.com/parleyhq/parley/pkg/db"
)

// ========== Type aliases for database types ==========
// These allow other packages to use models.Conversation instead of db.Conversation

type Conversation = db.Conversation
type ConversationDetail = db.ConversationDetail
type Message = db.Message
type Project = db.Project

// ========== Constant aliases from db package ==========

const (
	ConversationTypeText  = db.ConversationTypeText
	ConversationTypeImage = db.ConversationTypeImage

	DefaultTitleText  = db.DefaultTitleText
	DefaultTitleImage = db.DefaultTitleImage

	RoleUser      = db.RoleUser
	RoleAssistant = db.RoleAssistant
	RoleSystem    = db.RoleSystem
)

// DefaultTitle returns the default title for a conversation type.
func DefaultTitle(convType string) string { return db.DefaultTitle(convType) }

// ========== Conversation API types ==========

// CreateConversationRequest creates a conversation. Type defaults to "text".
type CreateConversationRequest struct {
	Type string `json:"type,omitempty"`
}

// UpdateConversationRequest patches a conversation. Absent fields are left
// untouched; project_id distinguishes absent from explicit null so a
// conversation can be unassigned from its project.
type UpdateConversationRequest struct {
	Title     *string    `json:"title,omitempty"`
	ProjectID OptionalID `json:"project_id,omitzero"`
}

// OptionalID is a nullable id field that records whether it was present in
// the request body at all.
type OptionalID struct {
	Set   bool
	Value *string
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IsZero makes omitzero skip fields that were never set.
func (o OptionalID) IsZero() bool { return !o.Set }

// ========== Send API types ==========

// SendMessageRequest asks the service to append a user message to a
// conversation and produce the assistant reply.
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Prompt         string `json:"prompt"`
}

// ========== Project API types ==========

// CreateProjectRequest creates a project.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// UpdateProjectRequest renames a project.
type UpdateProjectRequest struct {
	Name string `json:"name"`
}

// ========== Auth API types ==========

// LoginRequest authenticates a user by username/password.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for subsequent requests.
type LoginResponse struct {
	Token string `json:"token"`
}

// ========== Generic API types ==========

// CountResponse is returned by the bulk delete endpoints.
type CountResponse struct {
	Deleted int `json:"deleted"`
}

// ErrorResponse is the error payload of every non-2xx response. The send
// endpoints may attach a snapshot of the affected conversation's canonical
// state for client-side failure reconciliation.
type ErrorResponse struct {
	Error        string              `json:"error"`
	Conversation *ConversationDetail `json:"conversation,omitempty"`
}
