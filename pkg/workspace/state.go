package workspace

import "github.com/parleyhq/parley/pkg/models"

// State is the normalized in-memory view of the workspace. Conversations
// and Archived are recency-ordered (most recently touched first); a
// conversation lives in exactly one of the two. Messages and Errors are
// keyed by conversation id. ActiveID is empty when nothing is selected.
type State struct {
	Conversations []models.Conversation
	Archived      []models.Conversation
	Projects      []models.Project
	Messages      map[string][]models.Message
	Errors        map[string]string
	ActiveID      string
	GlobalError   string
	Loading       bool
	Sending       bool
}

func newState() State {
	return State{
		Messages: make(map[string][]models.Message),
		Errors:   make(map[string]string),
	}
}

func (s State) clone() State {
	out := s
	out.Conversations = append([]models.Conversation(nil), s.Conversations...)
	out.Archived = append([]models.Conversation(nil), s.Archived...)
	out.Projects = append([]models.Project(nil), s.Projects...)
	out.Messages = make(map[string][]models.Message, len(s.Messages))
	for id, msgs := range s.Messages {
		out.Messages[id] = append([]models.Message(nil), msgs...)
	}
	out.Errors = make(map[string]string, len(s.Errors))
	for id, msg := range s.Errors {
		out.Errors[id] = msg
	}
	return out
}

// Active returns the currently selected conversation, or nil.
func (s *State) Active() *models.Conversation {
	return s.conversation(s.ActiveID)
}

// conversation finds a conversation by id in the active list.
func (s *State) conversation(id string) *models.Conversation {
	if id == "" {
		return nil
	}
	for i := range s.Conversations {
		if s.Conversations[i].ID == id {
			return &s.Conversations[i]
		}
	}
	return nil
}

// archivedConversation finds a conversation by id in the archived list.
func (s *State) archivedConversation(id string) *models.Conversation {
	for i := range s.Archived {
		if s.Archived[i].ID == id {
			return &s.Archived[i]
		}
	}
	return nil
}

// ActiveMessages returns the cached message list of the active
// conversation; nil when nothing is selected.
func (s *State) ActiveMessages() []models.Message {
	if s.ActiveID == "" {
		return nil
	}
	return s.Messages[s.ActiveID]
}

// ActiveError returns the error slot of the active conversation.
func (s *State) ActiveError() string {
	if s.ActiveID == "" {
		return ""
	}
	return s.Errors[s.ActiveID]
}
