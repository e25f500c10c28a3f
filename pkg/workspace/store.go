package workspace

import "github.com/parleyhq/parley/pkg/models"

// Slot management for the normalized store. All of these run with the
// engine mutex held.

// ensure idempotently guarantees a messages slot and an error slot exist
// for a conversation without overwriting existing content.
func (s *State) ensure(id string) {
	if _, ok := s.Messages[id]; !ok {
		s.Messages[id] = []models.Message{}
	}
	if _, ok := s.Errors[id]; !ok {
		s.Errors[id] = ""
	}
}

// purge drops the messages and error slots of a conversation.
func (s *State) purge(id string) {
	delete(s.Messages, id)
	delete(s.Errors, id)
}

// removeActive removes a conversation from the active list, purges its
// slots, and reselects when the removed conversation was active: the first
// remaining active conversation becomes active, or none. Returns false if
// the id was not in the active list.
func (s *State) removeActive(id string) bool {
	idx := -1
	for i := range s.Conversations {
		if s.Conversations[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.Conversations = append(s.Conversations[:idx], s.Conversations[idx+1:]...)
	s.purge(id)
	s.reselectAfterRemoval(id)
	return true
}

// removeArchived removes a conversation from the archived list and purges
// its slots. Returns false if the id was not in the archived list.
func (s *State) removeArchived(id string) bool {
	idx := -1
	for i := range s.Archived {
		if s.Archived[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.Archived = append(s.Archived[:idx], s.Archived[idx+1:]...)
	s.purge(id)
	return true
}

func (s *State) reselectAfterRemoval(removed string) {
	if s.ActiveID != removed {
		return
	}
	if len(s.Conversations) > 0 {
		s.ActiveID = s.Conversations[0].ID
	} else {
		s.ActiveID = ""
	}
}

// clearAll resets every collection, used when bootstrap fails and nothing
// usable is known.
func (s *State) clearAll() {
	s.Conversations = nil
	s.Archived = nil
	s.Projects = nil
	s.Messages = make(map[string][]models.Message)
	s.Errors = make(map[string]string)
	s.ActiveID = ""
}
