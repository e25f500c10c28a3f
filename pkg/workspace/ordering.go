package workspace

import (
	"sort"

	"github.com/parleyhq/parley/pkg/models"
)

// promote produces a new list where the conversation with the given id is
// first and every other entry keeps its relative order. update computes the
// new entry from the previous one, or from nil when the id is not in the
// list yet (a pending insert). The list is never re-sorted by timestamp;
// "most recently touched floats to top" is encoded purely by placement.
func promote(list []models.Conversation, id string, update func(prev *models.Conversation) models.Conversation) []models.Conversation {
	out := make([]models.Conversation, 0, len(list)+1)
	var prev *models.Conversation
	for i := range list {
		if list[i].ID == id {
			c := list[i]
			prev = &c
			continue
		}
		out = append(out, list[i])
	}
	return append([]models.Conversation{update(prev)}, out...)
}

// replaceWith adopts the canonical server record wholesale.
func replaceWith(c models.Conversation) func(*models.Conversation) models.Conversation {
	return func(*models.Conversation) models.Conversation { return c }
}

// sortByUpdatedAt orders a freshly fetched list most recently updated
// first. Used at bootstrap only; later placement goes through promote.
func sortByUpdatedAt(list []models.Conversation) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
}
