package workspace

import "github.com/parleyhq/parley/pkg/models"

// projectDelta describes how one conversation moved relative to the active
// set of a project: it left removedFrom and/or entered addedTo.
type projectDelta struct {
	removedFrom *string
	addedTo     *string
}

// applyProjectDelta adjusts the conversation counts of the matching
// projects. Counts are clamped at zero to defend against double-decrement
// from out-of-order failures. A delta with removedFrom == addedTo is a
// no-op.
func applyProjectDelta(projects []models.Project, d projectDelta) {
	if d.removedFrom != nil && d.addedTo != nil && *d.removedFrom == *d.addedTo {
		return
	}
	for i := range projects {
		if d.removedFrom != nil && projects[i].ID == *d.removedFrom {
			if projects[i].ConversationCount > 0 {
				projects[i].ConversationCount--
			}
		}
		if d.addedTo != nil && projects[i].ID == *d.addedTo {
			projects[i].ConversationCount++
		}
	}
}

// zeroProjectCounts resets every project's count, used when all
// conversations are deleted at once while the projects survive.
func zeroProjectCounts(projects []models.Project) {
	for i := range projects {
		projects[i].ConversationCount = 0
	}
}
