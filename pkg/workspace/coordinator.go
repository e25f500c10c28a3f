package workspace

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/pkg/api"
	"github.com/parleyhq/parley/pkg/models"
)

// Mutation coordination. Every operation here is optimistic-then-reconcile:
// a local update where the operation allows it, the remote call, then the
// canonical server result on success or a bounded recovery on failure.
//
// Error propagation follows scope: send and hydration failures land in the
// conversation's private error slot, everything that touches workspace-wide
// collections surfaces a single global error. A successful operation clears
// the error of its own scope.

// SendMessage appends the trimmed prompt to the active conversation and
// dispatches it to the text or image endpoint depending on the conversation
// type. One send is in flight per workspace; the result is applied to the
// conversation id captured at send time even if the selection has moved on.
// Empty prompts, pending sends, a missing selection and a loading bootstrap
// are all silent no-ops.
//
// On failure the server's error text (or a generic fallback) is recorded in
// the conversation's error slot and appended as a system message — to the
// server's attached conversation snapshot when one came back, otherwise to
// the locally known list. The optimistic title and message-count changes
// are intentionally left in place.
func (e *Engine) SendMessage(ctx context.Context, prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return
	}

	e.mu.Lock()
	if e.closed || e.state.Sending || e.state.Loading || e.state.ActiveID == "" {
		e.mu.Unlock()
		return
	}
	conv := e.state.Active()
	if conv == nil {
		e.mu.Unlock()
		return
	}
	id := conv.ID
	convType := conv.Type
	base := *conv

	e.state.Sending = true
	e.state.ensure(id)
	now := time.Now()
	e.state.Messages[id] = append(e.state.Messages[id], models.Message{
		ID:             uuid.NewString(),
		ConversationID: id,
		Role:           models.RoleUser,
		Content:        prompt,
		CreatedAt:      now,
	})
	e.state.Conversations = promote(e.state.Conversations, id, func(prev *models.Conversation) models.Conversation {
		c := base
		if prev != nil {
			c = *prev
		}
		c.Title = deriveTitle(c.Title, c.Type, prompt)
		c.MessageCount++
		c.UpdatedAt = now
		return c
	})
	e.mu.Unlock()
	e.notify()

	var detail *models.ConversationDetail
	var err error
	if convType == models.ConversationTypeImage {
		detail, err = e.svc.GenerateImageMessage(ctx, id, prompt)
	} else {
		detail, err = e.svc.SendTextMessage(ctx, id, prompt)
	}

	e.mu.Lock()
	e.state.Sending = false
	if e.closed {
		e.mu.Unlock()
		return
	}
	// The conversation may have been deleted while the send was in
	// flight; a reconcile would resurrect it.
	if e.state.conversation(id) == nil {
		e.mu.Unlock()
		e.notify()
		return
	}
	if err != nil {
		text := api.ErrorMessage(err)
		system := models.Message{
			ID:             uuid.NewString(),
			ConversationID: id,
			Role:           models.RoleSystem,
			Content:        text,
			CreatedAt:      time.Now(),
		}
		if snap := api.ConversationSnapshot(err); snap != nil {
			e.state.Messages[id] = append(append([]models.Message(nil), snap.Messages...), system)
			e.state.Conversations = promote(e.state.Conversations, id, replaceWith(snap.Conversation))
		} else {
			e.state.Messages[id] = append(e.state.Messages[id], system)
		}
		e.state.Errors[id] = text
	} else {
		e.state.Messages[id] = detail.Messages
		e.state.Conversations = promote(e.state.Conversations, id, replaceWith(detail.Conversation))
		e.state.Errors[id] = ""
	}
	e.mu.Unlock()
	e.notify()
}

// NewConversation creates a conversation of the given type ("text" unless
// "image"), inserts the canonical record at the front of the active list
// and selects it. Creation has no optimistic phase.
func (e *Engine) NewConversation(ctx context.Context, convType string) {
	if convType != models.ConversationTypeImage {
		convType = models.ConversationTypeText
	}

	created, err := e.svc.CreateConversation(ctx, convType)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
	} else {
		e.state.Conversations = promote(e.state.Conversations, created.ID, replaceWith(*created))
		e.state.ensure(created.ID)
		e.state.ActiveID = created.ID
		e.state.GlobalError = ""
	}
	e.mu.Unlock()
	e.notify()
}

// DeleteConversation optimistically removes a conversation from whichever
// list holds it, reselecting when it was active, then issues the remote
// delete. A failed delete surfaces the error but does not restore local
// state; the server is assumed durable for deletes.
func (e *Engine) DeleteConversation(ctx context.Context, id string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if conv := e.state.conversation(id); conv != nil {
		if conv.ProjectID != nil {
			applyProjectDelta(e.state.Projects, projectDelta{removedFrom: conv.ProjectID})
		}
		e.state.removeActive(id)
	} else if e.state.archivedConversation(id) != nil {
		// Already out of the active project count since it was archived.
		e.state.removeArchived(id)
	} else {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.notify()

	err := e.svc.DeleteConversation(ctx, id)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
	} else {
		e.state.GlobalError = ""
	}
	e.mu.Unlock()
	e.notify()
}

// ArchiveConversation waits for the server's canonical archived record (it
// carries the server-assigned archive timestamp) before moving the
// conversation out of the active list and to the front of the archived
// list. Selection handling mirrors delete.
func (e *Engine) ArchiveConversation(ctx context.Context, id string) {
	rec, err := e.svc.ArchiveConversation(ctx, id)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	if conv := e.state.conversation(id); conv != nil {
		if conv.ProjectID != nil {
			applyProjectDelta(e.state.Projects, projectDelta{removedFrom: conv.ProjectID})
		}
		e.state.removeActive(id)
	}
	e.state.Archived = promote(e.state.Archived, id, replaceWith(*rec))
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// UnarchiveConversation is the symmetric operation: it waits for the
// canonical active record, removes the conversation from the archived list,
// promotes it into the active list and re-seeds its message and error
// slots.
func (e *Engine) UnarchiveConversation(ctx context.Context, id string) {
	rec, err := e.svc.UnarchiveConversation(ctx, id)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	e.state.removeArchived(id)
	e.state.Conversations = promote(e.state.Conversations, id, replaceWith(*rec))
	e.state.ensure(id)
	if rec.ProjectID != nil {
		applyProjectDelta(e.state.Projects, projectDelta{addedTo: rec.ProjectID})
	}
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// RenameConversation waits for the canonical updated summary and promotes
// with it. Empty titles are a silent no-op.
func (e *Engine) RenameConversation(ctx context.Context, id, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}

	rec, err := e.svc.RenameConversation(ctx, id, title)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	if arch := e.state.archivedConversation(id); arch != nil {
		*arch = *rec
	} else {
		e.state.Conversations = promote(e.state.Conversations, id, replaceWith(*rec))
	}
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// AssignProject reassigns a conversation to a project (nil clears the
// assignment), waits for the canonical summary, feeds the project ledger
// with the before/after pair and promotes.
func (e *Engine) AssignProject(ctx context.Context, id string, projectID *string) {
	e.mu.Lock()
	conv := e.state.conversation(id)
	if e.closed || conv == nil {
		e.mu.Unlock()
		return
	}
	before := conv.ProjectID
	e.mu.Unlock()

	rec, err := e.svc.AssignProject(ctx, id, projectID)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	applyProjectDelta(e.state.Projects, projectDelta{removedFrom: before, addedTo: rec.ProjectID})
	e.state.Conversations = promote(e.state.Conversations, id, replaceWith(*rec))
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// LoadArchived fetches the archived list, most recently updated first. The
// archived view is not part of bootstrap; hosts load it on demand.
func (e *Engine) LoadArchived(ctx context.Context) {
	archived, err := e.svc.ListArchivedConversations(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
	} else {
		sortByUpdatedAt(archived)
		e.state.Archived = archived
		e.state.GlobalError = ""
	}
	e.mu.Unlock()
	e.notify()
}

// ========== Bulk operations ==========

// DeleteAllConversations clears the active list in one remote call. Every
// project keeps existing with a zeroed count; archived conversations are
// untouched.
func (e *Engine) DeleteAllConversations(ctx context.Context) {
	_, err := e.svc.DeleteAllConversations(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	for _, c := range e.state.Conversations {
		e.state.purge(c.ID)
	}
	e.state.Conversations = nil
	e.state.ActiveID = ""
	zeroProjectCounts(e.state.Projects)
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// DeleteArchivedConversations clears the archived list in one remote call.
func (e *Engine) DeleteArchivedConversations(ctx context.Context) {
	_, err := e.svc.DeleteArchivedConversations(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
	} else {
		for _, c := range e.state.Archived {
			e.state.purge(c.ID)
		}
		e.state.Archived = nil
		e.state.GlobalError = ""
	}
	e.mu.Unlock()
	e.notify()
}

// ========== Project operations ==========

// CreateProject creates a project. Empty names are a silent no-op.
func (e *Engine) CreateProject(ctx context.Context, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	rec, err := e.svc.CreateProject(ctx, name)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
	} else {
		e.state.Projects = append(e.state.Projects, *rec)
		e.state.GlobalError = ""
	}
	e.mu.Unlock()
	e.notify()
}

// RenameProject renames a project. Empty names are a silent no-op.
func (e *Engine) RenameProject(ctx context.Context, id, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	rec, err := e.svc.RenameProject(ctx, id, name)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
	} else {
		for i := range e.state.Projects {
			if e.state.Projects[i].ID == id {
				e.state.Projects[i] = *rec
				break
			}
		}
		e.state.GlobalError = ""
	}
	e.mu.Unlock()
	e.notify()
}

// DeleteProject deletes a project and cascade-removes its conversations
// from both the active and archived lists, reselecting if the active
// conversation was among them.
func (e *Engine) DeleteProject(ctx context.Context, id string) {
	err := e.svc.DeleteProject(ctx, id)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	for i := range e.state.Projects {
		if e.state.Projects[i].ID == id {
			e.state.Projects = append(e.state.Projects[:i], e.state.Projects[i+1:]...)
			break
		}
	}
	e.removeConversationsLocked(func(c *models.Conversation) bool {
		return c.ProjectID != nil && *c.ProjectID == id
	})
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// DeleteAllProjects removes every project and cascade-deletes every
// conversation referencing one; project-less conversations are untouched.
func (e *Engine) DeleteAllProjects(ctx context.Context) {
	_, err := e.svc.DeleteAllProjects(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.GlobalError = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	e.state.Projects = nil
	e.removeConversationsLocked(func(c *models.Conversation) bool {
		return c.ProjectID != nil
	})
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// removeConversationsLocked drops every conversation matching the
// predicate from both lists, purging slots and reselecting the active
// conversation when it was removed. Caller holds the engine mutex.
func (e *Engine) removeConversationsLocked(match func(*models.Conversation) bool) {
	activeRemoved := false
	kept := e.state.Conversations[:0:0]
	for i := range e.state.Conversations {
		c := &e.state.Conversations[i]
		if match(c) {
			e.state.purge(c.ID)
			if c.ID == e.state.ActiveID {
				activeRemoved = true
			}
			continue
		}
		kept = append(kept, *c)
	}
	e.state.Conversations = kept

	keptArch := e.state.Archived[:0:0]
	for i := range e.state.Archived {
		c := &e.state.Archived[i]
		if match(c) {
			e.state.purge(c.ID)
			continue
		}
		keptArch = append(keptArch, *c)
	}
	e.state.Archived = keptArch

	if activeRemoved {
		if len(e.state.Conversations) > 0 {
			e.state.ActiveID = e.state.Conversations[0].ID
		} else {
			e.state.ActiveID = ""
		}
	}
}

// ========== Error slots ==========

// ClearGlobalError clears the workspace-wide error banner, typically on a
// view change.
func (e *Engine) ClearGlobalError() {
	e.mu.Lock()
	e.state.GlobalError = ""
	e.mu.Unlock()
	e.notify()
}

// ClearConversationError clears one conversation's inline error.
func (e *Engine) ClearConversationError(id string) {
	e.mu.Lock()
	if _, ok := e.state.Errors[id]; ok {
		e.state.Errors[id] = ""
	}
	e.mu.Unlock()
	e.notify()
}
