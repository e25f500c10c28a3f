package workspace

import (
	"context"

	"github.com/parleyhq/parley/pkg/api"
	"github.com/parleyhq/parley/pkg/models"
)

// Bootstrap seeds the workspace: projects and conversations are fetched
// concurrently, an empty workspace gets exactly one default text
// conversation, and the most recently updated conversation becomes active
// unless something is already selected. Any failure clears all local state
// and surfaces a global error; partial success is not kept. Bootstrap runs
// once per engine.
func (e *Engine) Bootstrap(ctx context.Context) {
	e.mu.Lock()
	if e.bootstrapped || e.closed {
		e.mu.Unlock()
		return
	}
	e.bootstrapped = true
	e.state.Loading = true
	e.mu.Unlock()
	e.notify()

	var (
		projects []models.Project
		convs    []models.Conversation
		projErr  error
		convErr  error
	)
	done := make(chan struct{}, 2)
	go func() {
		projects, projErr = e.svc.ListProjects(ctx)
		done <- struct{}{}
	}()
	go func() {
		convs, convErr = e.svc.ListConversations(ctx)
		done <- struct{}{}
	}()
	<-done
	<-done

	if projErr != nil || convErr != nil {
		err := projErr
		if err == nil {
			err = convErr
		}
		e.failBootstrap(err)
		return
	}

	if len(convs) == 0 {
		created, err := e.svc.CreateConversation(ctx, models.ConversationTypeText)
		if err != nil {
			e.failBootstrap(err)
			return
		}
		convs = []models.Conversation{*created}
	} else {
		sortByUpdatedAt(convs)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.state.Projects = projects
	e.state.Conversations = convs
	for i := range convs {
		e.state.ensure(convs[i].ID)
	}
	// A selection made while the lists were loading wins over the default.
	if e.state.ActiveID == "" && len(convs) > 0 {
		e.state.ActiveID = convs[0].ID
	}
	e.state.Loading = false
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) failBootstrap(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.logger.Error("workspace bootstrap failed", "error", err)
	e.state.clearAll()
	e.state.GlobalError = api.ErrorMessage(err)
	e.state.Loading = false
	e.mu.Unlock()
	e.notify()
}

// Select makes a conversation active and lazily hydrates its messages: if
// the summary reports messages the local cache does not have yet, the full
// detail is fetched, the cached list replaced with the canonical one, and
// the summary re-promoted since title or counts may have changed server
// side. Freshly created and empty conversations skip the fetch.
func (e *Engine) Select(ctx context.Context, id string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	conv := e.state.conversation(id)
	if conv == nil {
		e.mu.Unlock()
		return
	}
	e.state.ActiveID = id
	e.state.ensure(id)
	needFetch := conv.MessageCount > 0 && len(e.state.Messages[id]) == 0
	e.mu.Unlock()
	e.notify()

	if !needFetch {
		return
	}

	detail, err := e.svc.GetConversation(ctx, id)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.Errors[id] = api.ErrorMessage(err)
		e.mu.Unlock()
		e.notify()
		return
	}
	e.state.Messages[id] = detail.Messages
	e.state.Errors[id] = ""
	e.state.Conversations = promote(e.state.Conversations, id, replaceWith(detail.Conversation))
	e.mu.Unlock()
	e.notify()
}
