// Package workspace implements the client-side synchronization engine for a
// Parley workspace: a local, optimistic view of conversations, messages and
// projects reconciled against the remote service, which stays the source of
// truth.
package workspace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parleyhq/parley/pkg/event"
	"github.com/parleyhq/parley/pkg/models"
)

// Service is the remote contract the engine consumes. *api.Client satisfies
// it; tests substitute fakes.
type Service interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	ListArchivedConversations(ctx context.Context) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, convType string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.ConversationDetail, error)
	SendTextMessage(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error)
	GenerateImageMessage(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error)
	RenameConversation(ctx context.Context, id, title string) (*models.Conversation, error)
	AssignProject(ctx context.Context, id string, projectID *string) (*models.Conversation, error)
	ArchiveConversation(ctx context.Context, id string) (*models.Conversation, error)
	UnarchiveConversation(ctx context.Context, id string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	DeleteAllConversations(ctx context.Context) (int, error)
	DeleteArchivedConversations(ctx context.Context) (int, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, name string) (*models.Project, error)
	RenameProject(ctx context.Context, id, name string) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	DeleteAllProjects(ctx context.Context) (int, error)
}

// Engine owns the workspace state. Every mutation follows the same shape:
// optimistic local apply where the operation allows it, remote call, then
// reconciliation with the server's canonical result or a bounded recovery.
//
// The state is guarded by a single mutex that is released while a remote
// call is in flight, so business logic never runs concurrently with itself.
// There is no retry policy at this layer; every failure is surfaced once.
type Engine struct {
	svc    Service
	events *event.Emitter
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	bootstrapped bool
	closed       bool
}

// New creates an engine over the given remote service. Events (state
// changes, session expiry) are published on events; pass a fresh emitter if
// the host has no shared one.
func New(svc Service, events *event.Emitter, logger *slog.Logger) *Engine {
	if events == nil {
		events = event.NewEmitter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		svc:    svc,
		events: events,
		logger: logger,
		state:  newState(),
	}
}

// Events returns the emitter the engine publishes on.
func (e *Engine) Events() *event.Emitter {
	return e.events
}

// Snapshot returns a deep copy of the current workspace state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Close marks the engine as torn down. In-flight remote calls are not
// aborted; their late results are discarded instead of written into the
// store. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// SessionExpired is the hook the transport calls on any 401. It forwards
// the signal to the host as a single event.
func (e *Engine) SessionExpired() {
	e.events.Emit(event.SessionExpiredEvent{})
}

func (e *Engine) notify() {
	e.events.Emit(event.WorkspaceStateChangedEvent{})
}
