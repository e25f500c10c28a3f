package event

// ============================================================================
// Event Names (constants)
// ============================================================================

const (
	WorkspaceStateChanged = "workspace.stateChanged"
	SessionExpired        = "session.expired"
)

// ============================================================================
// Workspace Events
// ============================================================================

// WorkspaceStateChangedEvent is emitted after any workspace state mutation.
// Subscribers read the new state via the engine's Snapshot.
type WorkspaceStateChangedEvent struct{}

func (e WorkspaceStateChangedEvent) EventName() string { return WorkspaceStateChanged }

// ============================================================================
// Session Events
// ============================================================================

// SessionExpiredEvent is emitted once when any remote call answers 401.
// The host is expected to clear the active user and stop the workspace.
type SessionExpiredEvent struct{}

func (e SessionExpiredEvent) EventName() string { return SessionExpired }
