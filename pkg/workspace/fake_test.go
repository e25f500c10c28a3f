package workspace

import (
	"context"
	"time"

	"github.com/parleyhq/parley/pkg/models"
)

// fakeService implements Service with overridable function fields; unset
// operations succeed with empty results.
type fakeService struct {
	listConversations         func(ctx context.Context) ([]models.Conversation, error)
	listArchivedConversations func(ctx context.Context) ([]models.Conversation, error)
	createConversation        func(ctx context.Context, convType string) (*models.Conversation, error)
	getConversation           func(ctx context.Context, id string) (*models.ConversationDetail, error)
	sendTextMessage           func(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error)
	generateImageMessage      func(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error)
	renameConversation        func(ctx context.Context, id, title string) (*models.Conversation, error)
	assignProject             func(ctx context.Context, id string, projectID *string) (*models.Conversation, error)
	archiveConversation       func(ctx context.Context, id string) (*models.Conversation, error)
	unarchiveConversation     func(ctx context.Context, id string) (*models.Conversation, error)
	deleteConversation        func(ctx context.Context, id string) error
	deleteAllConversations    func(ctx context.Context) (int, error)
	deleteArchived            func(ctx context.Context) (int, error)
	listProjects              func(ctx context.Context) ([]models.Project, error)
	createProject             func(ctx context.Context, name string) (*models.Project, error)
	renameProject             func(ctx context.Context, id, name string) (*models.Project, error)
	deleteProject             func(ctx context.Context, id string) error
	deleteAllProjects         func(ctx context.Context) (int, error)
}

func (f *fakeService) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	if f.listConversations != nil {
		return f.listConversations(ctx)
	}
	return nil, nil
}

func (f *fakeService) ListArchivedConversations(ctx context.Context) ([]models.Conversation, error) {
	if f.listArchivedConversations != nil {
		return f.listArchivedConversations(ctx)
	}
	return nil, nil
}

func (f *fakeService) CreateConversation(ctx context.Context, convType string) (*models.Conversation, error) {
	if f.createConversation != nil {
		return f.createConversation(ctx, convType)
	}
	c := newConv("created", models.DefaultTitle(convType), time.Now())
	c.Type = convType
	return &c, nil
}

func (f *fakeService) GetConversation(ctx context.Context, id string) (*models.ConversationDetail, error) {
	if f.getConversation != nil {
		return f.getConversation(ctx, id)
	}
	return &models.ConversationDetail{Conversation: newConv(id, "hydrated", time.Now())}, nil
}

func (f *fakeService) SendTextMessage(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error) {
	if f.sendTextMessage != nil {
		return f.sendTextMessage(ctx, conversationID, prompt)
	}
	return &models.ConversationDetail{Conversation: newConv(conversationID, prompt, time.Now())}, nil
}

func (f *fakeService) GenerateImageMessage(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error) {
	if f.generateImageMessage != nil {
		return f.generateImageMessage(ctx, conversationID, prompt)
	}
	return &models.ConversationDetail{Conversation: newConv(conversationID, prompt, time.Now())}, nil
}

func (f *fakeService) RenameConversation(ctx context.Context, id, title string) (*models.Conversation, error) {
	if f.renameConversation != nil {
		return f.renameConversation(ctx, id, title)
	}
	c := newConv(id, title, time.Now())
	return &c, nil
}

func (f *fakeService) AssignProject(ctx context.Context, id string, projectID *string) (*models.Conversation, error) {
	if f.assignProject != nil {
		return f.assignProject(ctx, id, projectID)
	}
	c := newConv(id, "assigned", time.Now())
	c.ProjectID = projectID
	return &c, nil
}

func (f *fakeService) ArchiveConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if f.archiveConversation != nil {
		return f.archiveConversation(ctx, id)
	}
	c := newConv(id, "archived", time.Now())
	now := time.Now()
	c.ArchivedAt = &now
	return &c, nil
}

func (f *fakeService) UnarchiveConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if f.unarchiveConversation != nil {
		return f.unarchiveConversation(ctx, id)
	}
	c := newConv(id, "restored", time.Now())
	return &c, nil
}

func (f *fakeService) DeleteConversation(ctx context.Context, id string) error {
	if f.deleteConversation != nil {
		return f.deleteConversation(ctx, id)
	}
	return nil
}

func (f *fakeService) DeleteAllConversations(ctx context.Context) (int, error) {
	if f.deleteAllConversations != nil {
		return f.deleteAllConversations(ctx)
	}
	return 0, nil
}

func (f *fakeService) DeleteArchivedConversations(ctx context.Context) (int, error) {
	if f.deleteArchived != nil {
		return f.deleteArchived(ctx)
	}
	return 0, nil
}

func (f *fakeService) ListProjects(ctx context.Context) ([]models.Project, error) {
	if f.listProjects != nil {
		return f.listProjects(ctx)
	}
	return nil, nil
}

func (f *fakeService) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	if f.createProject != nil {
		return f.createProject(ctx, name)
	}
	return &models.Project{ID: "project-" + name, Name: name}, nil
}

func (f *fakeService) RenameProject(ctx context.Context, id, name string) (*models.Project, error) {
	if f.renameProject != nil {
		return f.renameProject(ctx, id, name)
	}
	return &models.Project{ID: id, Name: name}, nil
}

func (f *fakeService) DeleteProject(ctx context.Context, id string) error {
	if f.deleteProject != nil {
		return f.deleteProject(ctx, id)
	}
	return nil
}

func (f *fakeService) DeleteAllProjects(ctx context.Context) (int, error) {
	if f.deleteAllProjects != nil {
		return f.deleteAllProjects(ctx)
	}
	return 0, nil
}

// ========== helpers ==========

func newConv(id, title string, updatedAt time.Time) models.Conversation {
	return models.Conversation{
		ID:        id,
		Title:     title,
		Type:      models.ConversationTypeText,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func newEngine(svc Service) *Engine {
	return New(svc, nil, nil)
}

// bootstrapped builds an engine whose workspace is seeded with the given
// conversations and projects.
func bootstrapped(convs []models.Conversation, projects []models.Project) (*Engine, *fakeService) {
	svc := &fakeService{
		listConversations: func(context.Context) ([]models.Conversation, error) {
			return append([]models.Conversation(nil), convs...), nil
		},
		listProjects: func(context.Context) ([]models.Project, error) {
			return append([]models.Project(nil), projects...), nil
		},
	}
	e := newEngine(svc)
	e.Bootstrap(context.Background())
	return e, svc
}

func ids(convs []models.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
