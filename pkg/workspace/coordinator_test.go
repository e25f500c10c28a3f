package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/parleyhq/parley/pkg/api"
	"github.com/parleyhq/parley/pkg/models"
)

func TestSendMessage_OptimisticThenCanonical(t *testing.T) {
	conv := newConv("c1", models.DefaultTitleText, time.Now())
	e, svc := bootstrapped([]models.Conversation{conv}, nil)

	svc.sendTextMessage = func(_ context.Context, id, prompt string) (*models.ConversationDetail, error) {
		c := newConv(id, "what is the capital of France?", time.Now())
		c.MessageCount = 2
		return &models.ConversationDetail{
			Conversation: c,
			Messages: []models.Message{
				{ID: "m1", ConversationID: id, Role: models.RoleUser, Content: prompt},
				{ID: "m2", ConversationID: id, Role: models.RoleAssistant, Content: "Paris."},
			},
		}, nil
	}

	e.SendMessage(context.Background(), "what is the capital of France?")

	st := e.Snapshot()
	if st.Sending {
		t.Error("sending flag stuck after reconcile")
	}
	msgs := st.Messages["c1"]
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 canonical ones", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("optimistic message survived the canonical replacement: %+v", msgs)
	}
	if st.Conversations[0].Title != "what is the capital of France?" {
		t.Errorf("title = %q", st.Conversations[0].Title)
	}
	if st.Conversations[0].MessageCount != 2 {
		t.Errorf("message count = %d, want 2", st.Conversations[0].MessageCount)
	}
	if st.Errors["c1"] != "" {
		t.Errorf("error slot = %q after success", st.Errors["c1"])
	}
}

func TestSendMessage_DerivesTitleOptimistically(t *testing.T) {
	conv := newConv("c1", models.DefaultTitleText, time.Now())
	e, svc := bootstrapped([]models.Conversation{conv}, nil)

	// Capture the optimistic state from inside the remote call, while the
	// reconcile has not run yet.
	var during State
	svc.sendTextMessage = func(_ context.Context, id, prompt string) (*models.ConversationDetail, error) {
		during = e.Snapshot()
		c := newConv(id, prompt, time.Now())
		return &models.ConversationDetail{Conversation: c}, nil
	}

	e.SendMessage(context.Background(), "hello there")

	if !during.Sending {
		t.Error("sending flag not set while the call was in flight")
	}
	if during.Conversations[0].Title != "hello there" {
		t.Errorf("optimistic title = %q", during.Conversations[0].Title)
	}
	if during.Conversations[0].MessageCount != 1 {
		t.Errorf("optimistic message count = %d, want 1", during.Conversations[0].MessageCount)
	}
	msgs := during.Messages["c1"]
	if len(msgs) != 1 || msgs[0].Role != models.RoleUser || msgs[0].Content != "hello there" {
		t.Errorf("optimistic messages = %+v", msgs)
	}
}

func TestSendMessage_FailureKeepsOptimisticChanges(t *testing.T) {
	conv := newConv("c1", models.DefaultTitleText, time.Now())
	e, svc := bootstrapped([]models.Conversation{conv}, nil)

	svc.sendTextMessage = func(context.Context, string, string) (*models.ConversationDetail, error) {
		return nil, &api.RequestError{StatusCode: 429, Message: "Rate limited"}
	}

	e.SendMessage(context.Background(), "hello there")

	st := e.Snapshot()
	if st.Errors["c1"] != "Rate limited" {
		t.Errorf("error slot = %q, want the server message", st.Errors["c1"])
	}
	msgs := st.Messages["c1"]
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want optimistic user + system", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[0].Content != "hello there" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != models.RoleSystem || msgs[1].Content != "Rate limited" {
		t.Errorf("system message = %+v", msgs[1])
	}
	// The optimistic title and count are deliberately not rolled back.
	if st.Conversations[0].Title != "hello there" {
		t.Errorf("title = %q after failed send", st.Conversations[0].Title)
	}
	if st.Conversations[0].MessageCount != 1 {
		t.Errorf("message count = %d after failed send", st.Conversations[0].MessageCount)
	}
	if st.GlobalError != "" {
		t.Errorf("send failure leaked into the global error: %q", st.GlobalError)
	}
	if st.Sending {
		t.Error("sending flag stuck after failure")
	}
}

func TestSendMessage_FailureAdoptsServerSnapshot(t *testing.T) {
	conv := newConv("c1", "existing chat", time.Now())
	conv.MessageCount = 1
	e, svc := bootstrapped([]models.Conversation{conv}, nil)

	snap := newConv("c1", "existing chat", time.Now())
	snap.MessageCount = 2
	svc.sendTextMessage = func(_ context.Context, id, prompt string) (*models.ConversationDetail, error) {
		return nil, &api.RequestError{
			StatusCode: 502,
			Message:    "model backend unreachable",
			Conversation: &models.ConversationDetail{
				Conversation: snap,
				Messages: []models.Message{
					{ID: "m1", ConversationID: id, Role: models.RoleUser, Content: "first"},
					{ID: "m2", ConversationID: id, Role: models.RoleUser, Content: prompt},
				},
			},
		}
	}

	e.SendMessage(context.Background(), "second")

	st := e.Snapshot()
	msgs := st.Messages["c1"]
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want snapshot pair + system", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("snapshot messages not adopted: %+v", msgs)
	}
	if msgs[2].Role != models.RoleSystem || msgs[2].Content != "model backend unreachable" {
		t.Errorf("system message = %+v", msgs[2])
	}
	if st.Conversations[0].MessageCount != 2 {
		t.Errorf("summary not replaced by snapshot: %+v", st.Conversations[0])
	}
}

func TestSendMessage_SingleFlight(t *testing.T) {
	conv := newConv("c1", "chat", time.Now())
	e, svc := bootstrapped([]models.Conversation{conv}, nil)

	release := make(chan struct{})
	entered := make(chan struct{})
	var calls int
	svc.sendTextMessage = func(_ context.Context, id, prompt string) (*models.ConversationDetail, error) {
		calls++
		close(entered)
		<-release
		c := newConv(id, "chat", time.Now())
		return &models.ConversationDetail{Conversation: c}, nil
	}

	done := make(chan struct{})
	go func() {
		e.SendMessage(context.Background(), "slow")
		close(done)
	}()
	<-entered

	// A second send while one is pending must not reach the service.
	e.SendMessage(context.Background(), "ignored")

	close(release)
	<-done
	if calls != 1 {
		t.Fatalf("service called %d times, want 1", calls)
	}
}

func TestSendMessage_DeletedMidFlightIsNotResurrected(t *testing.T) {
	convs := []models.Conversation{
		newConv("c1", "chat", time.Now()),
		newConv("c2", "other", time.Now().Add(-time.Hour)),
	}
	e, svc := bootstrapped(convs, nil)

	svc.sendTextMessage = func(_ context.Context, id, prompt string) (*models.ConversationDetail, error) {
		// Delete the target while its send is still in flight.
		e.DeleteConversation(context.Background(), "c1")
		c := newConv(id, "chat", time.Now())
		return &models.ConversationDetail{Conversation: c}, nil
	}

	e.SendMessage(context.Background(), "hello")

	st := e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c2") {
		t.Fatalf("conversations = %v, the deleted one came back", ids(st.Conversations))
	}
	if _, ok := st.Messages["c1"]; ok {
		t.Error("message slot for the deleted conversation survived")
	}
	if st.Sending {
		t.Error("sending flag stuck")
	}
}

func TestSendMessage_BlankPromptIsNoop(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	svc.sendTextMessage = func(context.Context, string, string) (*models.ConversationDetail, error) {
		t.Fatal("blank prompt reached the service")
		return nil, nil
	}
	e.SendMessage(context.Background(), "   \n\t ")
}

func TestSendMessage_ImageConversationUsesImageEndpoint(t *testing.T) {
	conv := newConv("c1", models.DefaultTitleImage, time.Now())
	conv.Type = models.ConversationTypeImage
	e, svc := bootstrapped([]models.Conversation{conv}, nil)

	var used string
	svc.sendTextMessage = func(_ context.Context, id, _ string) (*models.ConversationDetail, error) {
		used = "text"
		return &models.ConversationDetail{Conversation: newConv(id, "x", time.Now())}, nil
	}
	svc.generateImageMessage = func(_ context.Context, id, _ string) (*models.ConversationDetail, error) {
		used = "image"
		c := newConv(id, "x", time.Now())
		c.Type = models.ConversationTypeImage
		return &models.ConversationDetail{Conversation: c}, nil
	}

	e.SendMessage(context.Background(), "a red bicycle")
	if used != "image" {
		t.Fatalf("dispatched to %q endpoint", used)
	}
}

func TestNewConversation_SelectsAndFronts(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	svc.createConversation = func(_ context.Context, convType string) (*models.Conversation, error) {
		c := newConv("c2", models.DefaultTitle(convType), time.Now())
		c.Type = convType
		return &c, nil
	}

	e.NewConversation(context.Background(), models.ConversationTypeImage)

	st := e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c2", "c1") {
		t.Fatalf("order = %v", ids(st.Conversations))
	}
	if st.ActiveID != "c2" {
		t.Errorf("active = %q", st.ActiveID)
	}
	if st.Conversations[0].Type != models.ConversationTypeImage {
		t.Errorf("type = %q", st.Conversations[0].Type)
	}
	if _, ok := st.Messages["c2"]; !ok {
		t.Error("no message slot for the new conversation")
	}
}

func TestNewConversation_FailureSetsGlobalError(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	svc.createConversation = func(context.Context, string) (*models.Conversation, error) {
		return nil, &api.RequestError{StatusCode: 500, Message: "cannot create"}
	}
	e.NewConversation(context.Background(), models.ConversationTypeText)

	st := e.Snapshot()
	if st.GlobalError != "cannot create" {
		t.Errorf("global error = %q", st.GlobalError)
	}
	if !equalIDs(ids(st.Conversations), "c1") || st.ActiveID != "c1" {
		t.Errorf("local state changed on failed create: %v active=%q", ids(st.Conversations), st.ActiveID)
	}
}

func TestDeleteConversation_ActiveReselectsNext(t *testing.T) {
	p := "p1"
	tagged := newConv("c1", "newest", time.Now())
	tagged.ProjectID = &p
	e, _ := bootstrapped(
		[]models.Conversation{tagged, newConv("c2", "older", time.Now().Add(-time.Hour))},
		[]models.Project{{ID: "p1", Name: "work", ConversationCount: 1}},
	)

	e.DeleteConversation(context.Background(), "c1")

	st := e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c2") {
		t.Fatalf("conversations = %v", ids(st.Conversations))
	}
	if st.ActiveID != "c2" {
		t.Errorf("active = %q, want the next remaining conversation", st.ActiveID)
	}
	if st.Projects[0].ConversationCount != 0 {
		t.Errorf("project count = %d after delete", st.Projects[0].ConversationCount)
	}
	if _, ok := st.Messages["c1"]; ok {
		t.Error("message slot survived the delete")
	}
}

func TestDeleteConversation_LastOneLeavesNoSelection(t *testing.T) {
	e, _ := bootstrapped([]models.Conversation{newConv("c1", "only", time.Now())}, nil)
	e.DeleteConversation(context.Background(), "c1")
	st := e.Snapshot()
	if len(st.Conversations) != 0 || st.ActiveID != "" {
		t.Fatalf("conversations = %v active = %q", ids(st.Conversations), st.ActiveID)
	}
}

func TestDeleteConversation_RemoteFailureKeepsRemoval(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{
		newConv("c1", "newest", time.Now()),
		newConv("c2", "older", time.Now().Add(-time.Hour)),
	}, nil)
	svc.deleteConversation = func(context.Context, string) error {
		return &api.RequestError{StatusCode: 500, Message: "delete failed"}
	}

	e.DeleteConversation(context.Background(), "c1")

	st := e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c2") {
		t.Fatalf("optimistic removal rolled back: %v", ids(st.Conversations))
	}
	if st.GlobalError != "delete failed" {
		t.Errorf("global error = %q", st.GlobalError)
	}
}

func TestArchiveUnarchive_RoundTrip(t *testing.T) {
	p := "p1"
	tagged := newConv("c1", "newest", time.Now())
	tagged.ProjectID = &p
	e, svc := bootstrapped(
		[]models.Conversation{tagged, newConv("c2", "older", time.Now().Add(-time.Hour))},
		[]models.Project{{ID: "p1", Name: "work", ConversationCount: 1}},
	)

	svc.archiveConversation = func(_ context.Context, id string) (*models.Conversation, error) {
		c := newConv(id, "newest", time.Now())
		c.ProjectID = &p
		now := time.Now()
		c.ArchivedAt = &now
		return &c, nil
	}
	svc.unarchiveConversation = func(_ context.Context, id string) (*models.Conversation, error) {
		c := newConv(id, "newest", time.Now())
		c.ProjectID = &p
		return &c, nil
	}

	e.ArchiveConversation(context.Background(), "c1")

	st := e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c2") || !equalIDs(ids(st.Archived), "c1") {
		t.Fatalf("active = %v archived = %v", ids(st.Conversations), ids(st.Archived))
	}
	if st.ActiveID != "c2" {
		t.Errorf("active = %q after archiving the selection", st.ActiveID)
	}
	if st.Archived[0].ArchivedAt == nil {
		t.Error("archived record missing the server timestamp")
	}
	if st.Projects[0].ConversationCount != 0 {
		t.Errorf("project count = %d after archive", st.Projects[0].ConversationCount)
	}

	e.UnarchiveConversation(context.Background(), "c1")

	st = e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c1", "c2") || len(st.Archived) != 0 {
		t.Fatalf("active = %v archived = %v", ids(st.Conversations), ids(st.Archived))
	}
	if st.Projects[0].ConversationCount != 1 {
		t.Errorf("project count = %d after unarchive", st.Projects[0].ConversationCount)
	}
	if _, ok := st.Messages["c1"]; !ok {
		t.Error("restored conversation has no message slot")
	}
}

func TestArchiveConversation_RemoteFailureLeavesStateAlone(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	svc.archiveConversation = func(context.Context, string) (*models.Conversation, error) {
		return nil, &api.RequestError{StatusCode: 500, Message: "archive failed"}
	}
	e.ArchiveConversation(context.Background(), "c1")

	st := e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c1") || len(st.Archived) != 0 {
		t.Fatalf("state moved despite failure: %v / %v", ids(st.Conversations), ids(st.Archived))
	}
	if st.GlobalError != "archive failed" {
		t.Errorf("global error = %q", st.GlobalError)
	}
}

func TestRenameConversation_PromotesCanonicalRecord(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{
		newConv("c1", "newest", time.Now()),
		newConv("c2", "older", time.Now().Add(-time.Hour)),
	}, nil)
	svc.renameConversation = func(_ context.Context, id, title string) (*models.Conversation, error) {
		c := newConv(id, title, time.Now())
		return &c, nil
	}

	e.RenameConversation(context.Background(), "c2", "  quarterly report  ")

	st := e.Snapshot()
	if !equalIDs(ids(st.Conversations), "c2", "c1") {
		t.Fatalf("order = %v, rename should promote", ids(st.Conversations))
	}
	if st.Conversations[0].Title != "quarterly report" {
		t.Errorf("title = %q", st.Conversations[0].Title)
	}
}

func TestRenameConversation_ArchivedRenamedInPlace(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	e.ArchiveConversation(context.Background(), "c1")

	svc.renameConversation = func(_ context.Context, id, title string) (*models.Conversation, error) {
		c := newConv(id, title, time.Now())
		now := time.Now()
		c.ArchivedAt = &now
		return &c, nil
	}
	e.RenameConversation(context.Background(), "c1", "kept in archive")

	st := e.Snapshot()
	if len(st.Conversations) != 0 {
		t.Fatalf("renaming an archived conversation moved it: %v", ids(st.Conversations))
	}
	if len(st.Archived) != 1 || st.Archived[0].Title != "kept in archive" {
		t.Fatalf("archived = %+v", st.Archived)
	}
}

func TestRenameConversation_BlankTitleIsNoop(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	svc.renameConversation = func(context.Context, string, string) (*models.Conversation, error) {
		t.Fatal("blank rename reached the service")
		return nil, nil
	}
	e.RenameConversation(context.Background(), "c1", "   ")
}

func TestAssignProject_MovesCountBetweenProjects(t *testing.T) {
	p1, p2 := "p1", "p2"
	tagged := newConv("c1", "chat", time.Now())
	tagged.ProjectID = &p1
	e, svc := bootstrapped(
		[]models.Conversation{tagged},
		[]models.Project{
			{ID: "p1", Name: "work", ConversationCount: 1},
			{ID: "p2", Name: "home", ConversationCount: 0},
		},
	)
	svc.assignProject = func(_ context.Context, id string, projectID *string) (*models.Conversation, error) {
		c := newConv(id, "chat", time.Now())
		c.ProjectID = projectID
		return &c, nil
	}

	e.AssignProject(context.Background(), "c1", &p2)

	st := e.Snapshot()
	if st.Projects[0].ConversationCount != 0 || st.Projects[1].ConversationCount != 1 {
		t.Fatalf("counts = %d/%d, want 0/1", st.Projects[0].ConversationCount, st.Projects[1].ConversationCount)
	}
	if st.Conversations[0].ProjectID == nil || *st.Conversations[0].ProjectID != "p2" {
		t.Errorf("conversation project = %v", st.Conversations[0].ProjectID)
	}

	// Clearing the assignment gives the count back to nobody.
	e.AssignProject(context.Background(), "c1", nil)
	st = e.Snapshot()
	if st.Projects[1].ConversationCount != 0 {
		t.Errorf("count = %d after clearing assignment", st.Projects[1].ConversationCount)
	}
	if st.Conversations[0].ProjectID != nil {
		t.Errorf("conversation project = %v, want nil", st.Conversations[0].ProjectID)
	}
}

func TestLoadArchived_SortedByRecency(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	base := time.Now()
	svc.listArchivedConversations = func(context.Context) ([]models.Conversation, error) {
		return []models.Conversation{
			newConv("a-old", "old", base.Add(-time.Hour)),
			newConv("a-new", "new", base),
		}, nil
	}
	e.LoadArchived(context.Background())
	if st := e.Snapshot(); !equalIDs(ids(st.Archived), "a-new", "a-old") {
		t.Fatalf("archived = %v", ids(st.Archived))
	}
}

func TestDeleteAllConversations_KeepsProjectsWithZeroCounts(t *testing.T) {
	p := "p1"
	tagged := newConv("c1", "chat", time.Now())
	tagged.ProjectID = &p
	e, _ := bootstrapped(
		[]models.Conversation{tagged, newConv("c2", "other", time.Now().Add(-time.Hour))},
		[]models.Project{{ID: "p1", Name: "work", ConversationCount: 1}},
	)

	e.DeleteAllConversations(context.Background())

	st := e.Snapshot()
	if len(st.Conversations) != 0 || st.ActiveID != "" {
		t.Fatalf("conversations = %v active = %q", ids(st.Conversations), st.ActiveID)
	}
	if len(st.Projects) != 1 || st.Projects[0].ConversationCount != 0 {
		t.Fatalf("projects = %+v", st.Projects)
	}
	if len(st.Messages) != 0 {
		t.Errorf("message slots survived: %v", st.Messages)
	}
}

func TestDeleteArchivedConversations_LeavesActiveAlone(t *testing.T) {
	e, _ := bootstrapped([]models.Conversation{
		newConv("c1", "chat", time.Now()),
		newConv("c2", "gone soon", time.Now().Add(-time.Hour)),
	}, nil)
	e.ArchiveConversation(context.Background(), "c2")

	e.DeleteArchivedConversations(context.Background())

	st := e.Snapshot()
	if len(st.Archived) != 0 {
		t.Fatalf("archived = %v", ids(st.Archived))
	}
	if !equalIDs(ids(st.Conversations), "c1") {
		t.Fatalf("conversations = %v", ids(st.Conversations))
	}
}

func TestDeleteProject_CascadesAndReselects(t *testing.T) {
	p := "p1"
	inProject := newConv("c1", "newest", time.Now())
	inProject.ProjectID = &p
	e, _ := bootstrapped(
		[]models.Conversation{inProject, newConv("c2", "older", time.Now().Add(-time.Hour))},
		[]models.Project{{ID: "p1", Name: "work", ConversationCount: 1}},
	)

	e.DeleteProject(context.Background(), "p1")

	st := e.Snapshot()
	if len(st.Projects) != 0 {
		t.Fatalf("projects = %+v", st.Projects)
	}
	if !equalIDs(ids(st.Conversations), "c2") {
		t.Fatalf("conversations = %v", ids(st.Conversations))
	}
	if st.ActiveID != "c2" {
		t.Errorf("active = %q after cascade removed the selection", st.ActiveID)
	}
}

func TestDeleteAllProjects_SparesProjectlessConversations(t *testing.T) {
	p1, p2 := "p1", "p2"
	a := newConv("c1", "in p1", time.Now())
	a.ProjectID = &p1
	b := newConv("c2", "free", time.Now().Add(-time.Hour))
	c := newConv("c3", "in p2", time.Now().Add(-2*time.Hour))
	c.ProjectID = &p2
	e, _ := bootstrapped(
		[]models.Conversation{a, b, c},
		[]models.Project{{ID: "p1", ConversationCount: 1}, {ID: "p2", ConversationCount: 1}},
	)

	e.DeleteAllProjects(context.Background())

	st := e.Snapshot()
	if len(st.Projects) != 0 {
		t.Fatalf("projects = %+v", st.Projects)
	}
	if !equalIDs(ids(st.Conversations), "c2") {
		t.Fatalf("conversations = %v", ids(st.Conversations))
	}
	if st.ActiveID != "c2" {
		t.Errorf("active = %q", st.ActiveID)
	}
}

func TestCreateProject_AppendsCanonicalRecord(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	svc.createProject = func(_ context.Context, name string) (*models.Project, error) {
		return &models.Project{ID: "p-new", Name: name}, nil
	}
	e.CreateProject(context.Background(), "  research  ")
	st := e.Snapshot()
	if len(st.Projects) != 1 || st.Projects[0].Name != "research" {
		t.Fatalf("projects = %+v", st.Projects)
	}
}

func TestClose_DiscardsLateResults(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)

	release := make(chan struct{})
	entered := make(chan struct{})
	svc.sendTextMessage = func(_ context.Context, id, _ string) (*models.ConversationDetail, error) {
		close(entered)
		<-release
		c := newConv(id, "late canonical title", time.Now())
		return &models.ConversationDetail{Conversation: c}, nil
	}

	done := make(chan struct{})
	go func() {
		e.SendMessage(context.Background(), "hello")
		close(done)
	}()
	<-entered
	e.Close()
	close(release)
	<-done

	if st := e.Snapshot(); st.Conversations[0].Title == "late canonical title" {
		t.Fatal("late result written after Close")
	}
}

func TestClearErrors(t *testing.T) {
	e, svc := bootstrapped([]models.Conversation{newConv("c1", "chat", time.Now())}, nil)
	svc.sendTextMessage = func(context.Context, string, string) (*models.ConversationDetail, error) {
		return nil, &api.RequestError{StatusCode: 500, Message: "boom"}
	}
	svc.createProject = func(context.Context, string) (*models.Project, error) {
		return nil, &api.RequestError{StatusCode: 500, Message: "global boom"}
	}
	e.SendMessage(context.Background(), "hi")
	e.CreateProject(context.Background(), "x")

	e.ClearConversationError("c1")
	e.ClearGlobalError()

	st := e.Snapshot()
	if st.Errors["c1"] != "" {
		t.Errorf("conversation error = %q after clear", st.Errors["c1"])
	}
	if st.GlobalError != "" {
		t.Errorf("global error = %q after clear", st.GlobalError)
	}
}
