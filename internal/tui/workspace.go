// Package tui renders the Parley workspace in the terminal: a conversation
// sidebar, a message pane and a prompt line, driven by the sync engine.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/parleyhq/parley/pkg/event"
	"github.com/parleyhq/parley/pkg/models"
	"github.com/parleyhq/parley/pkg/workspace"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	roleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Workspace wires the engine into a bubbletea program.
type Workspace struct {
	engine *workspace.Engine
}

func NewWorkspace(engine *workspace.Engine) *Workspace {
	return &Workspace{engine: engine}
}

func (w *Workspace) Run() error {
	p := tea.NewProgram(newModel(w.engine), tea.WithAltScreen())

	unsubState := w.engine.Events().On(event.WorkspaceStateChanged, func(event.Event) {
		p.Send(stateChangedMsg{})
	})
	defer unsubState()
	unsubSession := w.engine.Events().On(event.SessionExpired, func(event.Event) {
		p.Send(sessionExpiredMsg{})
	})
	defer unsubSession()

	go w.engine.Bootstrap(context.Background())

	_, err := p.Run()
	return err
}

type stateChangedMsg struct{}
type sessionExpiredMsg struct{}

type convItem struct {
	conv        models.Conversation
	projectName string
}

func (i convItem) FilterValue() string { return i.conv.Title }
func (i convItem) Title() string       { return i.conv.Title }

func (i convItem) Description() string {
	desc := fmt.Sprintf("%s | %d msgs", i.conv.Type, i.conv.MessageCount)
	if i.projectName != "" {
		desc += " | " + i.projectName
	}
	if i.conv.ArchivedAt != nil {
		desc += " | archived"
	}
	return desc
}

// Input modes: the single prompt line doubles as the composer and as the
// text field for naming operations.
type inputMode int

const (
	modeCompose inputMode = iota
	modeNewProject
	modeRenameConversation
)

type model struct {
	engine   *workspace.Engine
	snapshot workspace.State

	sidebar  list.Model
	messages viewport.Model
	input    textinput.Model

	mode         inputMode
	renameTarget string

	showArchived   bool
	sessionExpired bool
	width          int
	height         int
	ready          bool
}

func newModel(engine *workspace.Engine) model {
	delegate := list.NewDefaultDelegate()
	sidebar := list.New(nil, delegate, 0, 0)
	sidebar.Title = "Conversations"
	sidebar.SetShowHelp(false)
	sidebar.SetFilteringEnabled(false)

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Focus()

	return model{
		engine:   engine,
		snapshot: engine.Snapshot(),
		sidebar:  sidebar,
		input:    input,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refresh()
		return m, nil

	case stateChangedMsg:
		m.snapshot = m.engine.Snapshot()
		m.refresh()
		return m, nil

	case sessionExpiredMsg:
		m.sessionExpired = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			text := m.input.Value()
			m.input.Reset()
			switch m.mode {
			case modeNewProject:
				m.leavePrompt()
				return m, m.run(func(ctx context.Context) { m.engine.CreateProject(ctx, text) })
			case modeRenameConversation:
				id := m.renameTarget
				m.leavePrompt()
				return m, m.run(func(ctx context.Context) { m.engine.RenameConversation(ctx, id, text) })
			}
			return m, m.run(func(ctx context.Context) { m.engine.SendMessage(ctx, text) })
		case "esc":
			if m.mode != modeCompose {
				m.input.Reset()
				m.leavePrompt()
			}
			return m, nil
		case "ctrl+o":
			m.mode = modeNewProject
			m.input.Reset()
			m.input.Placeholder = "Project name..."
			return m, nil
		case "ctrl+e":
			if id, title := m.selectedConversation(); id != "" {
				m.mode = modeRenameConversation
				m.renameTarget = id
				m.input.SetValue(title)
				m.input.Placeholder = "New title..."
			}
			return m, nil
		case "ctrl+p":
			if id, next, ok := m.nextProject(); ok {
				return m, m.run(func(ctx context.Context) { m.engine.AssignProject(ctx, id, next) })
			}
			return m, nil
		case "ctrl+n":
			return m, m.run(func(ctx context.Context) { m.engine.NewConversation(ctx, models.ConversationTypeText) })
		case "ctrl+g":
			return m, m.run(func(ctx context.Context) { m.engine.NewConversation(ctx, models.ConversationTypeImage) })
		case "ctrl+d":
			if id := m.selectedID(); id != "" {
				return m, m.run(func(ctx context.Context) { m.engine.DeleteConversation(ctx, id) })
			}
			return m, nil
		case "ctrl+r":
			if id := m.selectedID(); id != "" {
				if m.showArchived {
					return m, m.run(func(ctx context.Context) { m.engine.UnarchiveConversation(ctx, id) })
				}
				return m, m.run(func(ctx context.Context) { m.engine.ArchiveConversation(ctx, id) })
			}
			return m, nil
		case "tab":
			m.showArchived = !m.showArchived
			m.engine.ClearGlobalError()
			m.refresh()
			if m.showArchived {
				return m, m.run(func(ctx context.Context) { m.engine.LoadArchived(ctx) })
			}
			return m, nil
		case "up", "down":
			var cmd tea.Cmd
			m.sidebar, cmd = m.sidebar.Update(msg)
			if !m.showArchived {
				if id := m.selectedID(); id != "" && id != m.snapshot.ActiveID {
					return m, tea.Batch(cmd, m.run(func(ctx context.Context) { m.engine.Select(ctx, id) }))
				}
			}
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run executes an engine operation off the UI goroutine; the engine pushes
// the resulting state back through the event emitter.
func (m model) run(op func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		op(context.Background())
		return nil
	}
}

func (m *model) selectedID() string {
	id, _ := m.selectedConversation()
	return id
}

func (m *model) selectedConversation() (id, title string) {
	item, ok := m.sidebar.SelectedItem().(convItem)
	if !ok {
		return "", ""
	}
	return item.conv.ID, item.conv.Title
}

// leavePrompt returns the input line to composer duty.
func (m *model) leavePrompt() {
	m.mode = modeCompose
	m.renameTarget = ""
	m.input.Placeholder = "Type a message..."
}

// nextProject cycles the active conversation through the known projects:
// unassigned, then each project in listing order, then unassigned again.
func (m *model) nextProject() (id string, next *string, ok bool) {
	active := m.snapshot.Active()
	if active == nil || len(m.snapshot.Projects) == 0 {
		return "", nil, false
	}
	if active.ProjectID == nil {
		return active.ID, &m.snapshot.Projects[0].ID, true
	}
	for i := range m.snapshot.Projects {
		if m.snapshot.Projects[i].ID == *active.ProjectID {
			if i+1 < len(m.snapshot.Projects) {
				return active.ID, &m.snapshot.Projects[i+1].ID, true
			}
			return active.ID, nil, true
		}
	}
	return active.ID, &m.snapshot.Projects[0].ID, true
}

func (m *model) layout() {
	sidebarWidth := m.width / 3
	if sidebarWidth > 44 {
		sidebarWidth = 44
	}
	contentHeight := m.height - 6
	if contentHeight < 3 {
		contentHeight = 3
	}
	m.sidebar.SetSize(sidebarWidth, contentHeight)
	m.messages = viewport.New(m.width-sidebarWidth-4, contentHeight)
	m.input.Width = m.width - 4
}

func (m *model) refresh() {
	convs := m.snapshot.Conversations
	title := "Conversations"
	if m.showArchived {
		convs = m.snapshot.Archived
		title = "Archived"
	}
	projectNames := make(map[string]string, len(m.snapshot.Projects))
	for _, p := range m.snapshot.Projects {
		projectNames[p.ID] = p.Name
	}
	items := make([]list.Item, len(convs))
	selected := 0
	for i, c := range convs {
		item := convItem{conv: c}
		if c.ProjectID != nil {
			item.projectName = projectNames[*c.ProjectID]
		}
		items[i] = item
		if !m.showArchived && c.ID == m.snapshot.ActiveID {
			selected = i
		}
	}
	m.sidebar.Title = title
	m.sidebar.SetItems(items)
	if len(items) > 0 {
		m.sidebar.Select(selected)
	}
	m.messages.SetContent(m.renderMessages())
	m.messages.GotoBottom()
}

func (m *model) renderMessages() string {
	if m.snapshot.ActiveID == "" {
		return helpStyle.Render("No conversation selected.")
	}
	var b strings.Builder
	for _, msg := range m.snapshot.ActiveMessages() {
		line := fmt.Sprintf("%s %s", roleStyle.Render(msg.Role+":"), msg.Content)
		if msg.Role == models.RoleSystem {
			line = errorStyle.Render(msg.Role + ": " + msg.Content)
		}
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	if convErr := m.snapshot.ActiveError(); convErr != "" {
		b.WriteString(errorStyle.Render("! " + convErr))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "Loading workspace..."
	}
	if m.sessionExpired {
		return errorStyle.Render("Session expired; run `parley login` again.") + "\n"
	}

	header := titleStyle.Render("Parley")
	if m.snapshot.Loading {
		header += helpStyle.Render("  loading...")
	}
	if m.snapshot.Sending {
		header += helpStyle.Render("  sending...")
	}
	if m.snapshot.GlobalError != "" {
		header += "  " + errorStyle.Render(m.snapshot.GlobalError)
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		paneStyle.Render(m.sidebar.View()),
		paneStyle.Render(m.messages.View()),
	)

	help := helpStyle.Render("enter send | ctrl+n new | ctrl+g new image | ctrl+e rename | ctrl+p project | ctrl+o new project | ctrl+d delete | ctrl+r (un)archive | tab archived | ctrl+c quit")
	switch m.mode {
	case modeNewProject:
		help = helpStyle.Render("enter create project | esc cancel")
	case modeRenameConversation:
		help = helpStyle.Render("enter rename | esc cancel")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.input.View(), help)
}
