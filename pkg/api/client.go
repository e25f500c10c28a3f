// Package api implements the HTTP client for the Parley workspace service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/parleyhq/parley/pkg/models"
)

// Client talks to a Parley service over an authenticated HTTP channel.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client

	unauthorizedOnce sync.Once
	onUnauthorized   func()
}

// NewClient creates a client for the service at baseURL (e.g.
// "http://127.0.0.1:8088"). token may be empty until Login is called.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{},
	}
}

// OnUnauthorized registers the session-expired hook. The hook fires at most
// once per client, on the first 401 from any call.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// SetToken replaces the bearer token used by subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login authenticates and stores the returned session token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", req, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

// ========== Conversations ==========

func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var out []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListArchivedConversations(ctx context.Context) ([]models.Conversation, error) {
	var out []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/v1/archive", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateConversation(ctx context.Context, convType string) (*models.Conversation, error) {
	var out models.Conversation
	req := models.CreateConversationRequest{Type: convType}
	if err := c.do(ctx, http.MethodPost, "/api/v1/conversations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (*models.ConversationDetail, error) {
	var out models.ConversationDetail
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameConversation(ctx context.Context, id, title string) (*models.Conversation, error) {
	var out models.Conversation
	req := models.UpdateConversationRequest{Title: &title}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/conversations/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssignProject moves a conversation into a project, or out of any project
// when projectID is nil.
func (c *Client) AssignProject(ctx context.Context, id string, projectID *string) (*models.Conversation, error) {
	var out models.Conversation
	req := models.UpdateConversationRequest{ProjectID: models.OptionalID{Set: true, Value: projectID}}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/conversations/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ArchiveConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var out models.Conversation
	if err := c.do(ctx, http.MethodPost, "/api/v1/conversations/"+id+"/archive", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UnarchiveConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var out models.Conversation
	if err := c.do(ctx, http.MethodDelete, "/api/v1/conversations/"+id+"/archive", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/conversations/"+id, nil, nil)
}

func (c *Client) DeleteAllConversations(ctx context.Context) (int, error) {
	var out models.CountResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/conversations", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) DeleteArchivedConversations(ctx context.Context) (int, error) {
	var out models.CountResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/archive", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// ========== Sends ==========

func (c *Client) SendTextMessage(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error) {
	var out models.ConversationDetail
	req := models.SendMessageRequest{ConversationID: conversationID, Prompt: prompt}
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat/completions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateImageMessage(ctx context.Context, conversationID, prompt string) (*models.ConversationDetail, error) {
	var out models.ConversationDetail
	req := models.SendMessageRequest{ConversationID: conversationID, Prompt: prompt}
	if err := c.do(ctx, http.MethodPost, "/api/v1/images/generations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ========== Projects ==========

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var out models.Project
	req := models.CreateProjectRequest{Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/v1/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameProject(ctx context.Context, id, name string) (*models.Project, error) {
	var out models.Project
	req := models.UpdateProjectRequest{Name: name}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/projects/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/projects/"+id, nil, nil)
}

func (c *Client) DeleteAllProjects(ctx context.Context) (int, error) {
	var out models.CountResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/projects", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// ========== Transport ==========

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &RequestError{Message: fmt.Sprintf("encode request: %v", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RequestError{Message: fmt.Sprintf("build request: %v", err)}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &RequestError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.unauthorizedOnce.Do(c.onUnauthorized)
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RequestError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("request failed with status %d", resp.StatusCode)}
		var payload models.ErrorResponse
		if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
			re.Message = payload.Error
			re.Conversation = payload.Conversation
		}
		return re
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &RequestError{StatusCode: resp.StatusCode, Message: "unexpected response from server"}
		}
	}
	return nil
}
