package clientsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
)

// MessageSettlement mirrors the server's send/edit response: the committed
// user message plus either an assistant message or an error description.
type MessageSettlement struct {
	UserMessage *types.Message `json:"userMessage"`
	AIMessage   *types.Message `json:"aiMessage"`
	Error       string         `json:"error,omitempty"`
	Details     string         `json:"details,omitempty"`
}

// ConversationPatch is the partial-update payload for a conversation.
type ConversationPatch struct {
	Title      *string    `json:"title,omitempty"`
	IsStarred  *bool      `json:"is_starred,omitempty"`
	IsArchived *bool      `json:"is_archived,omitempty"`
	ProjectID  *uuid.UUID `json:"project_id,omitempty"`
}

// ProjectPatch is the partial-update payload for a project.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	IsStarred   *bool   `json:"is_starred,omitempty"`
	IsArchived  *bool   `json:"is_archived,omitempty"`
}

// API is the server surface the sync layer mutates through.
type API interface {
	SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*MessageSettlement, error)
	EditMessage(ctx context.Context, conversationID, messageID uuid.UUID, content string, regenerate bool) (*MessageSettlement, error)
	UpdateConversation(ctx context.Context, conversationID uuid.UUID, patch ConversationPatch) (*types.Conversation, error)
	DeleteConversation(ctx context.Context, conversationID uuid.UUID) error
	UpdateProject(ctx context.Context, projectID uuid.UUID, patch ProjectPatch) (*types.Project, error)
	DeleteProject(ctx context.Context, projectID uuid.UUID) error
}

type httpAPI struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPAPI talks to the chat backend at baseURL with a bearer token.
func NewHTTPAPI(baseURL, token string) API {
	return &httpAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (a *httpAPI) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
			return fmt.Errorf("%s (%s)", envelope.Error.Message, envelope.Error.Code)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (a *httpAPI) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*MessageSettlement, error) {
	var out MessageSettlement
	err := a.do(ctx, http.MethodPost,
		fmt.Sprintf("/api/conversations/%s/messages", conversationID),
		map[string]string{"message": content}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *httpAPI) EditMessage(ctx context.Context, conversationID, messageID uuid.UUID, content string, regenerate bool) (*MessageSettlement, error) {
	var out MessageSettlement
	err := a.do(ctx, http.MethodPatch,
		fmt.Sprintf("/api/conversations/%s/messages/%s", conversationID, messageID),
		map[string]any{"message": content, "regenerate": regenerate}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *httpAPI) UpdateConversation(ctx context.Context, conversationID uuid.UUID, patch ConversationPatch) (*types.Conversation, error) {
	var out struct {
		Conversation *types.Conversation `json:"conversation"`
	}
	err := a.do(ctx, http.MethodPatch,
		fmt.Sprintf("/api/conversations/%s", conversationID), patch, &out)
	if err != nil {
		return nil, err
	}
	return out.Conversation, nil
}

func (a *httpAPI) DeleteConversation(ctx context.Context, conversationID uuid.UUID) error {
	return a.do(ctx, http.MethodDelete,
		fmt.Sprintf("/api/conversations/%s", conversationID), nil, nil)
}

func (a *httpAPI) UpdateProject(ctx context.Context, projectID uuid.UUID, patch ProjectPatch) (*types.Project, error) {
	var out struct {
		Project *types.Project `json:"project"`
	}
	err := a.do(ctx, http.MethodPatch,
		fmt.Sprintf("/api/projects/%s", projectID), patch, &out)
	if err != nil {
		return nil, err
	}
	return out.Project, nil
}

func (a *httpAPI) DeleteProject(ctx context.Context, projectID uuid.UUID) error {
	return a.do(ctx, http.MethodDelete,
		fmt.Sprintf("/api/projects/%s", projectID), nil, nil)
}
