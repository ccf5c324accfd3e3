package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/envutil"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

// Message is one chat turn forwarded to the gateway. Only role and content
// cross the wire; attachments and tool records stay local.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserContext identifies the requesting user to the gateway so it can tailor
// answers. Blank fields are filled with "Unknown" before sending.
type UserContext struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// Request is one completion call.
type Request struct {
	Messages []Message
	Model    string
	User     UserContext
}

// Completion is the parsed gateway reply: the assistant text plus any tool
// calls the gateway reported making.
type Completion struct {
	Content         string
	ToolInvocations []types.ToolInvocation
}

// Client is the inference gateway adapter. Implementations must map a timeout
// to apperr.ErrUpstreamTimeout and every other failure to apperr.ErrUpstream.
type Client interface {
	ChatComplete(ctx context.Context, req Request) (*Completion, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient reads BACKEND_API_URL, BACKEND_API_TIMEOUT (milliseconds) and
// BACKEND_API_MODEL from the environment.
func NewClient(log *logger.Logger) Client {
	baseURL := strings.TrimRight(envutil.GetEnv("BACKEND_API_URL", "http://localhost:8000", log), "/")
	timeoutMS := envutil.GetEnvAsInt("BACKEND_API_TIMEOUT", 60000, log)
	model := envutil.GetEnv("BACKEND_API_MODEL", "gpt-4", log)

	return &client{
		log:     log.With("platform", "inference"),
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Messages []wireMessage `json:"messages"`
	Model    string        `json:"model"`
	User     UserContext   `json:"user"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content   *string        `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *client) ChatComplete(ctx context.Context, req Request) (*Completion, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: empty message list", apperr.ErrValidation)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	user := req.User
	if user.Name == "" {
		user.Name = "Unknown"
	}
	if user.Role == "" {
		user.Role = "Unknown"
	}
	if user.Department == "" {
		user.Department = "Unknown"
	}

	wr := wireRequest{Model: model, User: user}
	for _, m := range req.Messages {
		wr.Messages = append(wr.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}
	body, err := json.Marshal(wr)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			c.log.Warn("Inference gateway timed out", "elapsed", time.Since(start).String())
			return nil, fmt.Errorf("%w: %v", apperr.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apperr.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("Inference gateway returned non-2xx", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", apperr.ErrUpstream, resp.StatusCode)
	}

	var wresp wireResponse
	if err := json.Unmarshal(raw, &wresp); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", apperr.ErrUpstream, err)
	}
	if len(wresp.Choices) == 0 || wresp.Choices[0].Message.Content == nil {
		return nil, fmt.Errorf("%w: no completion content", apperr.ErrUpstream)
	}

	msg := wresp.Choices[0].Message
	out := &Completion{Content: *msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolInvocations = append(out.ToolInvocations, toToolInvocation(tc))
	}
	return out, nil
}

// toToolInvocation converts a gateway tool call into the stored shape. The
// arguments string is decoded as JSON when possible and preserved verbatim
// under "raw" when not.
func toToolInvocation(tc wireToolCall) types.ToolInvocation {
	name := tc.Function.Name
	if name == "" {
		name = tc.Type
	}
	input := map[string]any{}
	if args := strings.TrimSpace(tc.Function.Arguments); args != "" {
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			input = map[string]any{"raw": tc.Function.Arguments}
		}
	}
	return types.ToolInvocation{
		Type:   name,
		State:  types.StateOutputAvailable,
		Input:  input,
		Output: nil,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
