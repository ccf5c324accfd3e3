package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

func testClient(t *testing.T, url string, timeoutMS string) Client {
	t.Helper()
	t.Setenv("BACKEND_API_URL", url)
	if timeoutMS != "" {
		t.Setenv("BACKEND_API_TIMEOUT", timeoutMS)
	}
	logg, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewClient(logg)
}

func TestChatComplete(t *testing.T) {
	var got wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "")
	out, err := c.ChatComplete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
		User:     UserContext{ID: "u1", Name: "Ada Lovelace"},
	})
	if err != nil {
		t.Fatalf("ChatComplete: %v", err)
	}
	if out.Content != "hello there" {
		t.Fatalf("content: got %q", out.Content)
	}
	if got.Model != "gpt-4" {
		t.Fatalf("model: got %q", got.Model)
	}
	if got.User.Role != "Unknown" || got.User.Department != "Unknown" {
		t.Fatalf("blank user fields not defaulted: %+v", got.User)
	}
	if got.User.Name != "Ada Lovelace" {
		t.Fatalf("user name not forwarded: %+v", got.User)
	}
}

func TestChatCompleteToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{
			"content":"done",
			"tool_calls":[
				{"id":"1","type":"function","function":{"name":"search_docs","arguments":"{\"query\":\"dosage\"}"}},
				{"id":"2","type":"function","function":{"name":"lookup","arguments":"not-json"}}
			]}}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "")
	out, err := c.ChatComplete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("ChatComplete: %v", err)
	}
	if len(out.ToolInvocations) != 2 {
		t.Fatalf("tool invocations: got %d", len(out.ToolInvocations))
	}
	first := out.ToolInvocations[0]
	if first.Type != "search_docs" || first.State != "output-available" {
		t.Fatalf("first invocation: %+v", first)
	}
	if first.Input["query"] != "dosage" {
		t.Fatalf("first input: %+v", first.Input)
	}
	second := out.ToolInvocations[1]
	if second.Input["raw"] != "not-json" {
		t.Fatalf("unparseable arguments not preserved: %+v", second.Input)
	}
}

func TestChatCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "50")
	_, err := c.ChatComplete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, apperr.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}

func TestChatCompleteUpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"non-2xx", http.StatusBadGateway, `{"error":"boom"}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"null content", http.StatusOK, `{"choices":[{"message":{"content":null}}]}`},
		{"malformed body", http.StatusOK, `{{{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := testClient(t, srv.URL, "")
			_, err := c.ChatComplete(context.Background(), Request{
				Messages: []Message{{Role: "user", Content: "hi"}},
			})
			if !errors.Is(err, apperr.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
			if errors.Is(err, apperr.ErrUpstreamTimeout) {
				t.Fatalf("gateway failure must not look like a timeout: %v", err)
			}
		})
	}
}
