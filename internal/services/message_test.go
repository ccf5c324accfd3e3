package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/testutil"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/user"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/platform/inference"
	"github.com/pharmchat/pharmchat-backend/internal/requestdata"
)

type stubGateway struct {
	reply *inference.Completion
	err   error
	calls int
	last  inference.Request
}

func (g *stubGateway) ChatComplete(ctx context.Context, req inference.Request) (*inference.Completion, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return g.reply, nil
}

func authedCtx(u *types.User) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:     u.ID,
		ExternalID: u.ExternalID,
		Name:       u.Name,
		Surname:    u.Surname,
		Email:      u.Email,
	})
}

func sameInstant(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < time.Millisecond
}

func newMessageService(t *testing.T, gw inference.Client) (MessageService, dbctx.Context, *types.User) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	svc := NewMessageService(
		tx, log,
		chat.NewConversationRepo(tx, log),
		chat.NewMessageRepo(tx, log),
		user.NewUserProfileRepo(tx, log),
		gw,
	)
	u := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("%s@example.com", uuid.NewString()[:8]))
	return svc, dbctx.Context{Ctx: authedCtx(u), Tx: tx}, u
}

func TestEditPlainChangesOnlyContent(t *testing.T) {
	gw := &stubGateway{}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	now := time.Now().UTC()
	first := testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleUser, "original", now.Add(-2*time.Minute))
	testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleAssistant, "reply", now.Add(-1*time.Minute))

	res, err := svc.Edit(dbc, conv.ID, first.ID, "rewritten", false)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.AIMessage != nil || res.Error != "" {
		t.Fatalf("plain edit must not touch the assistant: %+v", res)
	}
	if res.UserMessage.Content != "rewritten" {
		t.Fatalf("content: got %q", res.UserMessage.Content)
	}
	if gw.calls != 0 {
		t.Fatalf("plain edit must not call the gateway")
	}

	var stored types.Message
	if err := tx.Where("id = ?", first.ID).Take(&stored).Error; err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if stored.Content != "rewritten" {
		t.Fatalf("stored content: got %q", stored.Content)
	}
	if !sameInstant(stored.CreatedAt, first.CreatedAt) {
		t.Fatalf("edit must not move the message: %v vs %v", stored.CreatedAt, first.CreatedAt)
	}

	var count int64
	if err := tx.Model(&types.Message{}).Where("conversation_id = ?", conv.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("plain edit must not create rows: got %d", count)
	}

	var storedConv types.Conversation
	if err := tx.Where("id = ?", conv.ID).Take(&storedConv).Error; err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if !sameInstant(storedConv.UpdatedAt, first.CreatedAt) {
		t.Fatalf("updated_at must match the edited message time: %v vs %v", storedConv.UpdatedAt, first.CreatedAt)
	}
}

func TestEditRegenerateAppendsAssistant(t *testing.T) {
	gw := &stubGateway{reply: &inference.Completion{
		Content: "fresh answer",
		ToolInvocations: []types.ToolInvocation{
			{Type: "search_docs", State: types.StateOutputAvailable, Input: map[string]any{"query": "x"}},
		},
	}}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	now := time.Now().UTC()
	first := testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleUser, "question", now.Add(-time.Minute))

	res, err := svc.Edit(dbc, conv.ID, first.ID, "better question", true)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.AIMessage == nil || res.AIMessage.Content != "fresh answer" {
		t.Fatalf("assistant message: %+v", res.AIMessage)
	}
	if len(res.AIMessage.ToolInvocations) == 0 {
		t.Fatalf("tool invocations not stored")
	}

	// Gateway saw the system instruction first, then the edited history.
	if gw.calls != 1 {
		t.Fatalf("gateway calls: got %d", gw.calls)
	}
	if gw.last.Messages[0].Role != "system" {
		t.Fatalf("first forwarded message must be the system instruction: %+v", gw.last.Messages[0])
	}
	if gw.last.Messages[1].Content != "better question" {
		t.Fatalf("gateway must see the edited content: %+v", gw.last.Messages[1])
	}

	msgs, err := chat.NewMessageRepo(tx, testutil.Logger(t)).ListByConversation(dbc, conv.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Role != types.RoleAssistant {
		t.Fatalf("assistant reply must append at the end: %d messages", len(msgs))
	}

	var storedConv types.Conversation
	if err := tx.Where("id = ?", conv.ID).Take(&storedConv).Error; err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if !sameInstant(storedConv.UpdatedAt, res.AIMessage.CreatedAt) {
		t.Fatalf("updated_at must match the assistant message time")
	}
}

func TestEditRegenerateFailureKeepsEdit(t *testing.T) {
	gw := &stubGateway{err: fmt.Errorf("%w: status 502", apperr.ErrUpstream)}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	first := testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleUser, "question", time.Now().UTC().Add(-time.Minute))

	res, err := svc.Edit(dbc, conv.ID, first.ID, "edited anyway", true)
	if err != nil {
		t.Fatalf("gateway failure must not surface as an error: %v", err)
	}
	if res.AIMessage != nil {
		t.Fatalf("no assistant message on failure: %+v", res.AIMessage)
	}
	if res.Error == "" || res.Details == "" {
		t.Fatalf("failure must be reported in the payload: %+v", res)
	}
	if res.UserMessage.Content != "edited anyway" {
		t.Fatalf("edit must persist: %q", res.UserMessage.Content)
	}

	var stored types.Message
	if err := tx.Where("id = ?", first.ID).Take(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Content != "edited anyway" {
		t.Fatalf("stored edit lost on gateway failure: %q", stored.Content)
	}

	var storedConv types.Conversation
	if err := tx.Where("id = ?", conv.ID).Take(&storedConv).Error; err != nil {
		t.Fatalf("reload conversation: %v", err)
	}
	if !sameInstant(storedConv.UpdatedAt, first.CreatedAt) {
		t.Fatalf("updated_at must fall back to the user message time")
	}
}

func TestEditRegenerateTimeoutIsDistinct(t *testing.T) {
	gw := &stubGateway{err: fmt.Errorf("%w: deadline", apperr.ErrUpstreamTimeout)}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	first := testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleUser, "question", time.Now().UTC())

	res, err := svc.Edit(dbc, conv.ID, first.ID, "edited", true)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.Error != "Request timeout" {
		t.Fatalf("timeout must be reported distinctly: %+v", res)
	}
}

func TestEditArchivedRejectedBeforeMutation(t *testing.T) {
	gw := &stubGateway{}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	first := testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleUser, "original", time.Now().UTC())
	if err := tx.Model(&types.Conversation{}).Where("id = ?", conv.ID).UpdateColumn("is_archived", true).Error; err != nil {
		t.Fatalf("archive: %v", err)
	}

	_, err := svc.Edit(dbc, conv.ID, first.ID, "nope", false)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}

	var stored types.Message
	if err := tx.Where("id = ?", first.ID).Take(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Content != "original" {
		t.Fatalf("archived rejection must leave the row untouched: %q", stored.Content)
	}
}

func TestEditNonUserRoleRejected(t *testing.T) {
	gw := &stubGateway{}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	reply := testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleAssistant, "reply", time.Now().UTC())

	_, err := svc.Edit(dbc, conv.ID, reply.ID, "tamper", false)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestEditForeignConversationIsNotFound(t *testing.T) {
	gw := &stubGateway{}
	svc, dbc, _ := newMessageService(t, gw)
	tx := dbc.Tx

	other := testutil.SeedUser(t, dbc.Ctx, tx, fmt.Sprintf("%s@example.com", uuid.NewString()[:8]))
	conv := testutil.SeedConversation(t, dbc.Ctx, tx, other.ID, "theirs")
	msg := testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, types.RoleUser, "hi", time.Now().UTC())

	_, err := svc.Edit(dbc, conv.ID, msg.ID, "steal", false)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign conversation must collapse to not found, got %v", err)
	}
}

func TestSendAppendsInOrder(t *testing.T) {
	gw := &stubGateway{reply: &inference.Completion{Content: "sure"}}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		testutil.SeedMessage(t, dbc.Ctx, tx, conv.ID, role, fmt.Sprintf("turn %d", i), base.Add(time.Duration(i)*time.Second))
	}

	res, err := svc.Send(dbc, conv.ID, "latest", nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.AIMessage == nil {
		t.Fatalf("expected assistant reply: %+v", res)
	}

	msgs, err := chat.NewMessageRepo(tx, testutil.Logger(t)).ListByConversation(dbc, conv.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 7 {
		t.Fatalf("expected 7 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("messages out of order at %d", i)
		}
	}
	if msgs[5].ID != res.UserMessage.ID || msgs[6].ID != res.AIMessage.ID {
		t.Fatalf("new turns must land at the end")
	}
}

func TestSendArchivedRejected(t *testing.T) {
	gw := &stubGateway{reply: &inference.Completion{Content: "sure"}}
	svc, dbc, u := newMessageService(t, gw)
	tx := dbc.Tx

	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "thread")
	if err := tx.Model(&types.Conversation{}).Where("id = ?", conv.ID).UpdateColumn("is_archived", true).Error; err != nil {
		t.Fatalf("archive: %v", err)
	}

	_, err := svc.Send(dbc, conv.ID, "hello", nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
	var count int64
	if err := tx.Model(&types.Message{}).Where("conversation_id = ?", conv.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no message row may be written for an archived conversation")
	}
}
