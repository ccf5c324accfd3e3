package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/testutil"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
)

func newFeedbackService(t *testing.T) (FeedbackService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	svc := NewFeedbackService(
		tx, log,
		chat.NewConversationRepo(tx, log),
		chat.NewMessageRepo(tx, log),
		chat.NewFeedbackRepo(tx, log),
	)
	return svc, tx
}

func TestFeedbackOnAssistantMessage(t *testing.T) {
	svc, tx := newFeedbackService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, tx, fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]))
	conv := testutil.SeedConversation(t, ctx, tx, u.ID, "campaign review")
	now := time.Now().UTC()
	testutil.SeedMessage(t, ctx, tx, conv.ID, types.RoleUser, "how did Q2 perform", now)
	answer := testutil.SeedMessage(t, ctx, tx, conv.ID, types.RoleAssistant, "open rates rose 4%", now.Add(time.Second))

	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}
	row, err := svc.Create(dbc, CreateFeedbackInput{
		ConversationID: conv.ID,
		MessageID:      answer.ID,
		Rating:         types.FeedbackPositive,
		Category:       "accuracy",
		Details:        "matches the dashboard",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if row.UserID != u.ID || row.MessageID != answer.ID {
		t.Fatalf("feedback row not attributed correctly: %+v", row)
	}

	rows, err := svc.List(dbc, conv.ID, answer.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != row.ID {
		t.Fatalf("expected the created row back, got %d rows", len(rows))
	}
}

func TestFeedbackRejectsUserMessagesAndBadRatings(t *testing.T) {
	svc, tx := newFeedbackService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, tx, fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]))
	conv := testutil.SeedConversation(t, ctx, tx, u.ID, "campaign review")
	question := testutil.SeedMessage(t, ctx, tx, conv.ID, types.RoleUser, "how did Q2 perform", time.Now().UTC())

	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}
	_, err := svc.Create(dbc, CreateFeedbackInput{
		ConversationID: conv.ID,
		MessageID:      question.ID,
		Rating:         types.FeedbackPositive,
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("rating a user message must be a validation error, got %v", err)
	}

	_, err = svc.Create(dbc, CreateFeedbackInput{
		ConversationID: conv.ID,
		MessageID:      question.ID,
		Rating:         "meh",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown rating must be a validation error, got %v", err)
	}
}

func TestFeedbackForeignConversationIsNotFound(t *testing.T) {
	svc, tx := newFeedbackService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, ctx, tx, fmt.Sprintf("owner-%s@example.com", uuid.NewString()[:8]))
	stranger := testutil.SeedUser(t, ctx, tx, fmt.Sprintf("stranger-%s@example.com", uuid.NewString()[:8]))
	conv := testutil.SeedConversation(t, ctx, tx, owner.ID, "private thread")
	answer := testutil.SeedMessage(t, ctx, tx, conv.ID, types.RoleAssistant, "internal detail", time.Now().UTC())

	dbc := dbctx.Context{Ctx: authedCtx(stranger), Tx: tx}
	_, err := svc.Create(dbc, CreateFeedbackInput{
		ConversationID: conv.ID,
		MessageID:      answer.ID,
		Rating:         types.FeedbackNegative,
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign conversation must read as not found, got %v", err)
	}
	if _, err := svc.List(dbc, conv.ID, answer.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign list must read as not found, got %v", err)
	}
}
