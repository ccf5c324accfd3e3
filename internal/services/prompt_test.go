package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/prompt"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/testutil"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
)

func newPromptService(t *testing.T) (PromptService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	return NewPromptService(tx, log, prompt.NewPromptRepo(tx, log)), tx
}

func TestPromptVisibilityAcrossUsers(t *testing.T) {
	svc, tx := newPromptService(t)
	owner := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("owner-%s@example.com", uuid.NewString()[:8]))
	other := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("other-%s@example.com", uuid.NewString()[:8]))

	ownerCtx := dbctx.Context{Ctx: authedCtx(owner), Tx: tx}
	otherCtx := dbctx.Context{Ctx: authedCtx(other), Tx: tx}

	personal, err := svc.Create(ownerCtx, CreatePromptInput{
		Title:   "My follow-up template",
		Content: "Summarize open rates for {{campaign}}",
		Type:    types.PromptSuggestion,
	})
	if err != nil {
		t.Fatalf("create personal prompt: %v", err)
	}

	shared := false
	sharedPrompt, err := svc.Create(ownerCtx, CreatePromptInput{
		Title:      "Team template",
		Content:    "Compare click-through across regions",
		Type:       types.PromptFinal,
		IsPersonal: &shared,
	})
	if err != nil {
		t.Fatalf("create shared prompt: %v", err)
	}

	// The other user sees the shared prompt but not the personal one.
	if _, err := svc.Get(otherCtx, sharedPrompt.ID); err != nil {
		t.Fatalf("shared prompt must be readable by everyone: %v", err)
	}
	if _, err := svc.Get(otherCtx, personal.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign personal prompt must read as not found, got %v", err)
	}

	visible, err := svc.List(otherCtx, prompt.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, p := range visible {
		if p.ID == personal.ID {
			t.Fatalf("foreign personal prompt leaked into the list")
		}
	}
}

func TestPromptSharedReadOnlyForNonOwner(t *testing.T) {
	svc, tx := newPromptService(t)
	owner := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("owner-%s@example.com", uuid.NewString()[:8]))
	other := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("other-%s@example.com", uuid.NewString()[:8]))

	ownerCtx := dbctx.Context{Ctx: authedCtx(owner), Tx: tx}
	otherCtx := dbctx.Context{Ctx: authedCtx(other), Tx: tx}

	shared := false
	p, err := svc.Create(ownerCtx, CreatePromptInput{
		Title:      "Team template",
		Content:    "Compare click-through across regions",
		Type:       types.PromptSuggestion,
		IsPersonal: &shared,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Readable but not writable: writes from a non-owner collapse to not
	// found, same as a prompt that does not exist.
	title := "hijacked"
	if _, err := svc.Update(otherCtx, p.ID, UpdatePromptInput{Title: &title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("non-owner update must be not found, got %v", err)
	}
	if err := svc.Delete(otherCtx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("non-owner delete must be not found, got %v", err)
	}

	// The owner can still edit.
	if _, err := svc.Update(ownerCtx, p.ID, UpdatePromptInput{Title: &title}); err != nil {
		t.Fatalf("owner update: %v", err)
	}
}

func TestPromptForkRequiresReadableSource(t *testing.T) {
	svc, tx := newPromptService(t)
	owner := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("owner-%s@example.com", uuid.NewString()[:8]))
	other := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("other-%s@example.com", uuid.NewString()[:8]))

	ownerCtx := dbctx.Context{Ctx: authedCtx(owner), Tx: tx}
	otherCtx := dbctx.Context{Ctx: authedCtx(other), Tx: tx}

	personal, err := svc.Create(ownerCtx, CreatePromptInput{
		Title:   "Private source",
		Content: "Internal notes",
		Type:    types.PromptSuggestion,
	})
	if err != nil {
		t.Fatalf("create source: %v", err)
	}

	_, err = svc.Create(otherCtx, CreatePromptInput{
		Title:        "Fork attempt",
		Content:      "copy",
		Type:         types.PromptSuggestion,
		ForkedFromID: &personal.ID,
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("forking an unreadable prompt must fail as not found, got %v", err)
	}

	fork, err := svc.Create(ownerCtx, CreatePromptInput{
		Title:        "Fork",
		Content:      "copy",
		Type:         types.PromptSuggestion,
		ForkedFromID: &personal.ID,
	})
	if err != nil {
		t.Fatalf("owner fork: %v", err)
	}
	if fork.ForkedFromID == nil || *fork.ForkedFromID != personal.ID {
		t.Fatalf("fork must record its source")
	}
}

func TestPromptCreateValidation(t *testing.T) {
	svc, tx := newPromptService(t)
	u := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]))
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	if _, err := svc.Create(dbc, CreatePromptInput{Title: "  ", Content: "body", Type: types.PromptSuggestion}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank title must be rejected, got %v", err)
	}
	if _, err := svc.Create(dbc, CreatePromptInput{Title: "t", Content: "body", Type: "draft"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown type must be rejected, got %v", err)
	}
}
