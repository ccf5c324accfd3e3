package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/project"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/testutil"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
)

func newProjectService(t *testing.T) (ProjectService, *gorm.DB, *types.User) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	svc := NewProjectService(
		tx, log,
		project.NewProjectRepo(tx, log),
		chat.NewConversationRepo(tx, log),
	)
	u := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("%s@example.com", uuid.NewString()[:8]))
	return svc, tx, u
}

func TestProjectNameConflictIsPerOwner(t *testing.T) {
	svc, tx, u := newProjectService(t)
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	if _, err := svc.Create(dbc, CreateProjectInput{Name: "oncology", DisplayName: "Oncology"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(dbc, CreateProjectInput{Name: "oncology", DisplayName: "Oncology again"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate name for same owner: expected conflict, got %v", err)
	}

	// Same name under a different owner is fine.
	other := testutil.SeedUser(t, dbc.Ctx, tx, fmt.Sprintf("%s@example.com", uuid.NewString()[:8]))
	otherDbc := dbctx.Context{Ctx: authedCtx(other), Tx: tx}
	if _, err := svc.Create(otherDbc, CreateProjectInput{Name: "oncology", DisplayName: "Oncology"}); err != nil {
		t.Fatalf("same name, different owner: %v", err)
	}
}

func TestProjectRenameConflict(t *testing.T) {
	svc, tx, u := newProjectService(t)
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	a, err := svc.Create(dbc, CreateProjectInput{Name: "alpha", DisplayName: "Alpha"})
	if err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	if _, err := svc.Create(dbc, CreateProjectInput{Name: "beta", DisplayName: "Beta"}); err != nil {
		t.Fatalf("create beta: %v", err)
	}

	name := "beta"
	if _, err := svc.Update(dbc, a.ID, UpdateProjectInput{Name: &name}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("rename onto taken name: expected conflict, got %v", err)
	}

	// Renaming to its own current name is a no-op, not a conflict.
	same := "alpha"
	if _, err := svc.Update(dbc, a.ID, UpdateProjectInput{Name: &same}); err != nil {
		t.Fatalf("rename to own name: %v", err)
	}
}

func TestProjectDeleteClearsConversationRefs(t *testing.T) {
	svc, tx, u := newProjectService(t)
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	p, err := svc.Create(dbc, CreateProjectInput{Name: "alpha", DisplayName: "Alpha"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, "inside")
	if err := tx.Model(&types.Conversation{}).Where("id = ?", conv.ID).UpdateColumn("project_id", p.ID).Error; err != nil {
		t.Fatalf("assign project: %v", err)
	}

	if err := svc.Delete(dbc, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var stored types.Conversation
	if err := tx.Where("id = ?", conv.ID).Take(&stored).Error; err != nil {
		t.Fatalf("conversation must survive project deletion: %v", err)
	}
	if stored.ProjectID != nil {
		t.Fatalf("project reference must be cleared, got %v", stored.ProjectID)
	}
}

func TestProjectListCountsConversations(t *testing.T) {
	svc, tx, u := newProjectService(t)
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	p, err := svc.Create(dbc, CreateProjectInput{Name: "alpha", DisplayName: "Alpha"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		conv := testutil.SeedConversation(t, dbc.Ctx, tx, u.ID, fmt.Sprintf("c%d", i))
		if err := tx.Model(&types.Conversation{}).Where("id = ?", conv.ID).UpdateColumn("project_id", p.ID).Error; err != nil {
			t.Fatalf("assign: %v", err)
		}
	}

	out, err := svc.List(dbc, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].ConversationCount != 3 {
		t.Fatalf("expected 1 project with 3 conversations, got %+v", out)
	}
}
