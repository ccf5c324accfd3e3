package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/style"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/testutil"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/user"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
)

func newProfileService(t *testing.T) (ProfileService, ResponseStyleService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	styleRepo := style.NewResponseStyleRepo(tx, log)
	svc := NewProfileService(tx, log, user.NewUserRepo(tx, log), user.NewUserProfileRepo(tx, log), styleRepo)
	return svc, NewResponseStyleService(tx, log, styleRepo), tx
}

func TestProfileGetCreatesMissingRow(t *testing.T) {
	svc, _, tx := newProfileService(t)
	u := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]))
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	doc, err := svc.Get(dbc)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Profile == nil || doc.Profile.UserID != u.ID {
		t.Fatalf("profile row must be created on first read")
	}
	if doc.User.Email != u.Email {
		t.Fatalf("identity fields must come from the user row")
	}
}

func TestProfileUpdatePreferences(t *testing.T) {
	svc, _, tx := newProfileService(t)
	u := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]))
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	role := "Medical Science Liaison"
	dept := "Oncology"
	doc, err := svc.Update(dbc, UpdateProfileInput{Role: &role, Department: &dept})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if doc.Profile.Role == nil || *doc.Profile.Role != role {
		t.Fatalf("role not stored: %+v", doc.Profile.Role)
	}
	if doc.Profile.Department == nil || *doc.Profile.Department != dept {
		t.Fatalf("department not stored: %+v", doc.Profile.Department)
	}

	// A later partial update leaves untouched fields alone and an empty
	// string clears a field.
	blank := ""
	doc, err = svc.Update(dbc, UpdateProfileInput{Department: &blank})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if doc.Profile.Department != nil {
		t.Fatalf("empty string must clear the field, got %q", *doc.Profile.Department)
	}
	if doc.Profile.Role == nil || *doc.Profile.Role != role {
		t.Fatalf("untouched field must survive a partial update")
	}
}

func TestProfileResponseStyleReference(t *testing.T) {
	svc, styles, tx := newProfileService(t)
	u := testutil.SeedUser(t, context.Background(), tx, fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]))
	dbc := dbctx.Context{Ctx: authedCtx(u), Tx: tx}

	if err := styles.SeedDefaults(dbc); err != nil {
		t.Fatalf("seed styles: %v", err)
	}
	available, err := styles.List(dbc)
	if err != nil || len(available) == 0 {
		t.Fatalf("list styles: %v (%d)", err, len(available))
	}

	doc, err := svc.Update(dbc, UpdateProfileInput{ResponseStyleID: &available[0].ID})
	if err != nil {
		t.Fatalf("set style: %v", err)
	}
	if doc.Profile.ResponseStyleID == nil || *doc.Profile.ResponseStyleID != available[0].ID {
		t.Fatalf("style reference not stored")
	}

	// Unknown style id is rejected, uuid.Nil clears the reference.
	bogus := uuid.New()
	if _, err := svc.Update(dbc, UpdateProfileInput{ResponseStyleID: &bogus}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown style must be not found, got %v", err)
	}
	doc, err = svc.Update(dbc, UpdateProfileInput{ResponseStyleID: &uuid.Nil})
	if err != nil {
		t.Fatalf("clear style: %v", err)
	}
	if doc.Profile.ResponseStyleID != nil {
		t.Fatalf("uuid.Nil must clear the style reference")
	}
}
