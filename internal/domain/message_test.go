package domain

import (
	"testing"

	"github.com/google/uuid"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem, RoleTool} {
		if !r.Valid() {
			t.Fatalf("expected %q to be valid", r)
		}
	}
	for _, r := range []Role{"", "admin", "USER", "bot"} {
		if r.Valid() {
			t.Fatalf("expected %q to be invalid", r)
		}
	}
}

func TestRoleEditable(t *testing.T) {
	if !RoleUser.Editable() {
		t.Fatalf("user turns must be editable")
	}
	for _, r := range []Role{RoleAssistant, RoleSystem, RoleTool} {
		if r.Editable() {
			t.Fatalf("%q turns must not be editable", r)
		}
	}
}

func TestPromptOwnership(t *testing.T) {
	owner := mustUUID(t)
	other := mustUUID(t)

	personal := &Prompt{UserID: &owner, IsPersonal: true}
	if !personal.WritableBy(owner) || personal.WritableBy(other) {
		t.Fatalf("personal prompt writable only by owner")
	}
	if !personal.ReadableBy(owner) || personal.ReadableBy(other) {
		t.Fatalf("personal prompt readable only by owner")
	}

	shared := &Prompt{UserID: &owner, IsPersonal: false}
	if !shared.ReadableBy(other) {
		t.Fatalf("shared prompt must be readable by anyone")
	}
	if shared.WritableBy(other) {
		t.Fatalf("shared prompt must stay writable only by its owner")
	}

	orphaned := &Prompt{IsPersonal: false}
	if !orphaned.ReadableBy(other) || orphaned.WritableBy(other) {
		t.Fatalf("ownerless shared prompt is read-only for everyone")
	}
}

func TestUserDisplayName(t *testing.T) {
	cases := []struct {
		user User
		want string
	}{
		{User{Name: "Alex", Surname: "Johnson", Email: "aj@example.com"}, "Alex Johnson"},
		{User{Name: "Alex", Email: "aj@example.com"}, "Alex"},
		{User{Surname: "Johnson", Email: "aj@example.com"}, "Johnson"},
		{User{Email: "aj@example.com"}, "aj@example.com"},
	}
	for _, tc := range cases {
		if got := tc.user.DisplayName(); got != tc.want {
			t.Fatalf("DisplayName: got %q, want %q", got, tc.want)
		}
	}
}
