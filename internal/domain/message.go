package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Role is the closed set of message authors. Behavior that depends on the
// author (edit eligibility, gateway forwarding) hangs off this type instead of
// string comparisons in handlers.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// Editable reports whether the end user may rewrite a message with this role.
// Only their own turns qualify.
func (r Role) Editable() bool { return r == RoleUser }

// ToolInvocationState marks how far a recorded tool call got. The gateway
// adapter only records that the call was made, so every stored invocation
// carries StateOutputAvailable with a null output.
const StateOutputAvailable = "output-available"

// ToolInvocation is one structured tool call extracted from a gateway reply.
// Input holds the JSON-decoded arguments; when the upstream arguments fail to
// parse they are preserved as {"raw": <original string>}.
type ToolInvocation struct {
	Type   string         `json:"type"`
	State  string         `json:"state"`
	Input  map[string]any `json:"input"`
	Output any            `json:"output"`
}

// Attachment is a file reference carried on a user message. Attachments are
// stored with the message but never forwarded to the inference gateway.
type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

// Message is one turn in a conversation. Turns are never reordered or
// renumbered: created_at assigned at write time is the canonical order, and
// edits replace content in place while keeping identity and position.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`

	Role    Role   `gorm:"column:role;size:20;not null" json:"role"`
	Content string `gorm:"column:content;type:text;not null" json:"content"`

	ToolInvocations datatypes.JSON `gorm:"type:jsonb;column:tool_invocations" json:"tool_invocations,omitempty"`
	Attachments     datatypes.JSON `gorm:"type:jsonb;column:attachments" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
