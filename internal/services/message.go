package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/user"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
	"github.com/pharmchat/pharmchat-backend/internal/platform/inference"
	"github.com/pharmchat/pharmchat-backend/internal/requestdata"
)

const systemInstruction = "You are talking with a pharmaceutical company employee over email campaigns data"

const (
	timeoutError   = "Request timeout"
	timeoutDetails = "Inference gateway did not respond in time"
	upstreamError  = "The assistant could not respond. Please try again."
)

// MessageResult is the settlement of a send or edit call. A populated Error
// field with a nil AIMessage means the user-message write succeeded but the
// assistant reply did not arrive; the caller still gets a success response.
type MessageResult struct {
	UserMessage *types.Message `json:"userMessage"`
	AIMessage   *types.Message `json:"aiMessage"`
	Error       string         `json:"error,omitempty"`
	Details     string         `json:"details,omitempty"`
}

type MessageService interface {
	// Send appends a user message and requests an assistant reply.
	Send(dbc dbctx.Context, conversationID uuid.UUID, content string, attachments []types.Attachment) (*MessageResult, error)
	// Edit rewrites a user message in place. With regenerate set, the full
	// history is replayed through the gateway for a fresh assistant reply; the
	// edit is committed before the gateway is called and survives its failure.
	Edit(dbc dbctx.Context, conversationID, messageID uuid.UUID, content string, regenerate bool) (*MessageResult, error)
}

type messageService struct {
	db            *gorm.DB
	log           *logger.Logger
	conversations chat.ConversationRepo
	messages      chat.MessageRepo
	profiles      user.UserProfileRepo
	gateway       inference.Client
}

func NewMessageService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conversationRepo chat.ConversationRepo,
	messageRepo chat.MessageRepo,
	profileRepo user.UserProfileRepo,
	gateway inference.Client,
) MessageService {
	return &messageService{
		db:            db,
		log:           baseLog.With("service", "MessageService"),
		conversations: conversationRepo,
		messages:      messageRepo,
		profiles:      profileRepo,
		gateway:       gateway,
	}
}

func (s *messageService) Send(dbc dbctx.Context, conversationID uuid.UUID, content string, attachments []types.Attachment) (*MessageResult, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", apperr.ErrValidation)
	}

	var userMsg *types.Message
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		conv, err := s.conversations.GetByIDForUser(repoCtx, conversationID, rd.UserID)
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("%w: conversation", apperr.ErrNotFound)
		}
		if conv.IsArchived {
			return fmt.Errorf("%w: cannot add messages to archived conversation", apperr.ErrValidation)
		}

		now := time.Now().UTC()
		userMsg = &types.Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			Role:           types.RoleUser,
			Content:        content,
			CreatedAt:      now,
		}
		if len(attachments) > 0 {
			raw, err := json.Marshal(attachments)
			if err != nil {
				return fmt.Errorf("marshal attachments: %w", err)
			}
			userMsg.Attachments = datatypes.JSON(raw)
		}
		if _, err := s.messages.Create(repoCtx, []*types.Message{userMsg}); err != nil {
			return err
		}
		return s.conversations.SetUpdatedAt(repoCtx, conversationID, userMsg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	return s.completeAndSettle(dbc, conversationID, userMsg)
}

func (s *messageService) Edit(dbc dbctx.Context, conversationID, messageID uuid.UUID, content string, regenerate bool) (*MessageResult, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", apperr.ErrValidation)
	}

	// The edit commits on its own so a later gateway failure cannot undo it.
	var userMsg *types.Message
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		conv, err := s.conversations.GetByIDForUser(repoCtx, conversationID, rd.UserID)
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("%w: conversation", apperr.ErrNotFound)
		}
		if conv.IsArchived {
			return fmt.Errorf("%w: cannot edit messages in archived conversation", apperr.ErrValidation)
		}

		msg, err := s.messages.GetByIDInConversation(repoCtx, messageID, conversationID)
		if err != nil {
			return err
		}
		if msg == nil {
			return fmt.Errorf("%w: message", apperr.ErrNotFound)
		}
		if !msg.Role.Editable() {
			return fmt.Errorf("%w: only user messages can be edited", apperr.ErrValidation)
		}

		if err := s.messages.UpdateContent(repoCtx, messageID, content); err != nil {
			return err
		}
		msg.Content = content
		userMsg = msg
		return s.conversations.SetUpdatedAt(repoCtx, conversationID, msg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	if !regenerate {
		return &MessageResult{UserMessage: userMsg}, nil
	}
	return s.completeAndSettle(dbc, conversationID, userMsg)
}

// completeAndSettle replays the conversation through the gateway and persists
// the assistant reply. Gateway failures are folded into the result instead of
// returned, because the user-message write has already committed.
func (s *messageService) completeAndSettle(dbc dbctx.Context, conversationID uuid.UUID, userMsg *types.Message) (*MessageResult, error) {
	result := &MessageResult{UserMessage: userMsg}

	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: s.db}
	history, err := s.messages.ListByConversation(repoCtx, conversationID)
	if err != nil {
		return nil, err
	}

	req := inference.Request{
		Messages: make([]inference.Message, 0, len(history)+1),
		User:     s.userContext(dbc),
	}
	req.Messages = append(req.Messages, inference.Message{Role: string(types.RoleSystem), Content: systemInstruction})
	for _, m := range history {
		req.Messages = append(req.Messages, inference.Message{Role: string(m.Role), Content: m.Content})
	}

	completion, err := s.gateway.ChatComplete(dbc.Ctx, req)
	if err != nil {
		s.log.Warn("Assistant reply failed", "conversation_id", conversationID, "error", err)
		if errors.Is(err, apperr.ErrUpstreamTimeout) {
			result.Error = timeoutError
			result.Details = timeoutDetails
		} else {
			result.Error = upstreamError
			result.Details = err.Error()
		}
		return result, nil
	}

	aiMsg := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           types.RoleAssistant,
		Content:        completion.Content,
		CreatedAt:      time.Now().UTC(),
	}
	if len(completion.ToolInvocations) > 0 {
		raw, err := json.Marshal(completion.ToolInvocations)
		if err != nil {
			return nil, fmt.Errorf("marshal tool invocations: %w", err)
		}
		aiMsg.ToolInvocations = datatypes.JSON(raw)
	}

	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := s.messages.Create(txCtx, []*types.Message{aiMsg}); err != nil {
			return err
		}
		return s.conversations.SetUpdatedAt(txCtx, conversationID, aiMsg.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	result.AIMessage = aiMsg
	return result, nil
}

// userContext assembles the identity block forwarded upstream: profile role
// and department when present, session identity for the rest.
func (s *messageService) userContext(dbc dbctx.Context) inference.UserContext {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil {
		return inference.UserContext{}
	}

	u := types.User{Name: rd.Name, Surname: rd.Surname, Email: rd.Email}
	out := inference.UserContext{
		ID:   rd.ExternalID,
		Name: u.DisplayName(),
	}

	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: s.db}
	profile, err := s.profiles.GetByUserID(repoCtx, rd.UserID)
	if err != nil {
		s.log.Warn("Profile lookup failed, forwarding session identity only", "error", err)
		return out
	}
	if profile != nil {
		if profile.Role != nil {
			out.Role = *profile.Role
		}
		if profile.Department != nil {
			out.Department = *profile.Department
		}
	}
	return out
}
