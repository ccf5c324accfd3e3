package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/project"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
	"github.com/pharmchat/pharmchat-backend/internal/requestdata"
)

const previewLength = 100

// CreateConversationInput carries the create payload. Title is required;
// ProjectID and InitialMessage are optional.
type CreateConversationInput struct {
	Title          string
	ProjectID      *uuid.UUID
	InitialMessage string
}

// UpdateConversationInput is a partial update: nil fields are untouched.
// A non-nil ProjectID equal to uuid.Nil clears the project reference.
type UpdateConversationInput struct {
	Title      *string
	IsStarred  *bool
	IsArchived *bool
	ProjectID  *uuid.UUID
}

// ConversationSummary is the cheap list-entry shape: no message bodies, just
// a count and a truncated preview of the newest message.
type ConversationSummary struct {
	Conversation *types.Conversation `json:"conversation"`
	MessageCount int64               `json:"message_count"`
	LastMessage  string              `json:"last_message,omitempty"`
}

type ConversationService interface {
	Create(dbc dbctx.Context, input CreateConversationInput) (*types.Conversation, error)
	List(dbc dbctx.Context, filter chat.ListFilter) ([]*ConversationSummary, error)
	GetWithMessages(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, []*types.Message, error)
	Update(dbc dbctx.Context, id uuid.UUID, input UpdateConversationInput) (*types.Conversation, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type conversationService struct {
	db            *gorm.DB
	log           *logger.Logger
	conversations chat.ConversationRepo
	messages      chat.MessageRepo
	projects      project.ProjectRepo
}

func NewConversationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conversationRepo chat.ConversationRepo,
	messageRepo chat.MessageRepo,
	projectRepo project.ProjectRepo,
) ConversationService {
	return &conversationService{
		db:            db,
		log:           baseLog.With("service", "ConversationService"),
		conversations: conversationRepo,
		messages:      messageRepo,
		projects:      projectRepo,
	}
}

func (s *conversationService) Create(dbc dbctx.Context, input CreateConversationInput) (*types.Conversation, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}

	var created *types.Conversation
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		if input.ProjectID != nil && *input.ProjectID != uuid.Nil {
			p, err := s.projects.GetByIDForUser(repoCtx, *input.ProjectID, rd.UserID)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("%w: project", apperr.ErrNotFound)
			}
		}

		now := time.Now().UTC()
		conv := &types.Conversation{
			ID:        uuid.New(),
			UserID:    rd.UserID,
			ProjectID: input.ProjectID,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		rows, err := s.conversations.Create(repoCtx, []*types.Conversation{conv})
		if err != nil {
			return err
		}
		created = rows[0]

		if strings.TrimSpace(input.InitialMessage) != "" {
			msg := &types.Message{
				ID:             uuid.New(),
				ConversationID: created.ID,
				Role:           types.RoleUser,
				Content:        input.InitialMessage,
				CreatedAt:      now,
			}
			if _, err := s.messages.Create(repoCtx, []*types.Message{msg}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *conversationService) List(dbc dbctx.Context, filter chat.ListFilter) ([]*ConversationSummary, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}

	rows, err := s.conversations.ListByUser(repoCtx, rd.UserID, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}
	counts, err := s.messages.CountByConversations(repoCtx, ids)
	if err != nil {
		return nil, err
	}
	last, err := s.messages.LastByConversations(repoCtx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*ConversationSummary, 0, len(rows))
	for _, c := range rows {
		entry := &ConversationSummary{
			Conversation: c,
			MessageCount: counts[c.ID],
		}
		if m := last[c.ID]; m != nil {
			entry.LastMessage = truncate(m.Content, previewLength)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *conversationService) GetWithMessages(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, []*types.Message, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: missing conversation id", apperr.ErrValidation)
	}

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}

	conv, err := s.conversations.GetByIDForUser(repoCtx, id, rd.UserID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return nil, nil, fmt.Errorf("%w: conversation", apperr.ErrNotFound)
	}
	msgs, err := s.messages.ListByConversation(repoCtx, id)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (s *conversationService) Update(dbc dbctx.Context, id uuid.UUID, input UpdateConversationInput) (*types.Conversation, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing conversation id", apperr.ErrValidation)
	}

	var out *types.Conversation
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		conv, err := s.conversations.GetByIDForUser(repoCtx, id, rd.UserID)
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("%w: conversation", apperr.ErrNotFound)
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return fmt.Errorf("%w: title cannot be empty", apperr.ErrValidation)
			}
			updates["title"] = title
		}
		if input.IsStarred != nil {
			updates["is_starred"] = *input.IsStarred
		}
		if input.IsArchived != nil {
			updates["is_archived"] = *input.IsArchived
		}
		if input.ProjectID != nil {
			if *input.ProjectID == uuid.Nil {
				updates["project_id"] = nil
			} else {
				p, err := s.projects.GetByIDForUser(repoCtx, *input.ProjectID, rd.UserID)
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("%w: project", apperr.ErrNotFound)
				}
				updates["project_id"] = *input.ProjectID
			}
		}
		if len(updates) == 0 {
			out = conv
			return nil
		}
		if err := s.conversations.UpdateFields(repoCtx, id, updates); err != nil {
			return err
		}
		out, err = s.conversations.GetByIDForUser(repoCtx, id, rd.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *conversationService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return fmt.Errorf("%w: missing conversation id", apperr.ErrValidation)
	}

	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		conv, err := s.conversations.GetByIDForUser(repoCtx, id, rd.UserID)
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("%w: conversation", apperr.ErrNotFound)
		}
		return s.conversations.Delete(repoCtx, id)
	})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
