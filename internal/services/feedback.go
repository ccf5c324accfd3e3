package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/chat"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
	"github.com/pharmchat/pharmchat-backend/internal/requestdata"
)

type CreateFeedbackInput struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	Rating         types.FeedbackRating
	Category       string
	Details        string
}

type FeedbackService interface {
	// Create records a rating on an assistant message in a conversation the
	// caller owns.
	Create(dbc dbctx.Context, input CreateFeedbackInput) (*types.Feedback, error)
	// List returns the feedback rows on a message, oldest first.
	List(dbc dbctx.Context, conversationID, messageID uuid.UUID) ([]*types.Feedback, error)
}

type feedbackService struct {
	db            *gorm.DB
	log           *logger.Logger
	conversations chat.ConversationRepo
	messages      chat.MessageRepo
	feedback      chat.FeedbackRepo
}

func NewFeedbackService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conversationRepo chat.ConversationRepo,
	messageRepo chat.MessageRepo,
	feedbackRepo chat.FeedbackRepo,
) FeedbackService {
	return &feedbackService{
		db:            db,
		log:           baseLog.With("service", "FeedbackService"),
		conversations: conversationRepo,
		messages:      messageRepo,
		feedback:      feedbackRepo,
	}
}

func (s *feedbackService) Create(dbc dbctx.Context, input CreateFeedbackInput) (*types.Feedback, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if !input.Rating.Valid() {
		return nil, fmt.Errorf("%w: invalid rating %q", apperr.ErrValidation, input.Rating)
	}

	var created *types.Feedback
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		conv, err := s.conversations.GetByIDForUser(repoCtx, input.ConversationID, rd.UserID)
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("%w: conversation", apperr.ErrNotFound)
		}
		msg, err := s.messages.GetByIDInConversation(repoCtx, input.MessageID, input.ConversationID)
		if err != nil {
			return err
		}
		if msg == nil {
			return fmt.Errorf("%w: message", apperr.ErrNotFound)
		}
		if msg.Role != types.RoleAssistant {
			return fmt.Errorf("%w: feedback applies to assistant messages only", apperr.ErrValidation)
		}

		row := &types.Feedback{
			ID:        uuid.New(),
			MessageID: input.MessageID,
			UserID:    rd.UserID,
			Rating:    input.Rating,
			CreatedAt: time.Now().UTC(),
		}
		if v := strings.TrimSpace(input.Category); v != "" {
			row.Category = &v
		}
		if v := strings.TrimSpace(input.Details); v != "" {
			row.Details = &v
		}
		created, err = s.feedback.Create(repoCtx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *feedbackService) List(dbc dbctx.Context, conversationID, messageID uuid.UUID) ([]*types.Feedback, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}

	conv, err := s.conversations.GetByIDForUser(repoCtx, conversationID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation", apperr.ErrNotFound)
	}
	msg, err := s.messages.GetByIDInConversation(repoCtx, messageID, conversationID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message", apperr.ErrNotFound)
	}
	return s.feedback.ListByMessage(repoCtx, messageID)
}
