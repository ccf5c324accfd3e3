package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/prompt"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
	"github.com/pharmchat/pharmchat-backend/internal/requestdata"
)

type CreatePromptInput struct {
	Title        string
	Content      string
	Type         types.PromptType
	IsPersonal   *bool
	ForkedFromID *uuid.UUID
}

// UpdatePromptInput is a partial update: nil fields are untouched.
type UpdatePromptInput struct {
	Title     *string
	Content   *string
	Type      *types.PromptType
	IsStarred *bool
}

type PromptService interface {
	Create(dbc dbctx.Context, input CreatePromptInput) (*types.Prompt, error)
	List(dbc dbctx.Context, filter prompt.ListFilter) ([]*types.Prompt, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Prompt, error)
	Update(dbc dbctx.Context, id uuid.UUID, input UpdatePromptInput) (*types.Prompt, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type promptService struct {
	db      *gorm.DB
	log     *logger.Logger
	prompts prompt.PromptRepo
}

func NewPromptService(db *gorm.DB, baseLog *logger.Logger, promptRepo prompt.PromptRepo) PromptService {
	return &promptService{
		db:      db,
		log:     baseLog.With("service", "PromptService"),
		prompts: promptRepo,
	}
}

func (s *promptService) Create(dbc dbctx.Context, input CreatePromptInput) (*types.Prompt, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", apperr.ErrValidation)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid prompt type %q", apperr.ErrValidation, input.Type)
	}

	isPersonal := true
	if input.IsPersonal != nil {
		isPersonal = *input.IsPersonal
	}

	var created *types.Prompt
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		if input.ForkedFromID != nil && *input.ForkedFromID != uuid.Nil {
			src, err := s.prompts.GetByID(repoCtx, *input.ForkedFromID)
			if err != nil {
				return err
			}
			if src == nil || !src.ReadableBy(rd.UserID) {
				return fmt.Errorf("%w: prompt", apperr.ErrNotFound)
			}
		}

		now := time.Now().UTC()
		uid := rd.UserID
		p := &types.Prompt{
			ID:           uuid.New(),
			UserID:       &uid,
			Title:        title,
			Content:      content,
			Type:         input.Type,
			IsPersonal:   isPersonal,
			ForkedFromID: input.ForkedFromID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		rows, err := s.prompts.Create(repoCtx, []*types.Prompt{p})
		if err != nil {
			return err
		}
		created = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *promptService) List(dbc dbctx.Context, filter prompt.ListFilter) ([]*types.Prompt, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid prompt type %q", apperr.ErrValidation, filter.Type)
	}

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}
	return s.prompts.ListVisible(repoCtx, rd.UserID, filter)
}

func (s *promptService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Prompt, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing prompt id", apperr.ErrValidation)
	}

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}

	p, err := s.prompts.GetByID(repoCtx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.ReadableBy(rd.UserID) {
		return nil, fmt.Errorf("%w: prompt", apperr.ErrNotFound)
	}
	return p, nil
}

func (s *promptService) Update(dbc dbctx.Context, id uuid.UUID, input UpdatePromptInput) (*types.Prompt, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing prompt id", apperr.ErrValidation)
	}

	var out *types.Prompt
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		p, err := s.prompts.GetByID(repoCtx, id)
		if err != nil {
			return err
		}
		// Non-writable collapses to not found so shared read-only prompts do
		// not reveal whether the block is existence or ownership.
		if p == nil || !p.WritableBy(rd.UserID) {
			return fmt.Errorf("%w: prompt", apperr.ErrNotFound)
		}

		updates := map[string]interface{}{}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return fmt.Errorf("%w: title cannot be empty", apperr.ErrValidation)
			}
			updates["title"] = title
		}
		if input.Content != nil {
			content := strings.TrimSpace(*input.Content)
			if content == "" {
				return fmt.Errorf("%w: content cannot be empty", apperr.ErrValidation)
			}
			updates["content"] = content
		}
		if input.Type != nil {
			if !input.Type.Valid() {
				return fmt.Errorf("%w: invalid prompt type %q", apperr.ErrValidation, *input.Type)
			}
			updates["type"] = *input.Type
		}
		if input.IsStarred != nil {
			updates["is_starred"] = *input.IsStarred
		}
		if len(updates) == 0 {
			out = p
			return nil
		}
		if err := s.prompts.UpdateFields(repoCtx, id, updates); err != nil {
			return err
		}
		out, err = s.prompts.GetByID(repoCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *promptService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return fmt.Errorf("%w: missing prompt id", apperr.ErrValidation)
	}

	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		p, err := s.prompts.GetByID(repoCtx, id)
		if err != nil {
			return err
		}
		if p == nil || !p.WritableBy(rd.UserID) {
			return fmt.Errorf("%w: prompt", apperr.ErrNotFound)
		}
		return s.prompts.Delete(repoCtx, id)
	})
}
