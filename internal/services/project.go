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

type CreateProjectInput struct {
	Name               string
	DisplayName        string
	Description        string
	CustomInstructions string
}

// UpdateProjectInput is a partial update: nil fields are untouched.
type UpdateProjectInput struct {
	Name               *string
	DisplayName        *string
	Description        *string
	CustomInstructions *string
	IsStarred          *bool
	IsArchived         *bool
}

// ProjectSummary is the list-entry shape: the project plus how many
// conversations it groups.
type ProjectSummary struct {
	Project           *types.Project `json:"project"`
	ConversationCount int64          `json:"conversation_count"`
}

type ProjectService interface {
	Create(dbc dbctx.Context, input CreateProjectInput) (*types.Project, error)
	List(dbc dbctx.Context, includeArchived bool) ([]*ProjectSummary, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	Update(dbc dbctx.Context, id uuid.UUID, input UpdateProjectInput) (*types.Project, error)
	// Delete removes the project; its conversations survive with the project
	// reference cleared.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type projectService struct {
	db            *gorm.DB
	log           *logger.Logger
	projects      project.ProjectRepo
	conversations chat.ConversationRepo
}

func NewProjectService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projectRepo project.ProjectRepo,
	conversationRepo chat.ConversationRepo,
) ProjectService {
	return &projectService{
		db:            db,
		log:           baseLog.With("service", "ProjectService"),
		projects:      projectRepo,
		conversations: conversationRepo,
	}
}

func (s *projectService) Create(dbc dbctx.Context, input CreateProjectInput) (*types.Project, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	name := strings.TrimSpace(input.Name)
	displayName := strings.TrimSpace(input.DisplayName)
	if name == "" || displayName == "" {
		return nil, fmt.Errorf("%w: name and display name are required", apperr.ErrValidation)
	}

	var created *types.Project
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		existing, err := s.projects.GetByName(repoCtx, rd.UserID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: project with this name already exists", apperr.ErrConflict)
		}

		now := time.Now().UTC()
		p := &types.Project{
			ID:          uuid.New(),
			UserID:      rd.UserID,
			Name:        name,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if v := strings.TrimSpace(input.Description); v != "" {
			p.Description = &v
		}
		if v := strings.TrimSpace(input.CustomInstructions); v != "" {
			p.CustomInstructions = &v
		}
		rows, err := s.projects.Create(repoCtx, []*types.Project{p})
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

func (s *projectService) List(dbc dbctx.Context, includeArchived bool) ([]*ProjectSummary, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}

	rows, err := s.projects.ListByUser(repoCtx, rd.UserID, includeArchived)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ID)
	}
	counts, err := s.conversations.CountByProjects(repoCtx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*ProjectSummary, 0, len(rows))
	for _, p := range rows {
		out = append(out, &ProjectSummary{Project: p, ConversationCount: counts[p.ID]})
	}
	return out, nil
}

func (s *projectService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing project id", apperr.ErrValidation)
	}

	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}

	p, err := s.projects.GetByIDForUser(repoCtx, id, rd.UserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project", apperr.ErrNotFound)
	}
	return p, nil
}

func (s *projectService) Update(dbc dbctx.Context, id uuid.UUID, input UpdateProjectInput) (*types.Project, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing project id", apperr.ErrValidation)
	}

	var out *types.Project
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		p, err := s.projects.GetByIDForUser(repoCtx, id, rd.UserID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: project", apperr.ErrNotFound)
		}

		updates := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return fmt.Errorf("%w: name cannot be empty", apperr.ErrValidation)
			}
			if name != p.Name {
				existing, err := s.projects.GetByName(repoCtx, rd.UserID, name)
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("%w: project with this name already exists", apperr.ErrConflict)
				}
			}
			updates["name"] = name
		}
		if input.DisplayName != nil {
			displayName := strings.TrimSpace(*input.DisplayName)
			if displayName == "" {
				return fmt.Errorf("%w: display name cannot be empty", apperr.ErrValidation)
			}
			updates["display_name"] = displayName
		}
		if input.Description != nil {
			updates["description"] = nullableText(strings.TrimSpace(*input.Description))
		}
		if input.CustomInstructions != nil {
			updates["custom_instructions"] = nullableText(strings.TrimSpace(*input.CustomInstructions))
		}
		if input.IsStarred != nil {
			updates["is_starred"] = *input.IsStarred
		}
		if input.IsArchived != nil {
			updates["is_archived"] = *input.IsArchived
		}
		if len(updates) == 0 {
			out = p
			return nil
		}
		if err := s.projects.UpdateFields(repoCtx, id, updates); err != nil {
			return err
		}
		out, err = s.projects.GetByIDForUser(repoCtx, id, rd.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *projectService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return fmt.Errorf("%w: missing project id", apperr.ErrValidation)
	}

	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		p, err := s.projects.GetByIDForUser(repoCtx, id, rd.UserID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: project", apperr.ErrNotFound)
		}
		if err := s.conversations.ClearProject(repoCtx, id); err != nil {
			return err
		}
		return s.projects.Delete(repoCtx, id)
	})
}
