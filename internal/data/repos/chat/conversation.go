package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

// ListFilter narrows ListByUser. Archived rows are excluded unless
// IncludeArchived is set; ProjectID restricts to one project when non-nil.
type ListFilter struct {
	IncludeArchived bool
	ProjectID       *uuid.UUID
}

type ConversationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Conversation) ([]*types.Conversation, error)
	// GetByIDForUser folds existence and ownership into one lookup: a row that
	// exists but belongs to someone else comes back as nil.
	GetByIDForUser(dbc dbctx.Context, id, userID uuid.UUID) (*types.Conversation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Conversation, error)
	CountByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// SetUpdatedAt pins updated_at to an exact instant, used to align the
	// conversation with the message that last touched it.
	SetUpdatedAt(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	ClearProject(dbc dbctx.Context, projectID uuid.UUID) error
	// Delete removes the conversation and all its messages.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, rows []*types.Conversation) ([]*types.Conversation, error) {
	if len(rows) == 0 {
		return []*types.Conversation{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conversationRepo) GetByIDForUser(dbc dbctx.Context, id, userID uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing id or user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Conversation
	err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("user_id = ?", userID)
	if !filter.IncludeArchived {
		q = q.Where("is_archived = ?", false)
	}
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	var out []*types.Conversation
	if err := q.Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) CountByProjects(dbc dbctx.Context, projectIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if len(projectIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	type row struct {
		ProjectID uuid.UUID `gorm:"column:project_id"`
		N         int64     `gorm:"column:n"`
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Select("project_id, COUNT(*) AS n").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rr := range rows {
		out[rr.ProjectID] = rr.N
	}
	return out, nil
}

func (r *conversationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *conversationRepo) SetUpdatedAt(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at.UTC()).Error
}

func (r *conversationRepo) ClearProject(dbc dbctx.Context, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return fmt.Errorf("missing project_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("project_id = ?", projectID).
		UpdateColumn("project_id", nil).Error
}

func (r *conversationRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	// The schema carries ON DELETE CASCADE, but the explicit delete keeps the
	// sqlite development path honest as well.
	if err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", id).
		Delete(&types.Message{}).Error; err != nil {
		return err
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Conversation{}).Error
}
