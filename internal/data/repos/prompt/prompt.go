package prompt

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

// ListFilter narrows ListVisible. Zero values mean "no filter".
type ListFilter struct {
	Type        types.PromptType
	OnlyStarred bool
}

type PromptRepo interface {
	Create(dbc dbctx.Context, rows []*types.Prompt) ([]*types.Prompt, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Prompt, error)
	// ListVisible returns the caller's own prompts plus every shared one.
	ListVisible(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Prompt, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type promptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptRepo(db *gorm.DB, log *logger.Logger) PromptRepo {
	return &promptRepo{db: db, log: log.With("repo", "PromptRepo")}
}

func (r *promptRepo) Create(dbc dbctx.Context, rows []*types.Prompt) ([]*types.Prompt, error) {
	if len(rows) == 0 {
		return []*types.Prompt{}, nil
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

func (r *promptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Prompt, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Prompt
	err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *promptRepo) ListVisible(dbc dbctx.Context, userID uuid.UUID, filter ListFilter) ([]*types.Prompt, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Prompt{}).
		Where("user_id = ? OR is_personal = ?", userID, false)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.OnlyStarred {
		q = q.Where("is_starred = ?", true)
	}
	var out []*types.Prompt
	if err := q.Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *promptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Prompt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *promptRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Prompt{}).Error
}
