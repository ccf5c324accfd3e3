package style

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type ResponseStyleRepo interface {
	// List returns all presets, default first, then alphabetical.
	List(dbc dbctx.Context) ([]*types.ResponseStyle, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ResponseStyle, error)
	// Seed inserts the given presets once; an already-populated table is left
	// untouched.
	Seed(dbc dbctx.Context, rows []*types.ResponseStyle) error
}

type responseStyleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseStyleRepo(db *gorm.DB, log *logger.Logger) ResponseStyleRepo {
	return &responseStyleRepo{db: db, log: log.With("repo", "ResponseStyleRepo")}
}

func (r *responseStyleRepo) List(dbc dbctx.Context) ([]*types.ResponseStyle, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ResponseStyle
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ResponseStyle{}).
		Order("is_default DESC, label ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *responseStyleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ResponseStyle, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.ResponseStyle
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

func (r *responseStyleRepo) Seed(dbc dbctx.Context, rows []*types.ResponseStyle) error {
	if len(rows) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ResponseStyle{}).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).Create(&rows).Error
}
