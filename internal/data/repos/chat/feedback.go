package chat

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type FeedbackRepo interface {
	Create(dbc dbctx.Context, row *types.Feedback) (*types.Feedback, error)
	ListByMessage(dbc dbctx.Context, messageID uuid.UUID) ([]*types.Feedback, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, log *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: log.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) Create(dbc dbctx.Context, row *types.Feedback) (*types.Feedback, error) {
	if row == nil {
		return nil, fmt.Errorf("missing feedback row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *feedbackRepo) ListByMessage(dbc dbctx.Context, messageID uuid.UUID) ([]*types.Feedback, error) {
	if messageID == uuid.Nil {
		return nil, fmt.Errorf("missing message_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Feedback
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Feedback{}).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
