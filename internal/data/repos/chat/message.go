package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error)
	// GetByIDInConversation returns nil when the message does not exist or
	// belongs to a different conversation.
	GetByIDInConversation(dbc dbctx.Context, id, conversationID uuid.UUID) (*types.Message, error)
	// ListByConversation returns every message oldest-first. created_at is the
	// canonical order; id breaks ties so equal timestamps stay stable.
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error)
	UpdateContent(dbc dbctx.Context, id uuid.UUID, content string) error
	CountByConversations(dbc dbctx.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	LastByConversations(dbc dbctx.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
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

func (r *messageRepo) GetByIDInConversation(dbc dbctx.Context, id, conversationID uuid.UUID) (*types.Message, error) {
	if id == uuid.Nil || conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing id or conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Message
	err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND conversation_id = ?", id, conversationID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateContent replaces the message body in place. created_at is left alone
// so the message keeps its position in the thread.
func (r *messageRepo) UpdateContent(dbc dbctx.Context, id uuid.UUID, content string) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("id = ?", id).
		UpdateColumn("content", content).Error
}

func (r *messageRepo) CountByConversations(dbc dbctx.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if len(conversationIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	type row struct {
		ConversationID uuid.UUID `gorm:"column:conversation_id"`
		N              int64     `gorm:"column:n"`
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rr := range rows {
		out[rr.ConversationID] = rr.N
	}
	return out, nil
}

// LastByConversations fetches the newest message per conversation in a single
// query; the correlated subquery keeps it portable across postgres and sqlite.
func (r *messageRepo) LastByConversations(dbc dbctx.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]*types.Message, error) {
	out := map[uuid.UUID]*types.Message{}
	if len(conversationIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("conversation_id IN ?", conversationIDs).
		Where(`id = (
			SELECT m2.id FROM messages m2
			WHERE m2.conversation_id = messages.conversation_id
			ORDER BY m2.created_at DESC, m2.id DESC
			LIMIT 1
		)`).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.ConversationID] = m
	}
	return out, nil
}
