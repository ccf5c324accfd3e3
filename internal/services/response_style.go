package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/style"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

type ResponseStyleService interface {
	List(dbc dbctx.Context) ([]*types.ResponseStyle, error)
	// SeedDefaults populates the preset table on first boot; a non-empty table
	// is left alone.
	SeedDefaults(dbc dbctx.Context) error
}

type responseStyleService struct {
	db     *gorm.DB
	log    *logger.Logger
	styles style.ResponseStyleRepo
}

func NewResponseStyleService(db *gorm.DB, baseLog *logger.Logger, styleRepo style.ResponseStyleRepo) ResponseStyleService {
	return &responseStyleService{
		db:     db,
		log:    baseLog.With("service", "ResponseStyleService"),
		styles: styleRepo,
	}
}

func (s *responseStyleService) List(dbc dbctx.Context) ([]*types.ResponseStyle, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}
	return s.styles.List(repoCtx)
}

func (s *responseStyleService) SeedDefaults(dbc dbctx.Context) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}

	now := time.Now().UTC()
	mk := func(label, description, systemPrompt string, isDefault bool) *types.ResponseStyle {
		return &types.ResponseStyle{
			ID:           uuid.New(),
			Label:        label,
			Description:  &description,
			SystemPrompt: &systemPrompt,
			IsDefault:    isDefault,
			CreatedAt:    now,
		}
	}
	return s.styles.Seed(repoCtx, []*types.ResponseStyle{
		mk("Balanced", "Clear answers with moderate detail.", "Respond clearly with a balanced level of detail.", true),
		mk("Concise", "Short, direct answers.", "Respond as briefly as possible while staying accurate.", false),
		mk("Detailed", "Thorough answers with supporting context.", "Respond thoroughly, including relevant background and caveats.", false),
		mk("Technical", "Precise terminology for expert readers.", "Respond with precise technical terminology for an expert audience.", false),
	})
}
