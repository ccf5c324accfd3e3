package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/style"
	"github.com/pharmchat/pharmchat-backend/internal/data/repos/user"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
	"github.com/pharmchat/pharmchat-backend/internal/requestdata"
)

// ProfileDocument is the merged identity+preferences view returned by the
// profile API. Identity fields are read-only; preference fields are editable.
type ProfileDocument struct {
	User    *types.User        `json:"user"`
	Profile *types.UserProfile `json:"profile"`
}

// UpdateProfileInput is a partial update over the editable preference fields.
// Nil leaves a field untouched. A non-nil ResponseStyleID equal to uuid.Nil
// clears the style reference.
type UpdateProfileInput struct {
	Role                *string
	Department          *string
	Region              *string
	RoleDescription     *string
	ResponseStyleID     *uuid.UUID
	CustomResponseStyle *string
	CustomInstructions  *string
}

type ProfileService interface {
	Get(dbc dbctx.Context) (*ProfileDocument, error)
	Update(dbc dbctx.Context, input UpdateProfileInput) (*ProfileDocument, error)
}

type profileService struct {
	db       *gorm.DB
	log      *logger.Logger
	users    user.UserRepo
	profiles user.UserProfileRepo
	styles   style.ResponseStyleRepo
}

func NewProfileService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo user.UserRepo,
	profileRepo user.UserProfileRepo,
	styleRepo style.ResponseStyleRepo,
) ProfileService {
	return &profileService{
		db:       db,
		log:      baseLog.With("service", "ProfileService"),
		users:    userRepo,
		profiles: profileRepo,
		styles:   styleRepo,
	}
}

func (s *profileService) Get(dbc dbctx.Context) (*ProfileDocument, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	var out *ProfileDocument
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		doc, err := s.load(repoCtx, rd.UserID)
		if err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *profileService) Update(dbc dbctx.Context, input UpdateProfileInput) (*ProfileDocument, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}

	var out *ProfileDocument
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		doc, err := s.load(repoCtx, rd.UserID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.Role != nil {
			updates["role"] = nullableText(*input.Role)
		}
		if input.Department != nil {
			updates["department"] = nullableText(*input.Department)
		}
		if input.Region != nil {
			updates["region"] = nullableText(*input.Region)
		}
		if input.RoleDescription != nil {
			updates["role_description"] = nullableText(*input.RoleDescription)
		}
		if input.CustomResponseStyle != nil {
			updates["custom_response_style"] = nullableText(*input.CustomResponseStyle)
		}
		if input.CustomInstructions != nil {
			updates["custom_instructions"] = nullableText(*input.CustomInstructions)
		}
		if input.ResponseStyleID != nil {
			if *input.ResponseStyleID == uuid.Nil {
				updates["response_style_id"] = nil
			} else {
				st, err := s.styles.GetByID(repoCtx, *input.ResponseStyleID)
				if err != nil {
					return err
				}
				if st == nil {
					return fmt.Errorf("%w: response style", apperr.ErrNotFound)
				}
				updates["response_style_id"] = *input.ResponseStyleID
			}
		}

		if len(updates) > 0 {
			if err := s.profiles.UpdateFields(repoCtx, doc.Profile.ID, updates); err != nil {
				return err
			}
			doc, err = s.load(repoCtx, rd.UserID)
			if err != nil {
				return err
			}
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// load fetches the user and their profile, creating an empty profile row when
// one does not exist yet.
func (s *profileService) load(repoCtx dbctx.Context, userID uuid.UUID) (*ProfileDocument, error) {
	users, err := s.users.GetByIDs(repoCtx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: user", apperr.ErrNotFound)
	}

	profile, err := s.profiles.GetByUserID(repoCtx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		now := time.Now().UTC()
		profile = &types.UserProfile{
			ID:        uuid.New(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.profiles.Create(repoCtx, profile); err != nil {
			return nil, err
		}
	}
	return &ProfileDocument{User: users[0], Profile: profile}, nil
}

func nullableText(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
