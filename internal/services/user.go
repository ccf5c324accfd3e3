package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmchat/pharmchat-backend/internal/data/repos/user"
	types "github.com/pharmchat/pharmchat-backend/internal/domain"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/apperr"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
)

// IdentityClaims is what the IdP token asserts about the caller.
type IdentityClaims struct {
	ExternalID string
	Name       string
	Surname    string
	Email      string
	Image      string
}

type UserService interface {
	// EnsureUser upserts the user row for a verified identity and guarantees a
	// profile row exists, in one transaction. Token fields refresh the stored
	// ones; blank token fields never blank out stored values.
	EnsureUser(dbc dbctx.Context, claims IdentityClaims) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	users    user.UserRepo
	profiles user.UserProfileRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo user.UserRepo, profileRepo user.UserProfileRepo) UserService {
	return &userService{
		db:       db,
		log:      baseLog.With("service", "UserService"),
		users:    userRepo,
		profiles: profileRepo,
	}
}

func (s *userService) EnsureUser(dbc dbctx.Context, claims IdentityClaims) (*types.User, error) {
	externalID := strings.TrimSpace(claims.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: missing external id", apperr.ErrUnauthorized)
	}

	var out *types.User
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		now := time.Now().UTC()

		existing, err := s.users.GetByExternalID(repoCtx, externalID)
		if err != nil {
			return err
		}

		if existing == nil {
			created := &types.User{
				ID:         uuid.New(),
				ExternalID: externalID,
				Name:       claims.Name,
				Surname:    claims.Surname,
				Email:      claims.Email,
				Image:      claims.Image,
				LastLogin:  &now,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if _, err := s.users.Create(repoCtx, []*types.User{created}); err != nil {
				return err
			}
			out = created
		} else {
			updates := map[string]interface{}{"last_login": now}
			if claims.Name != "" && claims.Name != existing.Name {
				updates["name"] = claims.Name
				existing.Name = claims.Name
			}
			if claims.Surname != "" && claims.Surname != existing.Surname {
				updates["surname"] = claims.Surname
				existing.Surname = claims.Surname
			}
			if claims.Email != "" && claims.Email != existing.Email {
				updates["email"] = claims.Email
				existing.Email = claims.Email
			}
			if claims.Image != "" && claims.Image != existing.Image {
				updates["image"] = claims.Image
				existing.Image = claims.Image
			}
			if err := s.users.UpdateFields(repoCtx, existing.ID, updates); err != nil {
				return err
			}
			existing.LastLogin = &now
			out = existing
		}

		profile, err := s.profiles.GetByUserID(repoCtx, out.ID)
		if err != nil {
			return err
		}
		if profile == nil {
			empty := &types.UserProfile{
				ID:        uuid.New(),
				UserID:    out.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := s.profiles.Create(repoCtx, empty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
