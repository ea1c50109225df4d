package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/internal/users"
	pkgAuth "github.com/Kunwar-bir-singh/Online-Assessment/pkg/auth"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/config"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	pkgerrors "github.com/Kunwar-bir-singh/Online-Assessment/pkg/errors"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/security"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error)
	Logout(ctx context.Context, userID int64, accessID string) error
}

type sessionTracker interface {
	Track(ctx context.Context, accessID string, userID int64) error
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	db          *db.Client
	session     sessionTracker
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DB             *db.Client
	SessionManager sessionTracker
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		db:          params.DB,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: passwordHash,
			Address:      strings.TrimSpace(req.Address),
		})
		if err != nil {
			if db.IsUniqueViolation(err, "idx_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Refresh rotates the token pair. The consumed refresh token row is deleted
// before the replacement is written so a token can never be exchanged twice.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := pkgAuth.ParseRefreshToken(s.jwtCfg, req.RefreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	now := time.Now().UTC()

	var (
		user         *models.User
		accessToken  string
		refreshToken string
		accessID     string
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		tokenRepo := NewTokenRepository(tx)
		userRepo := users.NewRepository(tx)

		row, err := tokenRepo.FindByToken(ctx, req.RefreshToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token not recognized")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup refresh token")
		}
		if row.UserID != claims.UserID {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token not recognized")
		}
		if now.After(row.ExpiresAt) {
			// stale row, prune it while rejecting
			if _, err := tokenRepo.DeleteByToken(ctx, req.RefreshToken); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete expired refresh token")
			}
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token expired")
		}

		if _, err := tokenRepo.DeleteByToken(ctx, req.RefreshToken); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume refresh token")
		}

		user, err = userRepo.FindByID(ctx, row.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token not recognized")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		accessToken, refreshToken, accessID, err = s.mintPair(user, now)
		if err != nil {
			return err
		}

		if _, err := tokenRepo.Create(ctx, user.ID, refreshToken, now.Add(s.jwtCfg.RefreshTokenTTL())); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.session.Track(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "track session")
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

// Logout revokes the active session and invalidates every refresh token the
// user holds.
func (s *service) Logout(ctx context.Context, userID int64, accessID string) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := NewTokenRepository(tx).DeleteForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete refresh tokens")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	userRepo := users.NewRepository(s.db.DB())
	user, err := userRepo.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// issueTokens mints a token pair, persists the refresh row and tracks the
// session for the freshly minted access token.
func (s *service) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	now := time.Now().UTC()

	accessToken, refreshToken, accessID, err := s.mintPair(user, now)
	if err != nil {
		return nil, err
	}

	tokenRepo := NewTokenRepository(s.db.DB())
	if _, err := tokenRepo.Create(ctx, user.ID, refreshToken, now.Add(s.jwtCfg.RefreshTokenTTL())); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	if err := s.session.Track(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "track session")
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) mintPair(user *models.User, now time.Time) (accessToken, refreshToken, accessID string, err error) {
	accessID = pkgAuth.NewAccessID()

	accessToken, err = pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		JTI:    accessID,
	})
	if err != nil {
		return "", "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken, err = pkgAuth.MintRefreshToken(s.jwtCfg, now, user.ID)
	if err != nil {
		return "", "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}
	return accessToken, refreshToken, accessID, nil
}
