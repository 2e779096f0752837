package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/dbx"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/server/auth"
	"github.com/dmitrijs2005/questboard/internal/server/config"
	sm "github.com/dmitrijs2005/questboard/internal/server/models"
	"github.com/dmitrijs2005/questboard/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// hashPassword and comparePassword are seams over bcrypt.
var (
	hashPassword = func(password []byte) ([]byte, error) {
		return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	}
	comparePassword = bcrypt.CompareHashAndPassword
)

// UserService handles registration, login and token rotation. Accounts
// live in PostgreSQL; the public profile is written through ProfileService.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	profiles                     *ProfileService
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	emailDomain                  string
	now                          Clock
	logger                       logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, profiles *ProfileService, cfg *config.Config, now Clock, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		profiles:                     profiles,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		emailDomain:                  cfg.EmailDomain,
		now:                          orNow(now),
		logger:                       logger.With("module", "users"),
	}
}

// Register validates the form, creates the account and writes the public
// profile. It returns the new user id.
func (s *UserService) Register(ctx context.Context, reg models.Registration) (string, error) {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.PhoneNumber = strings.TrimSpace(reg.PhoneNumber)
	reg.Birthday = strings.TrimSpace(reg.Birthday)
	if err := reg.Validate(s.emailDomain, s.now()); err != nil {
		return "", err
	}

	password := []byte(reg.Password)
	defer common.WipeByteArray(password)
	hash, err := hashPassword(password)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	account, err := s.repomanager.Users(s.db).Create(ctx, &sm.Account{Email: reg.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrEmailRegistered) {
			return "", err
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	profile := models.Profile{
		ID:          account.ID,
		Name:        reg.DisplayName(),
		FirstName:   reg.FirstName,
		LastName:    reg.LastName,
		Birthday:    reg.Birthday,
		PhoneNumber: reg.PhoneNumber,
		Email:       account.Email,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "user registered", "user_id", account.ID)
	return account.ID, nil
}

// Login checks the password and issues a TokenPair. Unknown emails and
// wrong passwords are both common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	account, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	candidate := []byte(password)
	defer common.WipeByteArray(candidate)
	if err := comparePassword(account.PasswordHash, candidate); err != nil {
		return nil, common.ErrorUnauthorized
	}

	if n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, account.ID, s.now()); err != nil {
		s.logger.Warn(ctx, "pruning expired refresh tokens failed", "user_id", account.ID, "error", err)
	} else if n > 0 {
		s.logger.Debug(ctx, "pruned expired refresh tokens", "user_id", account.ID, "count", n)
	}

	return s.generateTokenPair(ctx, account.ID, s.db)
}

// RefreshToken consumes a refresh token and returns a fresh TokenPair, all
// in one transaction. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Take(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error taking refresh token: %w", err)
		}
		if token.Expires.Before(s.now()) {
			return common.ErrRefreshTokenExpired
		}
		pair, err = s.generateTokenPair(ctx, token.UserID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	rt := &sm.RefreshToken{UserID: userID, Token: refresh, Expires: s.now().Add(s.refreshTokenValidityDuration)}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, rt); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, UserID: userID}, nil
}
