// Package auth issues, validates and revokes session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/config"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Session is an issued token with its lifetime.
type Session struct {
	Token     string    `json:"token"`
	AccountID uint      `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Gateway struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewGateway(db *gorm.DB, cfg config.AuthConfig) (*Gateway, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is not set")
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}

	return &Gateway{db: db, secret: []byte(cfg.JWTSecret), ttl: ttl, now: time.Now}, nil
}

// Register creates an account. Emails are stored lower-cased and must be unique.
func (g *Gateway) Register(ctx context.Context, name, email, password, role string) (models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if name == "" || email == "" {
		return models.Account{}, types.Validation("name and email are required")
	}
	if len(password) < 8 {
		return models.Account{}, types.Validation("password must be at least 8 characters")
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return models.Account{}, types.Validation("unknown role %q", role)
	}

	var existing models.Account
	err := g.db.WithContext(ctx).Unscoped().Where("email = ?", email).First(&existing).Error
	if err == nil {
		return models.Account{}, types.Conflict("email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Account{}, fmt.Errorf("check existing account: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         role,
		IsActive:     true,
	}
	if err := g.db.WithContext(ctx).Create(&account).Error; err != nil {
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

func (g *Gateway) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	err := g.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load account: %w", err)
	}

	if !account.IsActive {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := g.now()
	signed, jti, err := g.generateJWT(account.ID, account.Email, now)
	if err != nil {
		return Session{}, err
	}

	record := models.ApiToken{
		Token:     jti,
		AccountID: account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		return Session{}, fmt.Errorf("store token: %w", err)
	}

	return Session{Token: signed, AccountID: account.ID, CreatedAt: record.CreatedAt, ExpiresAt: record.ExpiresAt}, nil
}

// Validate returns the account of a token that is well-formed, unexpired and not revoked.
func (g *Gateway) Validate(ctx context.Context, token string) (uint, error) {
	claims, err := g.verifyJWT(token)
	if err != nil {
		return 0, err
	}

	var record models.ApiToken
	err = g.db.WithContext(ctx).Where("token = ?", claims.ID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, fmt.Errorf("load token: %w", err)
	}

	if record.Revoked || !g.now().Before(record.ExpiresAt) || record.AccountID != claims.AccountID {
		return 0, ErrInvalidToken
	}

	return record.AccountID, nil
}

func (g *Gateway) Revoke(ctx context.Context, token string) error {
	claims, err := g.verifyJWT(token)
	if err != nil {
		return err
	}

	result := g.db.WithContext(ctx).Model(&models.ApiToken{}).Where("token = ?", claims.ID).Update("revoked", true)
	if result.Error != nil {
		return fmt.Errorf("revoke token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidToken
	}
	return nil
}
