package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AccountService struct {
	store
}

func NewAccountService(db *gorm.DB, opTimeout time.Duration) *AccountService {
	return &AccountService{store: newStore(db, opTimeout)}
}

// List returns every live account, oldest first.
func (s *AccountService) List(ctx context.Context, actor *authz.Context) ([]types.UserResponse, error) {
	var accounts []models.Account

	err := s.read(ctx, func(tx *gorm.DB) error {
		return tx.Order("id").Find(&accounts).Error
	})
	if err != nil {
		return nil, err
	}

	responses := make([]types.UserResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, types.NewUserResponse(account))
	}
	return responses, nil
}

func (s *AccountService) Get(ctx context.Context, actor *authz.Context, id uint) (types.UserResponse, error) {
	var account models.Account

	err := s.read(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&account, id).Error; err != nil {
			return notFoundOr(err, "account %d not found", id)
		}
		return nil
	})
	if err != nil {
		return types.UserResponse{}, err
	}

	return types.NewUserResponse(account), nil
}

// Update changes the present fields of an account. Callers edit themselves; Admins edit
// anyone and are the only ones who may change a role.
func (s *AccountService) Update(ctx context.Context, actor *authz.Context, id uint, req types.UpdateAccountRequest) (types.UserResponse, error) {
	if !actor.IsAdmin() && actor.AccountID != id {
		return types.UserResponse{}, types.Forbidden("cannot edit account %d", id)
	}
	if req.Role != nil && !actor.IsAdmin() {
		return types.UserResponse{}, types.Forbidden("only admins can change roles")
	}

	var account models.Account

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&account, id).Error; err != nil {
			return notFoundOr(err, "account %d not found", id)
		}

		if err := applyAccountUpdate(tx, &account, req); err != nil {
			return err
		}

		if err := tx.Save(&account).Error; err != nil {
			return fmt.Errorf("update account %d: %w", id, err)
		}

		if !account.IsActive {
			return revokeTokens(tx, id)
		}
		return nil
	})
	if err != nil {
		return types.UserResponse{}, err
	}

	return types.NewUserResponse(account), nil
}

func applyAccountUpdate(tx *gorm.DB, account *models.Account, req types.UpdateAccountRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return types.Validation("name is required")
		}
		account.Name = name
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return types.Validation("email is required")
		}
		if email != account.Email {
			var existing models.Account
			err := tx.Unscoped().Where("email = ? AND id <> ?", email, account.ID).First(&existing).Error
			if err == nil {
				return types.Conflict("email already exists")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("check existing email: %w", err)
			}
		}
		account.Email = email
	}

	if req.Password != nil {
		if len(*req.Password) < 8 {
			return types.Validation("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hash)
	}

	if req.Role != nil {
		if *req.Role != models.RoleAdmin && *req.Role != models.RoleUser {
			return types.Validation("unknown role %q", *req.Role)
		}
		account.Role = *req.Role
	}

	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	if req.ProfilePicture != nil {
		account.ProfilePicture = req.ProfilePicture
	}

	return nil
}

// Delete soft-deletes an account and revokes its sessions. Admin only; an Admin cannot
// delete their own account.
func (s *AccountService) Delete(ctx context.Context, actor *authz.Context, id uint) error {
	if !actor.IsAdmin() {
		return types.Forbidden("access denied, admins only")
	}
	if actor.AccountID == id {
		return types.Validation("admins cannot delete their own account")
	}

	return s.transaction(ctx, func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, id).Error; err != nil {
			return notFoundOr(err, "account %d not found", id)
		}

		if err := tx.Delete(&account).Error; err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		return revokeTokens(tx, id)
	})
}

func revokeTokens(tx *gorm.DB, accountID uint) error {
	if err := tx.Model(&models.ApiToken{}).
		Where("account_id = ? AND revoked = ?", accountID, false).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("revoke tokens of account %d: %w", accountID, err)
	}
	return nil
}
