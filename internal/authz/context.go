// Package authz resolves who an authenticated caller is and what they may do with a
// project or task.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
)

// Context is the caller identity every workflow operation receives. It is built from the
// stored account, never from an id supplied in a request. Membership roles are looked up
// on first use and cached for the lifetime of the value, which is one request; a Context
// is not safe for concurrent use.
type Context struct {
	AccountID uint
	Role      string

	memberships map[uint]membership
}

type membership struct {
	role  string
	found bool
}

func NewContext(account models.Account) *Context {
	return &Context{
		AccountID:   account.ID,
		Role:        account.Role,
		memberships: make(map[uint]membership),
	}
}

// Load builds a Context for accountID. Unknown or deleted accounts yield NotFound,
// deactivated ones Forbidden.
func Load(ctx context.Context, db *gorm.DB, accountID uint) (*Context, error) {
	var account models.Account

	if err := db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("account %d not found", accountID)
		}
		return nil, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if !account.IsActive {
		return nil, types.Forbidden("account %d is deactivated", accountID)
	}

	return NewContext(account), nil
}

func (c *Context) IsAdmin() bool {
	return c != nil && c.Role == models.RoleAdmin
}

// MembershipRole returns the caller's role in projectID and whether a membership exists.
func (c *Context) MembershipRole(tx *gorm.DB, projectID uint) (string, bool, error) {
	if c.memberships == nil {
		c.memberships = make(map[uint]membership)
	}
	if m, ok := c.memberships[projectID]; ok {
		return m.role, m.found, nil
	}

	var member models.ProjectMember
	err := tx.Where("project_id = ? AND account_id = ?", projectID, c.AccountID).First(&member).Error

	switch {
	case err == nil:
		c.memberships[projectID] = membership{role: member.Role, found: true}
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.memberships[projectID] = membership{}
	default:
		return "", false, fmt.Errorf("load membership: %w", err)
	}

	m := c.memberships[projectID]
	return m.role, m.found, nil
}

// Forget drops the cached membership of projectID, used after the membership changes.
func (c *Context) Forget(projectID uint) {
	delete(c.memberships, projectID)
}
