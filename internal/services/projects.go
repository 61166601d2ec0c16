package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tasktrack-dev/tasktrack/internal/authz"
	"github.com/tasktrack-dev/tasktrack/internal/models"
	"github.com/tasktrack-dev/tasktrack/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectWorkflow struct {
	store
	audit *AuditLog
}

func NewProjectWorkflow(db *gorm.DB, opTimeout time.Duration, audit *AuditLog) *ProjectWorkflow {
	return &ProjectWorkflow{store: newStore(db, opTimeout), audit: audit}
}

// Create opens a project together with its membership rows. An Admin creator must
// name the project manager; any other creator becomes the project manager and, when
// asked, the scrum master as well.
func (w *ProjectWorkflow) Create(ctx context.Context, actor *authz.Context, req types.CreateProjectRequest) (types.ProjectResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return types.ProjectResponse{}, types.Validation("project name is required")
	}

	var managerID uint
	var scrumMasterID *uint

	if actor.IsAdmin() {
		if req.ProjectManagerID == nil || *req.ProjectManagerID == 0 {
			return types.ProjectResponse{}, types.Validation("admin must select a project manager")
		}
		managerID = *req.ProjectManagerID
		scrumMasterID = req.ScrumMasterID
	} else {
		managerID = actor.AccountID
		if req.IsAlsoScrumMaster {
			scrumMasterID = ptr(actor.AccountID)
		} else {
			scrumMasterID = req.ScrumMasterID
		}
	}

	project := models.Project{
		Name:             name,
		Description:      req.Description,
		Status:           models.ProjectActive,
		CreatedByID:      actor.AccountID,
		ProjectManagerID: managerID,
		ScrumMasterID:    scrumMasterID,
	}

	err := w.transaction(ctx, func(tx *gorm.DB) error {
		referenced := append([]uint{managerID}, req.MemberIDs...)
		if scrumMasterID != nil {
			referenced = append(referenced, *scrumMasterID)
		}
		if err := requireAccounts(tx, referenced); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		project.Members = initialMembers(project.ID, managerID, scrumMasterID, req.MemberIDs)
		if err := tx.Create(&project.Members).Error; err != nil {
			return fmt.Errorf("create project members: %w", err)
		}

		entry := projectEntry(project.ID, actor.AccountID, ActionProjectCreated, "Project created by "+actor.Role)
		entry.NewValue = ptr(project.Name)
		return w.audit.Append(tx, entry)
	})
	if err != nil {
		return types.ProjectResponse{}, err
	}

	actor.Forget(project.ID)
	return types.NewProjectResponse(project), nil
}

func initialMembers(projectID, managerID uint, scrumMasterID *uint, memberIDs []uint) []models.ProjectMember {
	now := time.Now()
	member := func(accountID uint, role string) models.ProjectMember {
		return models.ProjectMember{ProjectID: projectID, AccountID: accountID, Role: role, JoinedAt: now}
	}

	var members []models.ProjectMember
	switch {
	case scrumMasterID != nil && *scrumMasterID == managerID:
		members = append(members, member(managerID, models.MemberRoleProjectManagerScrumMaster))
	case scrumMasterID != nil:
		members = append(members, member(managerID, models.MemberRoleProjectManager))
		members = append(members, member(*scrumMasterID, models.MemberRoleScrumMaster))
	default:
		members = append(members, member(managerID, models.MemberRoleProjectManager))
	}

	added := make(map[uint]struct{}, len(members)+len(memberIDs))
	for _, m := range members {
		added[m.AccountID] = struct{}{}
	}
	for _, id := range memberIDs {
		if _, ok := added[id]; ok {
			continue
		}
		added[id] = struct{}{}
		members = append(members, member(id, models.MemberRoleMember))
	}

	return members
}

func requireAccounts(tx *gorm.DB, ids []uint) error {
	ids = distinctIDs(ids)

	var found []uint
	if err := tx.Model(&models.Account{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	if len(found) == len(ids) {
		return nil
	}

	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return types.NotFound("account %d not found", id)
		}
	}
	return nil
}

func (w *ProjectWorkflow) Get(ctx context.Context, actor *authz.Context, id uint) (types.ProjectResponse, error) {
	var project models.Project

	err := w.read(ctx, func(tx *gorm.DB) error {
		if err := tx.Preload("Members").First(&project, id).Error; err != nil {
			return notFoundOr(err, "project %d not found", id)
		}
		_, err := authz.RequireMember(tx, actor, id)
		return err
	})
	if err != nil {
		return types.ProjectResponse{}, err
	}

	return types.NewProjectResponse(project), nil
}

// GetAll lists every live project for Admins and the caller's own projects otherwise.
func (w *ProjectWorkflow) GetAll(ctx context.Context, actor *authz.Context) ([]types.ProjectResponse, error) {
	if actor.IsAdmin() {
		return w.list(ctx, func(tx *gorm.DB) *gorm.DB { return tx.Model(&models.Project{}) })
	}
	return w.GetMyProjects(ctx, actor, actor.AccountID)
}

func (w *ProjectWorkflow) GetMyProjects(ctx context.Context, actor *authz.Context, accountID uint) ([]types.ProjectResponse, error) {
	if !actor.IsAdmin() && actor.AccountID != accountID {
		return nil, types.Forbidden("cannot list the projects of account %d", accountID)
	}
	return w.list(ctx, func(tx *gorm.DB) *gorm.DB {
		memberships := tx.Model(&models.ProjectMember{}).Select("project_id").Where("account_id = ?", accountID)
		return tx.Model(&models.Project{}).Where("id IN (?)", memberships)
	})
}

func (w *ProjectWorkflow) list(ctx context.Context, query func(tx *gorm.DB) *gorm.DB) ([]types.ProjectResponse, error) {
	var projects []models.Project

	err := w.read(ctx, func(tx *gorm.DB) error {
		return query(tx).Preload("Members").Order("created_at DESC, id DESC").Find(&projects).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		out = append(out, types.NewProjectResponse(project))
	}
	return out, nil
}

// AddMember adds accountID as a plain member. Adding an existing member is a no-op.
func (w *ProjectWorkflow) AddMember(ctx context.Context, actor *authz.Context, projectID, accountID uint) error {
	err := w.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Project{}, projectID).Error; err != nil {
			return notFoundOr(err, "project %d not found", projectID)
		}

		role, err := authz.RequireMember(tx, actor, projectID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && !models.IsManagerRole(role) {
			return types.Forbidden("only project managers and scrum masters can add members")
		}

		if err := requireAccounts(tx, []uint{accountID}); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND account_id = ?", projectID, accountID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if existing > 0 {
			return nil
		}

		member := models.ProjectMember{
			ProjectID: projectID,
			AccountID: accountID,
			Role:      models.MemberRoleMember,
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("add member: %w", err)
		}

		entry := projectEntry(projectID, actor.AccountID, ActionMemberAdded, "Member added")
		entry.NewValue = ptr(fmt.Sprint(accountID))
		return w.audit.Append(tx, entry)
	})
	if err == nil && accountID == actor.AccountID {
		actor.Forget(projectID)
	}
	return err
}

func (w *ProjectWorkflow) UpdateStatus(ctx context.Context, actor *authz.Context, projectID uint, status string) error {
	if _, ok := models.ValidProjectStatuses[status]; !ok {
		return types.Validation("unknown project status %q", status)
	}

	return w.transaction(ctx, func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return notFoundOr(err, "project %d not found", projectID)
		}

		role, err := authz.RequireMember(tx, actor, projectID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && role != models.MemberRoleProjectManager && role != models.MemberRoleProjectManagerScrumMaster {
			return types.Forbidden("only the project manager can change the project status")
		}

		if project.Status == status {
			return nil
		}

		old := project.Status
		if err := tx.Model(&project).Update("status", status).Error; err != nil {
			return fmt.Errorf("update project %d: %w", projectID, err)
		}

		entry := projectEntry(projectID, actor.AccountID, ActionProjectStatusChanged, "Project status changed")
		entry.OldValue = ptr(old)
		entry.NewValue = ptr(status)
		entry.Changes = []models.FieldChange{{Field: "Status", OldValue: old, NewValue: status}}
		return w.audit.Append(tx, entry)
	})
}

// Delete soft-deletes a project. Only Admins may do it.
func (w *ProjectWorkflow) Delete(ctx context.Context, actor *authz.Context, projectID uint) error {
	if !actor.IsAdmin() {
		return types.Forbidden("access denied, admins only")
	}

	return w.transaction(ctx, func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return notFoundOr(err, "project %d not found", projectID)
		}

		if err := tx.Delete(&project).Error; err != nil {
			return fmt.Errorf("delete project %d: %w", projectID, err)
		}

		entry := projectEntry(projectID, actor.AccountID, ActionProjectDeleted, "Project deleted by admin")
		entry.OldValue = ptr(project.Name)
		return w.audit.Append(tx, entry)
	})
}
