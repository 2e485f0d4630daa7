package repository

import (
	"context"

	"taskspace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create inserts the workspace and its owner's membership row together.
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *model.Workspace) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		return tx.Create(&model.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      workspace.OwnerID,
			Role:        model.RoleOwner,
		}).Error
	})
}

// ListForUser returns the workspaces the user is a member of.
func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error) {
	var workspaces []model.Workspace
	err := r.db.WithContext(ctx).
		Joins("JOIN workspace_member ON workspace_member.workspace_id = workspace.id").
		Where("workspace_member.user_id = ?", userID).
		Order("workspace.created_at").
		Find(&workspaces).Error
	return workspaces, err
}
