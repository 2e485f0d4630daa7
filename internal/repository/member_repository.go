package repository

import (
	"context"
	"errors"

	"taskspace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Add makes the user a member of the workspace, updating the role if the
// membership already exists. An owner row is never downgraded.
func (r *MemberRepository) Add(ctx context.Context, workspaceID, userID uuid.UUID, role string) error {
	member := model.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.WorkspaceMember
		err := tx.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&existing).Error

		if err == nil {
			if existing.Role == model.RoleOwner && role != model.RoleOwner {
				return ErrOwnerRoleChange
			}
			existing.Role = role
			return tx.Save(&existing).Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&member).Error
	})
}

func (r *MemberRepository) Remove(ctx context.Context, workspaceID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&model.WorkspaceMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// ListByWorkspace returns the members with their users preloaded.
func (r *MemberRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.WorkspaceMember, error) {
	var members []model.WorkspaceMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at").
		Find(&members).Error
	return members, err
}

// GetRole returns the user's role in the workspace, or "" if not a member.
func (r *MemberRepository) GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error) {
	var member model.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}
