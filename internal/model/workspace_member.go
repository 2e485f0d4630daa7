package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkspaceMember links a user to a workspace. Rows are keyed by user id; the
// legacy user_email column is only present on databases that predate the
// reconciliation and is never mapped here.
type WorkspaceMember struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Role        string    `gorm:"not null;check:role IN ('owner', 'member')"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Workspace Workspace `gorm:"foreignKey:WorkspaceID"`
	User      User      `gorm:"foreignKey:UserID"`
}

func (WorkspaceMember) TableName() string { return "workspace_member" }

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)
