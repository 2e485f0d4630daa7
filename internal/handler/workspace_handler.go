package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"taskspace/internal/model"
	"taskspace/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkspaceStore interface {
	Create(ctx context.Context, workspace *model.Workspace) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Workspace, error)
}

type MemberStore interface {
	Add(ctx context.Context, workspaceID, userID uuid.UUID, role string) error
	Remove(ctx context.Context, workspaceID, userID uuid.UUID) error
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.WorkspaceMember, error)
	GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error)
}

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type WorkspaceHandler struct {
	workspaces WorkspaceStore
	members    MemberStore
	users      UserLookup
}

func NewWorkspaceHandler(workspaces WorkspaceStore, members MemberStore, users UserLookup) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaces: workspaces,
		members:    members,
		users:      users,
	}
}

type CreateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

type WorkspaceResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

// AddMemberRequest identifies the new member by email; it is stored by user id.
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type MemberResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func toWorkspaceResponse(w *model.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:        w.ID.String(),
		Name:      w.Name,
		OwnerID:   w.OwnerID.String(),
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

// Create creates a workspace owned by the authenticated user
func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	workspace := &model.Workspace{
		ID:      uuid.New(),
		Name:    req.Name,
		OwnerID: userID,
	}
	if err := h.workspaces.Create(c.Request.Context(), workspace); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create workspace"})
		return
	}

	c.JSON(http.StatusCreated, toWorkspaceResponse(workspace))
}

// GetAll lists the workspaces the authenticated user belongs to
func (h *WorkspaceHandler) GetAll(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	workspaces, err := h.workspaces.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspaces"})
		return
	}

	response := make([]WorkspaceResponse, len(workspaces))
	for i := range workspaces {
		response[i] = toWorkspaceResponse(&workspaces[i])
	}
	c.JSON(http.StatusOK, response)
}

// GetMembers lists the members of a workspace the caller belongs to
func (h *WorkspaceHandler) GetMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := paramUUID(c, "id", "Invalid workspace ID format")
	if !ok {
		return
	}
	if _, ok := requireRole(c, h.members, workspaceID, userID, false); !ok {
		return
	}

	members, err := h.members.ListByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, len(members))
	for i, m := range members {
		response[i] = MemberResponse{
			UserID: m.UserID.String(),
			Email:  m.User.Email,
			Name:   m.User.Name,
			Role:   m.Role,
		}
	}
	c.JSON(http.StatusOK, response)
}

// AddMember adds a registered user to the workspace. Owner only; existing
// members (the owner included) answer 409.
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := paramUUID(c, "id", "Invalid workspace ID format")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := requireRole(c, h.members, workspaceID, userID, true); !ok {
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	existing, err := h.members.GetRole(c.Request.Context(), workspaceID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if existing != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this workspace"})
		return
	}

	if err := h.members.Add(c.Request.Context(), workspaceID, user.ID, model.RoleMember); err != nil {
		if errors.Is(err, repository.ErrOwnerRoleChange) {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this workspace"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	c.JSON(http.StatusCreated, MemberResponse{
		UserID: user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		Role:   model.RoleMember,
	})
}

// RemoveMember removes a member. Owner only; the owner cannot remove themselves.
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := paramUUID(c, "id", "Invalid workspace ID format")
	if !ok {
		return
	}
	memberID, ok := paramUUID(c, "user_id", "Invalid user ID format")
	if !ok {
		return
	}

	if _, ok := requireRole(c, h.members, workspaceID, userID, true); !ok {
		return
	}
	if memberID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner cannot be removed from the workspace"})
		return
	}

	if err := h.members.Remove(c.Request.Context(), workspaceID, memberID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RoleChecker reports a user's role in a workspace, "" when not a member.
type RoleChecker interface {
	GetRole(ctx context.Context, workspaceID, userID uuid.UUID) (string, error)
}

// requireRole answers 403 unless the user is a member (or the owner, when
// ownerOnly is set) of the workspace.
func requireRole(c *gin.Context, roles RoleChecker, workspaceID, userID uuid.UUID, ownerOnly bool) (string, bool) {
	role, err := roles.GetRole(c.Request.Context(), workspaceID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return "", false
	}
	if role == "" || (ownerOnly && role != model.RoleOwner) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this workspace"})
		return "", false
	}
	return role, true
}
