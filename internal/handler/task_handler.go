package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taskspace/internal/model"
	"taskspace/internal/priority"
	"taskspace/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PriorityRecorder counts priority selections.
type PriorityRecorder interface {
	RecordPriorityUpdate(priority string, err error)
}

type TaskHandler struct {
	tasks    TaskStore
	members  RoleChecker
	recorder PriorityRecorder
}

func NewTaskHandler(tasks TaskStore, members RoleChecker, recorder PriorityRecorder) *TaskHandler {
	return &TaskHandler{
		tasks:    tasks,
		members:  members,
		recorder: recorder,
	}
}

// TaskRequest is the body for creating a task
type TaskRequest struct {
	WorkspaceID string     `json:"workspace_id" binding:"required,uuid"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssignedTo  *string    `json:"assigned_to" binding:"omitempty,uuid"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskUpdateRequest replaces a task's editable fields. An empty priority keeps the current one.
type TaskUpdateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssignedTo  *string    `json:"assigned_to" binding:"omitempty,uuid"`
	DueDate     *time.Time `json:"due_date"`
}

type PriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

type TaskResponse struct {
	ID            string  `json:"id"`
	WorkspaceID   string  `json:"workspace_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Priority      string  `json:"priority"`
	PriorityLabel string  `json:"priority_label"`
	AssignedTo    *string `json:"assigned_to,omitempty"`
	CreatedBy     string  `json:"created_by"`
	DueDate       *string `json:"due_date,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// PriorityResponse is the rendered priority selector for one task
type PriorityResponse struct {
	TaskID   string                `json:"task_id"`
	Priority string                `json:"priority"`
	Open     bool                  `json:"open"`
	Options  []priority.OptionView `json:"options"`
}

func toTaskResponse(task *model.Task) TaskResponse {
	response := TaskResponse{
		ID:            task.ID.String(),
		WorkspaceID:   task.WorkspaceID.String(),
		Title:         task.Title,
		Description:   task.Description,
		Priority:      string(task.Priority),
		PriorityLabel: priority.Label(task.Priority),
		CreatedBy:     task.CreatedBy.String(),
		CreatedAt:     task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     task.UpdatedAt.Format(time.RFC3339),
	}
	if task.AssignedTo != nil {
		assignedTo := task.AssignedTo.String()
		response.AssignedTo = &assignedTo
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format(time.RFC3339)
		response.DueDate = &dueDate
	}
	return response
}

// Create creates a task in a workspace the caller belongs to
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p, ok := parsePriority(c, req.Priority, model.PriorityNone)
	if !ok {
		return
	}

	workspaceID := uuid.MustParse(req.WorkspaceID)
	if _, ok := requireRole(c, h.members, workspaceID, userID, false); !ok {
		return
	}

	assignee, ok := h.resolveAssignee(c, workspaceID, req.AssignedTo)
	if !ok {
		return
	}

	task := &model.Task{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    p,
		AssignedTo:  assignee,
		CreatedBy:   userID,
		DueDate:     req.DueDate,
	}

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// GetByID returns a single task
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// GetByWorkspace lists a workspace's tasks, most urgent first
func (h *TaskHandler) GetByWorkspace(c *gin.Context) {
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

	tasks, err := h.tasks.ListByWorkspace(c.Request.Context(), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = toTaskResponse(&tasks[i])
	}
	c.JSON(http.StatusOK, response)
}

// Update replaces the task's editable fields
func (h *TaskHandler) Update(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p, ok := parsePriority(c, req.Priority, task.Priority)
	if !ok {
		return
	}
	assignee, ok := h.resolveAssignee(c, task.WorkspaceID, req.AssignedTo)
	if !ok {
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Priority = p
	task.AssignedTo = assignee
	task.DueDate = req.DueDate

	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		h.writeUpdateError(c, err, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete removes a task
func (h *TaskHandler) Delete(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), task.ID); err != nil {
		h.writeUpdateError(c, err, "Failed to delete task")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPriority renders the priority selector for a task
// @Summary  Priority options for a task
// @Tags     Tasks
// @Produce  json
// @Param    id  path  string  true  "Task ID"
// @Success  200  {object}  PriorityResponse
// @Security BearerAuth
// @Router   /tasks/{id}/priority [get]
func (h *TaskHandler) GetPriority(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	selector := priority.NewSelector(task, h.tasks, nil)
	selector.Open()

	c.JSON(http.StatusOK, PriorityResponse{
		TaskID:   task.ID.String(),
		Priority: string(task.Priority),
		Open:     selector.IsOpen(),
		Options:  selector.Options(),
	})
}

// UpdatePriority selects a new priority through the selector. A failed update
// answers with the message the selector surfaced.
// @Summary  Set a task's priority
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Param    id    path  string           true  "Task ID"
// @Param    body  body  PriorityRequest  true  "New priority"
// @Success  200  {object}  PriorityResponse
// @Failure  400,403,404,500  {object}  map[string]string
// @Security BearerAuth
// @Router   /tasks/{id}/priority [put]
func (h *TaskHandler) UpdatePriority(c *gin.Context) {
	var req PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	p := model.Priority(req.Priority)
	if !p.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	notifier := &lastMessage{}
	selector := priority.NewSelector(task, h.tasks, notifier)
	selector.Open()

	err := selector.Select(c.Request.Context(), p)
	if h.recorder != nil {
		h.recorder.RecordPriorityUpdate(string(p), err)
	}
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": notifier.message})
		return
	}

	refreshed, err := h.tasks.GetByID(c.Request.Context(), task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}
	selector.Refresh(refreshed)

	c.JSON(http.StatusOK, PriorityResponse{
		TaskID:   refreshed.ID.String(),
		Priority: string(refreshed.Priority),
		Open:     selector.IsOpen(),
		Options:  selector.Options(),
	})
}

// loadTask resolves the :id task and checks the caller is a member of its workspace.
func (h *TaskHandler) loadTask(c *gin.Context) (*model.Task, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	taskID, ok := paramUUID(c, "id", "Invalid task ID format")
	if !ok {
		return nil, false
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, false
	}

	if _, ok := requireRole(c, h.members, task.WorkspaceID, userID, false); !ok {
		return nil, false
	}
	return task, true
}

func (h *TaskHandler) resolveAssignee(c *gin.Context, workspaceID uuid.UUID, raw *string) (*uuid.UUID, bool) {
	if raw == nil {
		return nil, true
	}
	assignee := uuid.MustParse(*raw)

	role, err := h.members.GetRole(c.Request.Context(), workspaceID, assignee)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check assignee"})
		return nil, false
	}
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a workspace member"})
		return nil, false
	}
	return &assignee, true
}

func (h *TaskHandler) writeUpdateError(c *gin.Context, err error, msg string) {
	if errors.Is(err, repository.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func parsePriority(c *gin.Context, raw string, fallback model.Priority) (model.Priority, bool) {
	if raw == "" {
		return fallback, true
	}
	p := model.Priority(raw)
	if !p.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return "", false
	}
	return p, true
}

// lastMessage keeps the most recent selector notification for the response body.
type lastMessage struct {
	message string
}

func (n *lastMessage) Notify(message string) {
	n.message = message
}
