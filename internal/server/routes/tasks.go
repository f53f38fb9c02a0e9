package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workhub/internal/models"
	"workhub/internal/tasks"
)

type TaskRoutes struct {
	server ServerInterface
}

func NewTaskRoutes(server ServerInterface) *TaskRoutes {
	return &TaskRoutes{server: server}
}

func (tr *TaskRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(tr.server)

	r.GET("/workspaces/:id/tasks", middleware.AuthMiddleware(), tr.listTasksHandler)
	r.POST("/workspaces/:id/tasks", middleware.AuthMiddleware(), tr.createTaskHandler)

	r.GET("/tasks/:taskID", middleware.AuthMiddleware(), tr.getTaskHandler)
	r.PATCH("/tasks/:taskID", middleware.AuthMiddleware(), tr.updateTaskHandler)
	r.DELETE("/tasks/:taskID", middleware.AuthMiddleware(), tr.deleteTaskHandler)
	r.POST("/tasks/:taskID/submit", middleware.AuthMiddleware(), tr.submitTaskHandler)
	r.POST("/tasks/:taskID/reject", middleware.AuthMiddleware(), tr.rejectTaskHandler)
	r.POST("/tasks/:taskID/assignees", middleware.AuthMiddleware(), tr.assignHandler)
	r.DELETE("/tasks/:taskID/assignees/:accountID", middleware.AuthMiddleware(), tr.unassignHandler)

	r.GET("/tasks/:taskID/comments", middleware.AuthMiddleware(), tr.listCommentsHandler)
	r.POST("/tasks/:taskID/comments", middleware.AuthMiddleware(), tr.addCommentHandler)
}

// taskBody renders a task with its submission record.
func taskBody(task *models.Task) gin.H {
	return gin.H{"task": task, "submission": task.Submission()}
}

func (tr *TaskRoutes) listTasksHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	list, err := tr.server.GetServices().Tasks.ListForWorkspace(c.Request.Context(), account.ID, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

func (tr *TaskRoutes) createTaskHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title       string              `json:"title" binding:"required,min=1,max=200"`
		Description string              `json:"description"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"due_date"`
		AssignedTo  []uuid.UUID         `json:"assigned_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := tr.server.GetServices().Tasks.Create(c.Request.Context(), account.ID, workspaceID, tasks.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, taskBody(task))
}

func (tr *TaskRoutes) getTaskHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	task, err := tr.server.GetServices().Tasks.Get(c.Request.Context(), account.ID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskBody(task))
}

func (tr *TaskRoutes) updateTaskHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	var req struct {
		Title        *string              `json:"title" binding:"omitempty,min=1,max=200"`
		Description  *string              `json:"description"`
		Status       *models.TaskStatus   `json:"status"`
		Priority     *models.TaskPriority `json:"priority"`
		DueDate      *time.Time           `json:"due_date"`
		ClearDueDate bool                 `json:"clear_due_date"`
		AssignedTo   *[]uuid.UUID         `json:"assigned_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := tr.server.GetServices().Tasks.Update(c.Request.Context(), account.ID, taskID, tasks.UpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
		AssignedTo:   req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskBody(task))
}

func (tr *TaskRoutes) deleteTaskHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	if err := tr.server.GetServices().Tasks.Delete(c.Request.Context(), account.ID, taskID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

type submissionRequest struct {
	Message     string   `json:"message"`
	Attachments []string `json:"attachments"`
}

func (tr *TaskRoutes) submitTaskHandler(c *gin.Context) {
	tr.decide(c, tr.server.GetServices().Tasks.Submit)
}

func (tr *TaskRoutes) rejectTaskHandler(c *gin.Context) {
	tr.decide(c, tr.server.GetServices().Tasks.Reject)
}

type decision func(ctx context.Context, actorID, taskID uuid.UUID, in tasks.SubmitInput) (*models.Task, error)

func (tr *TaskRoutes) decide(c *gin.Context, fn decision) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	// the body is optional
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	task, err := fn(c.Request.Context(), account.ID, taskID, tasks.SubmitInput{
		Message:     req.Message,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskBody(task))
}

func (tr *TaskRoutes) assignHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	var req struct {
		AccountID uuid.UUID `json:"account_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := tr.server.GetServices().Tasks.Assign(c.Request.Context(), account.ID, taskID, req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskBody(task))
}

func (tr *TaskRoutes) unassignHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "accountID")
	if !ok {
		return
	}

	task, err := tr.server.GetServices().Tasks.Unassign(c.Request.Context(), account.ID, taskID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskBody(task))
}

func (tr *TaskRoutes) listCommentsHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	comments, err := tr.server.GetServices().Tasks.ListComments(c.Request.Context(), account.ID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (tr *TaskRoutes) addCommentHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	var req struct {
		Content     string   `json:"content" binding:"required"`
		Attachments []string `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := tr.server.GetServices().Tasks.AddComment(c.Request.Context(), account.ID, taskID, req.Content, req.Attachments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
