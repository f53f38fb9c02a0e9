package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workhub/internal/issues"
	"workhub/internal/models"
)

type IssueRoutes struct {
	server ServerInterface
}

func NewIssueRoutes(server ServerInterface) *IssueRoutes {
	return &IssueRoutes{server: server}
}

func (ir *IssueRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ir.server)

	r.GET("/tasks/:taskID/issues", middleware.AuthMiddleware(), ir.listIssuesHandler)
	r.POST("/tasks/:taskID/issues", middleware.AuthMiddleware(), ir.createIssueHandler)
	r.GET("/issues/:issueID", middleware.AuthMiddleware(), ir.getIssueHandler)
	r.PATCH("/issues/:issueID", middleware.AuthMiddleware(), ir.updateIssueHandler)
	r.PUT("/issues/:issueID/status", middleware.AuthMiddleware(), ir.changeStatusHandler)
	r.DELETE("/issues/:issueID", middleware.AuthMiddleware(), ir.deleteIssueHandler)
}

func (ir *IssueRoutes) listIssuesHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	list, err := ir.server.GetServices().Issues.ListForTask(c.Request.Context(), account.ID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": list})
}

func (ir *IssueRoutes) createIssueHandler(c *gin.Context) {
	account := currentAccount(c)
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required,min=1,max=200"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	issue, err := ir.server.GetServices().Issues.Create(c.Request.Context(), account.ID, taskID, issues.CreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"issue": issue})
}

func (ir *IssueRoutes) getIssueHandler(c *gin.Context) {
	account := currentAccount(c)
	issueID, ok := pathID(c, "issueID")
	if !ok {
		return
	}

	issue, err := ir.server.GetServices().Issues.Get(c.Request.Context(), account.ID, issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// updateIssueHandler edits title and description; only the issue owner may
func (ir *IssueRoutes) updateIssueHandler(c *gin.Context) {
	account := currentAccount(c)
	issueID, ok := pathID(c, "issueID")
	if !ok {
		return
	}

	var req struct {
		Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	issue, err := ir.server.GetServices().Issues.Update(c.Request.Context(), account.ID, issueID, issues.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

func (ir *IssueRoutes) changeStatusHandler(c *gin.Context) {
	account := currentAccount(c)
	issueID, ok := pathID(c, "issueID")
	if !ok {
		return
	}

	var req struct {
		Status models.IssueStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	issue, err := ir.server.GetServices().Issues.ChangeStatus(c.Request.Context(), account.ID, issueID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

func (ir *IssueRoutes) deleteIssueHandler(c *gin.Context) {
	account := currentAccount(c)
	issueID, ok := pathID(c, "issueID")
	if !ok {
		return
	}

	if err := ir.server.GetServices().Issues.Delete(c.Request.Context(), account.ID, issueID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}
