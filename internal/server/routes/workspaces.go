package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workhub/internal/models"
	"workhub/internal/workspaces"
)

type WorkspaceRoutes struct {
	server ServerInterface
}

func NewWorkspaceRoutes(server ServerInterface) *WorkspaceRoutes {
	return &WorkspaceRoutes{server: server}
}

func (wr *WorkspaceRoutes) RegisterRoutes(r *gin.Engine) {
	// Create middleware instance
	middleware := NewMiddleware(wr.server)

	r.GET("/workspaces", middleware.AuthMiddleware(), wr.getUserWorkspacesHandler)
	r.POST("/workspaces", middleware.AuthMiddleware(), wr.createWorkspaceHandler)
	r.GET("/workspaces/:id", middleware.AuthMiddleware(), wr.getWorkspaceHandler)
	r.PUT("/workspaces/:id", middleware.AuthMiddleware(), wr.updateWorkspaceHandler)

	// Membership management
	r.GET("/workspaces/:id/members", middleware.AuthMiddleware(), wr.getWorkspaceMembersHandler)
	r.POST("/workspaces/:id/members", middleware.AuthMiddleware(), wr.addMemberHandler)
	r.PUT("/workspaces/:id/members/:accountID/role", middleware.AuthMiddleware(), wr.updateMemberRoleHandler)
	r.DELETE("/workspaces/:id/members/:accountID", middleware.AuthMiddleware(), wr.removeMemberHandler)
}

// getUserWorkspacesHandler returns all workspaces for the authenticated account
func (wr *WorkspaceRoutes) getUserWorkspacesHandler(c *gin.Context) {
	account := currentAccount(c)

	list, err := wr.server.GetServices().Workspaces.ListForAccount(c.Request.Context(), account.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": list})
}

func (wr *WorkspaceRoutes) createWorkspaceHandler(c *gin.Context) {
	account := currentAccount(c)

	var req struct {
		Name        string     `json:"name" binding:"required,min=1,max=100"`
		Description string     `json:"description" binding:"max=500"`
		TargetDate  *time.Time `json:"target_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ws, err := wr.server.GetServices().Workspaces.Create(c.Request.Context(), account.ID, workspaces.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"workspace": ws})
}

// getWorkspaceHandler returns details for a specific workspace
func (wr *WorkspaceRoutes) getWorkspaceHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ws, err := wr.server.GetServices().Workspaces.Get(c.Request.Context(), account.ID, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

func (wr *WorkspaceRoutes) updateWorkspaceHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name        *string                 `json:"name" binding:"omitempty,min=1,max=100"`
		Description *string                 `json:"description" binding:"omitempty,max=500"`
		Status      *models.WorkspaceStatus `json:"status"`
		TargetDate  *time.Time              `json:"target_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ws, err := wr.server.GetServices().Workspaces.Update(c.Request.Context(), account.ID, workspaceID, workspaces.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		TargetDate:  req.TargetDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

func (wr *WorkspaceRoutes) getWorkspaceMembersHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := wr.server.GetServices().Members.GetMembers(c.Request.Context(), account.ID, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (wr *WorkspaceRoutes) addMemberHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		AccountID uuid.UUID   `json:"account_id" binding:"required"`
		Role      models.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m, err := wr.server.GetServices().Members.AddMember(c.Request.Context(), account.ID, workspaceID, req.AccountID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"membership": m})
}

func (wr *WorkspaceRoutes) updateMemberRoleHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "accountID")
	if !ok {
		return
	}

	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m, err := wr.server.GetServices().Members.UpdateRole(c.Request.Context(), account.ID, workspaceID, targetID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"membership": m})
}

// removeMemberHandler removes a member; members may remove themselves to leave
func (wr *WorkspaceRoutes) removeMemberHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "accountID")
	if !ok {
		return
	}

	if err := wr.server.GetServices().Members.RemoveMember(c.Request.Context(), account.ID, workspaceID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
