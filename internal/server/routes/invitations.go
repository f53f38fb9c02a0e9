package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workhub/internal/models"
)

type InvitationRoutes struct {
	server ServerInterface
}

func NewInvitationRoutes(server ServerInterface) *InvitationRoutes {
	return &InvitationRoutes{server: server}
}

func (ir *InvitationRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ir.server)

	r.POST("/workspaces/:id/invite", middleware.AuthMiddleware(), ir.inviteToWorkspaceHandler)
	r.POST("/invitations/:mailID/accept", middleware.AuthMiddleware(), ir.acceptInvitationHandler)
	r.POST("/invitations/:mailID/decline", middleware.AuthMiddleware(), ir.declineInvitationHandler)

	r.GET("/mail", middleware.AuthMiddleware(), ir.inboxHandler)
	r.POST("/mail/:mailID/read", middleware.AuthMiddleware(), ir.markMailHandler)
}

// inviteToWorkspaceHandler invites an account to a workspace by email
func (ir *InvitationRoutes) inviteToWorkspaceHandler(c *gin.Context) {
	account := currentAccount(c)
	workspaceID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Email string      `json:"email" binding:"required,email"`
		Role  models.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	mail, err := ir.server.GetServices().Invitations.Invite(c.Request.Context(), account.ID, workspaceID, req.Email, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Invitation sent successfully", "invitation": mail})
}

func (ir *InvitationRoutes) acceptInvitationHandler(c *gin.Context) {
	account := currentAccount(c)
	mailID, ok := pathID(c, "mailID")
	if !ok {
		return
	}

	m, err := ir.server.GetServices().Invitations.Accept(c.Request.Context(), account.ID, mailID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted successfully", "membership": m})
}

func (ir *InvitationRoutes) declineInvitationHandler(c *gin.Context) {
	account := currentAccount(c)
	mailID, ok := pathID(c, "mailID")
	if !ok {
		return
	}

	if err := ir.server.GetServices().Invitations.Decline(c.Request.Context(), account.ID, mailID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined successfully"})
}

func (ir *InvitationRoutes) inboxHandler(c *gin.Context) {
	account := currentAccount(c)

	mail, err := ir.server.GetServices().Invitations.Inbox(c.Request.Context(), account.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mail": mail})
}

func (ir *InvitationRoutes) markMailHandler(c *gin.Context) {
	account := currentAccount(c)
	mailID, ok := pathID(c, "mailID")
	if !ok {
		return
	}

	read := c.DefaultQuery("read", "true") != "false"
	if err := ir.server.GetServices().Invitations.MarkRead(c.Request.Context(), account.ID, mailID, read); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mail updated"})
}
