package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"workhub/internal/models"
)

// AuthRoutes manages the session cookie. Identity proofing happens in
// front of this service; these handlers only bind an account to the session.
type AuthRoutes struct {
	server ServerInterface
}

func NewAuthRoutes(server ServerInterface) *AuthRoutes {
	return &AuthRoutes{server: server}
}

func (ar *AuthRoutes) RegisterRoutes(r *gin.Engine) {
	r.POST("/accounts", ar.registerHandler)
	r.POST("/auth/session", ar.sessionHandler)
	r.GET("/logout", ar.logoutHandler)
}

// registerHandler creates an account and signs it in
func (ar *AuthRoutes) registerHandler(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account := &models.Account{Email: req.Email, DisplayName: strings.TrimSpace(req.DisplayName)}
	err := ar.server.GetServices().Accounts.CreateAccount(c.Request.Context(), account)
	if errors.Is(err, models.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with that email already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	if err := ar.startSession(c, account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// sessionHandler signs in an existing account by email
func (ar *AuthRoutes) sessionHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := ar.server.GetServices().Accounts.GetAccountByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown account"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	if err := ar.startSession(c, account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

func (ar *AuthRoutes) logoutHandler(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (ar *AuthRoutes) startSession(c *gin.Context, account *models.Account) error {
	session := sessions.Default(c)
	session.Set(sessionAccountKey, account.ID.String())
	session.Set("email", account.Email)
	return session.Save()
}
