package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserRoutes struct {
	server ServerInterface
}

func NewUserRoutes(server ServerInterface) *UserRoutes {
	return &UserRoutes{server: server}
}

func (ur *UserRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ur.server)

	r.GET("/user", middleware.AuthMiddleware(), ur.userHandler)
}

func (ur *UserRoutes) userHandler(c *gin.Context) {
	account := currentAccount(c)

	c.JSON(http.StatusOK, gin.H{
		"account_id":    account.ID,
		"email":         account.Email,
		"display_name":  account.DisplayName,
		"settings":      account.Settings,
		"authenticated": true,
	})
}
