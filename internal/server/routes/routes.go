package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workhub/internal/apperr"
	"workhub/internal/invitations"
	"workhub/internal/issues"
	"workhub/internal/membership"
	"workhub/internal/models"
	"workhub/internal/notify"
	"workhub/internal/tasks"
	"workhub/internal/workspaces"
)

type ServerInterface interface {
	GetServices() *Services
}

// Services is everything the handlers call into.
type Services struct {
	Accounts    models.AccountStore
	Workspaces  *workspaces.Service
	Members     *membership.Ledger
	Tasks       *tasks.Service
	Issues      *issues.Service
	Invitations *invitations.Service
	Inbox       *notify.Inbox
}

type Options struct {
	BaseURL     string
	Concurrency int
	Policy      issues.TransitionPolicy
	Courier     invitations.Courier
}

// NewServices wires the workflow services around one repository and one
// notification store. The returned dispatcher is shared with the deadline
// sweeper.
func NewServices(repo models.Repository, store notify.Store, opts Options) (*Services, *notify.Dispatcher) {
	dispatcher := notify.NewDispatcher(store, opts.BaseURL, opts.Concurrency)
	return &Services{
		Accounts:    repo,
		Workspaces:  workspaces.NewService(repo, dispatcher),
		Members:     membership.NewLedger(repo, dispatcher),
		Tasks:       tasks.NewService(repo, dispatcher),
		Issues:      issues.NewService(repo, dispatcher, opts.Policy),
		Invitations: invitations.NewService(repo, dispatcher, opts.Courier),
		Inbox:       notify.NewInbox(store),
	}, dispatcher
}

// respondError writes err with the status of its class.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := code.HTTPStatus()

	body := gin.H{"error": err.Error(), "code": code}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Reason != "" {
		body["reason"] = appErr.Reason
	}
	if status == http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "Internal server error"
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": apperr.CodeInvalidInput})
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": apperr.CodeInvalidInput})
		return uuid.Nil, false
	}
	return id, true
}

// currentAccount returns the account stored by AuthMiddleware.
func currentAccount(c *gin.Context) *models.Account {
	return c.MustGet("account").(*models.Account)
}
