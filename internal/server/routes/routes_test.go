package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub/internal/models"
	"workhub/internal/server/routes"
	"workhub/internal/testkit/memstore"
)

type testServer struct {
	services *routes.Services
}

func (s testServer) GetServices() *routes.Services {
	return s.services
}

type harness struct {
	t       *testing.T
	engine  *gin.Engine
	fixture *memstore.Fixture
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := memstore.NewFixture()
	services, _ := routes.NewServices(f.Store, f.Store, routes.Options{BaseURL: "http://app.test", Concurrency: 2})
	srv := testServer{services: services}

	r := gin.New()
	r.Use(sessions.Sessions("test-session", cookie.NewStore([]byte("test-secret"))))
	routes.NewAuthRoutes(srv).RegisterRoutes(r)
	routes.NewUserRoutes(srv).RegisterRoutes(r)
	routes.NewWorkspaceRoutes(srv).RegisterRoutes(r)
	routes.NewTaskRoutes(srv).RegisterRoutes(r)
	routes.NewIssueRoutes(srv).RegisterRoutes(r)
	routes.NewInvitationRoutes(srv).RegisterRoutes(r)
	routes.NewNotificationRoutes(srv).RegisterRoutes(r)

	return &harness{t: t, engine: r, fixture: f}
}

func (h *harness) do(method, path string, body any, session string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("Cookie", session)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

// login signs an account in and returns its session cookie.
func (h *harness) login(account models.Account) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/session", gin.H{"email": account.Email}, "")
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(h.t, cookies)
	return cookies[0].Name + "=" + cookies[0].Value
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/workspaces", nil, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterAndCurrentUser(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/accounts", gin.H{"email": "New.Person@Example.com", "display_name": "New Person"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := w.Result().Cookies()[0]

	w = h.do(http.MethodGet, "/user", nil, session.Name+"="+session.Value)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new.person@example.com", decode(t, w)["email"])

	w = h.do(http.MethodPost, "/accounts", gin.H{"email": "new.person@example.com", "display_name": "Again"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/auth/session", gin.H{"email": "ghost@example.com"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkspaceAccess(t *testing.T) {
	h := newHarness(t)
	f := h.fixture
	path := "/workspaces/" + f.Workspace.ID.String()

	w := h.do(http.MethodGet, path, nil, h.login(f.Member))
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, path, nil, h.login(f.Outsider))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/workspaces/not-a-uuid", nil, h.login(f.Member))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/workspaces/00000000-0000-0000-0000-000000000001", nil, h.login(f.Member))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateWorkspaceAndList(t *testing.T) {
	h := newHarness(t)
	session := h.login(h.fixture.Outsider)

	w := h.do(http.MethodPost, "/workspaces", gin.H{"name": "Side project"}, session)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/workspaces", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["workspaces"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Side project", list[0].(map[string]any)["name"])

	w = h.do(http.MethodPost, "/workspaces", gin.H{"description": "no name"}, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveOwnerIsConflict(t *testing.T) {
	h := newHarness(t)
	f := h.fixture

	w := h.do(http.MethodDelete, "/workspaces/"+f.Workspace.ID.String()+"/members/"+f.Owner.ID.String(), nil, h.login(f.Admin))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CANNOT_REMOVE_OWNER", decode(t, w)["reason"])
}

func TestTaskSubmission(t *testing.T) {
	h := newHarness(t)
	f := h.fixture
	admin := h.login(f.Admin)

	w := h.do(http.MethodPost, "/workspaces/"+f.Workspace.ID.String()+"/tasks",
		gin.H{"title": "Write copy", "assigned_to": []string{f.Member.ID.String()}}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode(t, w)["task"].(map[string]any)
	taskPath := "/tasks/" + task["id"].(string)

	w = h.do(http.MethodPost, taskPath+"/submit", gin.H{"message": "done"}, h.login(f.Outsider))
	assert.Equal(t, http.StatusForbidden, w.Code)

	other := f.AddMember(models.RoleMember)
	w = h.do(http.MethodPost, taskPath+"/submit", gin.H{"message": "done"}, h.login(other))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPost, taskPath+"/submit", nil, h.login(f.Member))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "done", body["task"].(map[string]any)["status"])
	submission := body["submission"].(map[string]any)
	assert.Equal(t, "submission", submission["kind"])
	assert.Equal(t, f.Member.ID.String(), submission["by_account_id"])
}

func TestInvitationFlow(t *testing.T) {
	h := newHarness(t)
	f := h.fixture
	invitee := h.login(f.Outsider)

	w := h.do(http.MethodPost, "/workspaces/"+f.Workspace.ID.String()+"/invite",
		gin.H{"email": f.Outsider.Email, "role": "admin"}, h.login(f.Admin))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPost, "/workspaces/"+f.Workspace.ID.String()+"/invite",
		gin.H{"email": f.Outsider.Email, "role": "owner"}, h.login(f.Owner))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/workspaces/"+f.Workspace.ID.String()+"/invite",
		gin.H{"email": f.Outsider.Email, "role": "admin"}, h.login(f.Owner))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	mailID := decode(t, w)["invitation"].(map[string]any)["id"].(string)

	w = h.do(http.MethodGet, "/notifications", nil, invitee)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode(t, w)["notifications"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, "ProjectInvite", notes[0].(map[string]any)["type"])
	assert.Equal(t, "http://app.test/mail/"+mailID, notes[0].(map[string]any)["action_url"])

	w = h.do(http.MethodPost, "/invitations/"+mailID+"/accept", nil, h.login(f.Member))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPost, "/invitations/"+mailID+"/accept", nil, invitee)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "admin", decode(t, w)["membership"].(map[string]any)["role"])

	w = h.do(http.MethodPost, "/invitations/"+mailID+"/decline", nil, invitee)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_DECIDED", decode(t, w)["reason"])

	w = h.do(http.MethodGet, "/workspaces/"+f.Workspace.ID.String(), nil, invitee)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIssueResolutionNotifiesOwner(t *testing.T) {
	h := newHarness(t)
	f := h.fixture
	task := f.AddTask("Landing page", f.Member.ID)
	member := h.login(f.Member)

	w := h.do(http.MethodPost, "/tasks/"+task.ID.String()+"/issues", gin.H{"title": "Broken link"}, member)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	issueID := decode(t, w)["issue"].(map[string]any)["id"].(string)

	w = h.do(http.MethodPatch, "/issues/"+issueID, gin.H{"title": "Hijacked"}, h.login(f.Admin))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPut, "/issues/"+issueID+"/status", gin.H{"status": "resolved"}, h.login(f.Admin))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/notifications/unread-count", nil, member)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["unread"])

	notes := h.fixture.Store.Notifications(f.Member.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "IssueResolved", notes[0].Type)

	w = h.do(http.MethodPost, "/notifications/"+notes[0].ID.String()+"/read", nil, h.login(f.Owner))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPost, "/notifications/"+notes[0].ID.String()+"/read", nil, member)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/notifications/unread-count", nil, member)
	assert.EqualValues(t, 0, decode(t, w)["unread"])

	w = h.do(http.MethodDelete, "/notifications/"+notes[0].ID.String(), nil, member)
	assert.Equal(t, http.StatusOK, w.Code)
}
