// Package memstore is an in-memory models.Repository and notification store
// for service tests. Transactions run against a copy of the state that is
// swapped in only when the callback succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"workhub/internal/models"
)

type membershipKey struct {
	workspace uuid.UUID
	account   uuid.UUID
}

type state struct {
	seq           int64
	order         map[uuid.UUID]int64
	memberOrder   map[membershipKey]int64
	accounts      map[uuid.UUID]models.Account
	workspaces    map[uuid.UUID]models.Workspace
	memberships   map[membershipKey]models.Membership
	tasks         map[uuid.UUID]models.Task
	issues        map[uuid.UUID]models.Issue
	comments      map[uuid.UUID]models.Comment
	mails         map[uuid.UUID]models.Mail
	notifications map[uuid.UUID]models.Notification
}

func newState() *state {
	return &state{
		order:         map[uuid.UUID]int64{},
		memberOrder:   map[membershipKey]int64{},
		accounts:      map[uuid.UUID]models.Account{},
		workspaces:    map[uuid.UUID]models.Workspace{},
		memberships:   map[membershipKey]models.Membership{},
		tasks:         map[uuid.UUID]models.Task{},
		issues:        map[uuid.UUID]models.Issue{},
		comments:      map[uuid.UUID]models.Comment{},
		mails:         map[uuid.UUID]models.Mail{},
		notifications: map[uuid.UUID]models.Notification{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.order {
		c.order[k] = v
	}
	for k, v := range s.memberOrder {
		c.memberOrder[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.workspaces {
		c.workspaces[k] = v
	}
	for k, v := range s.memberships {
		c.memberships[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = copyTask(v)
	}
	for k, v := range s.issues {
		c.issues[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	for k, v := range s.mails {
		c.mails[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	return c
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

type shared struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
}

// Store implements models.Repository in memory.
type Store struct {
	shared *shared
	tx     *state
}

var _ models.Repository = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{shared: &shared{st: newState(), failures: map[string]error{}}}
}

// FailNext makes the next call of the named method return err.
func (s *Store) FailNext(method string, err error) {
	if s.tx == nil {
		s.shared.mu.Lock()
		defer s.shared.mu.Unlock()
	}
	s.shared.failures[method] = err
}

func (s *Store) begin(method string) (*state, func(), error) {
	if s.tx != nil {
		return s.tx, func() {}, s.takeFailure(method)
	}
	s.shared.mu.Lock()
	if err := s.takeFailure(method); err != nil {
		s.shared.mu.Unlock()
		return nil, func() {}, err
	}
	return s.shared.st, s.shared.mu.Unlock, nil
}

func (s *Store) takeFailure(method string) error {
	err, ok := s.shared.failures[method]
	if !ok {
		return nil
	}
	delete(s.shared.failures, method)
	return err
}

// Transaction runs fn against a copy of the state and keeps it only on success.
func (s *Store) Transaction(ctx context.Context, fn func(models.Repository) error) error {
	if s.tx != nil {
		return fn(s)
	}
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()

	working := s.shared.st.clone()
	if err := fn(&Store{shared: s.shared, tx: working}); err != nil {
		return err
	}
	s.shared.st = working
	return nil
}

func stamp(ts *models.Timestamps) {
	now := time.Now()
	if ts.CreatedAt.IsZero() {
		ts.CreatedAt = now
	}
	ts.UpdatedAt = now
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func copyTask(t models.Task) models.Task {
	t.AssignedTo = append([]uuid.UUID{}, t.AssignedTo...)
	t.SubmissionAttachments = append(models.StringList{}, t.SubmissionAttachments...)
	if t.SubmissionBy != nil {
		by := *t.SubmissionBy
		t.SubmissionBy = &by
	}
	if t.SubmissionKind != nil {
		kind := *t.SubmissionKind
		t.SubmissionKind = &kind
	}
	return t
}

func sortByOrder[T any](st *state, items []T, id func(T) uuid.UUID, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := st.order[id(items[i])], st.order[id(items[j])]
		if desc {
			return a > b
		}
		return a < b
	})
}

// Accounts

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	st, done, err := s.begin("CreateAccount")
	defer done()
	if err != nil {
		return err
	}
	ensureID(&account.ID)
	account.Email = models.NormalizeEmail(account.Email)
	for _, a := range st.accounts {
		if a.Email == account.Email {
			return models.ErrDuplicate
		}
	}
	stamp(&account.Timestamps)
	st.accounts[account.ID] = *account
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	st, done, err := s.begin("GetAccount")
	defer done()
	if err != nil {
		return nil, err
	}
	a, ok := st.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	st, done, err := s.begin("GetAccountByEmail")
	defer done()
	if err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)
	for _, a := range st.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, models.ErrNotFound
}

// Workspaces

func (s *Store) CreateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	st, done, err := s.begin("CreateWorkspace")
	defer done()
	if err != nil {
		return err
	}
	ensureID(&workspace.ID)
	if _, ok := st.workspaces[workspace.ID]; ok {
		return models.ErrDuplicate
	}
	if workspace.Status == "" {
		workspace.Status = models.WorkspaceActive
	}
	stamp(&workspace.Timestamps)
	st.workspaces[workspace.ID] = *workspace
	st.order[workspace.ID] = st.next()
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	st, done, err := s.begin("GetWorkspace")
	defer done()
	if err != nil {
		return nil, err
	}
	w, ok := st.workspaces[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &w, nil
}

func (s *Store) UpdateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	st, done, err := s.begin("UpdateWorkspace")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := st.workspaces[workspace.ID]; !ok {
		return models.ErrNotFound
	}
	stamp(&workspace.Timestamps)
	st.workspaces[workspace.ID] = *workspace
	return nil
}

func (s *Store) ListWorkspacesForAccount(ctx context.Context, accountID uuid.UUID) ([]models.Workspace, error) {
	st, done, err := s.begin("ListWorkspacesForAccount")
	defer done()
	if err != nil {
		return nil, err
	}
	var keys []membershipKey
	for k := range st.memberships {
		if k.account == accountID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return st.memberOrder[keys[i]] < st.memberOrder[keys[j]] })
	out := make([]models.Workspace, 0, len(keys))
	for _, k := range keys {
		if w, ok := st.workspaces[k.workspace]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

// Memberships

func (s *Store) CreateMembership(ctx context.Context, membership *models.Membership) error {
	st, done, err := s.begin("CreateMembership")
	defer done()
	if err != nil {
		return err
	}
	key := membershipKey{membership.WorkspaceID, membership.AccountID}
	if _, ok := st.memberships[key]; ok {
		return models.ErrDuplicate
	}
	if membership.Role == models.RoleOwner {
		for k, m := range st.memberships {
			if k.workspace == membership.WorkspaceID && m.Role == models.RoleOwner {
				return models.ErrDuplicate
			}
		}
	}
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = time.Now()
	}
	st.memberships[key] = *membership
	st.memberOrder[key] = st.next()
	return nil
}

func (s *Store) GetMembership(ctx context.Context, workspaceID, accountID uuid.UUID) (*models.Membership, error) {
	st, done, err := s.begin("GetMembership")
	defer done()
	if err != nil {
		return nil, err
	}
	m, ok := st.memberships[membershipKey{workspaceID, accountID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

func (s *Store) ListMemberships(ctx context.Context, workspaceID uuid.UUID) ([]models.Membership, error) {
	st, done, err := s.begin("ListMemberships")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []models.Membership
	for k, m := range st.memberships {
		if k.workspace == workspaceID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return st.memberOrder[membershipKey{workspaceID, out[i].AccountID}] <
			st.memberOrder[membershipKey{workspaceID, out[j].AccountID}]
	})
	return out, nil
}

func (s *Store) UpdateMembershipRole(ctx context.Context, workspaceID, accountID uuid.UUID, role models.Role) error {
	st, done, err := s.begin("UpdateMembershipRole")
	defer done()
	if err != nil {
		return err
	}
	key := membershipKey{workspaceID, accountID}
	m, ok := st.memberships[key]
	if !ok {
		return models.ErrNotFound
	}
	m.Role = role
	st.memberships[key] = m
	return nil
}

func (s *Store) DeleteMembership(ctx context.Context, workspaceID, accountID uuid.UUID) error {
	st, done, err := s.begin("DeleteMembership")
	defer done()
	if err != nil {
		return err
	}
	key := membershipKey{workspaceID, accountID}
	if _, ok := st.memberships[key]; !ok {
		return models.ErrNotFound
	}
	delete(st.memberships, key)
	delete(st.memberOrder, key)
	return nil
}

// Tasks

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	st, done, err := s.begin("CreateTask")
	defer done()
	if err != nil {
		return err
	}
	ensureID(&task.ID)
	if _, ok := st.tasks[task.ID]; ok {
		return models.ErrDuplicate
	}
	if task.AssignedTo == nil {
		task.AssignedTo = []uuid.UUID{}
	}
	stamp(&task.Timestamps)
	st.tasks[task.ID] = copyTask(*task)
	st.order[task.ID] = st.next()
	return nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	st, done, err := s.begin("GetTask")
	defer done()
	if err != nil {
		return nil, err
	}
	t, ok := st.tasks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	t = copyTask(t)
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	st, done, err := s.begin("UpdateTask")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := st.tasks[task.ID]; !ok {
		return models.ErrNotFound
	}
	stamp(&task.Timestamps)
	st.tasks[task.ID] = copyTask(*task)
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	st, done, err := s.begin("DeleteTask")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := st.tasks[id]; !ok {
		return models.ErrNotFound
	}
	delete(st.tasks, id)
	return nil
}

func (s *Store) ListTasks(ctx context.Context, workspaceID uuid.UUID) ([]models.Task, error) {
	st, done, err := s.begin("ListTasks")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range st.tasks {
		if t.WorkspaceID == workspaceID {
			out = append(out, copyTask(t))
		}
	}
	sortByOrder(st, out, func(t models.Task) uuid.UUID { return t.ID }, false)
	return out, nil
}

func (s *Store) ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	st, done, err := s.begin("ListTasksDueBetween")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range st.tasks {
		if t.DueDate == nil || t.Status == models.TaskDone || t.Status == models.TaskCancelled {
			continue
		}
		if !t.DueDate.Before(from) && t.DueDate.Before(to) {
			out = append(out, copyTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out, nil
}

func (s *Store) RemoveAssigneeFromWorkspace(ctx context.Context, workspaceID, accountID uuid.UUID) error {
	st, done, err := s.begin("RemoveAssigneeFromWorkspace")
	defer done()
	if err != nil {
		return err
	}
	for id, t := range st.tasks {
		if t.WorkspaceID != workspaceID {
			continue
		}
		kept := make([]uuid.UUID, 0, len(t.AssignedTo))
		for _, a := range t.AssignedTo {
			if a != accountID {
				kept = append(kept, a)
			}
		}
		t.AssignedTo = kept
		st.tasks[id] = t
	}
	return nil
}

// Issues

func (s *Store) CreateIssue(ctx context.Context, issue *models.Issue) error {
	st, done, err := s.begin("CreateIssue")
	defer done()
	if err != nil {
		return err
	}
	ensureID(&issue.ID)
	stamp(&issue.Timestamps)
	st.issues[issue.ID] = *issue
	st.order[issue.ID] = st.next()
	return nil
}

func (s *Store) GetIssue(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	st, done, err := s.begin("GetIssue")
	defer done()
	if err != nil {
		return nil, err
	}
	i, ok := st.issues[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &i, nil
}

func (s *Store) UpdateIssue(ctx context.Context, issue *models.Issue) error {
	st, done, err := s.begin("UpdateIssue")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := st.issues[issue.ID]; !ok {
		return models.ErrNotFound
	}
	stamp(&issue.Timestamps)
	st.issues[issue.ID] = *issue
	return nil
}

func (s *Store) DeleteIssue(ctx context.Context, id uuid.UUID) error {
	st, done, err := s.begin("DeleteIssue")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := st.issues[id]; !ok {
		return models.ErrNotFound
	}
	delete(st.issues, id)
	return nil
}

func (s *Store) ListIssues(ctx context.Context, taskID uuid.UUID) ([]models.Issue, error) {
	st, done, err := s.begin("ListIssues")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []models.Issue
	for _, i := range st.issues {
		if i.TaskID == taskID {
			out = append(out, i)
		}
	}
	sortByOrder(st, out, func(i models.Issue) uuid.UUID { return i.ID }, false)
	return out, nil
}

func (s *Store) DeleteTaskIssues(ctx context.Context, taskID uuid.UUID) error {
	st, done, err := s.begin("DeleteTaskIssues")
	defer done()
	if err != nil {
		return err
	}
	for id, i := range st.issues {
		if i.TaskID == taskID {
			delete(st.issues, id)
		}
	}
	return nil
}

// Comments

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	st, done, err := s.begin("CreateComment")
	defer done()
	if err != nil {
		return err
	}
	ensureID(&comment.ID)
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	c := *comment
	c.Attachments = append(models.StringList{}, comment.Attachments...)
	st.comments[comment.ID] = c
	st.order[comment.ID] = st.next()
	return nil
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	st, done, err := s.begin("GetComment")
	defer done()
	if err != nil {
		return nil, err
	}
	c, ok := st.comments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, taskID uuid.UUID) ([]models.Comment, error) {
	st, done, err := s.begin("ListComments")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []models.Comment
	for _, c := range st.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	sortByOrder(st, out, func(c models.Comment) uuid.UUID { return c.ID }, false)
	return out, nil
}

func (s *Store) DeleteTaskComments(ctx context.Context, taskID uuid.UUID) error {
	st, done, err := s.begin("DeleteTaskComments")
	defer done()
	if err != nil {
		return err
	}
	for id, c := range st.comments {
		if c.TaskID == taskID {
			delete(st.comments, id)
		}
	}
	return nil
}

// Mail

func (s *Store) CreateMail(ctx context.Context, mail *models.Mail) error {
	st, done, err := s.begin("CreateMail")
	defer done()
	if err != nil {
		return err
	}
	ensureID(&mail.ID)
	stamp(&mail.Timestamps)
	st.mails[mail.ID] = *mail
	st.order[mail.ID] = st.next()
	return nil
}

func (s *Store) GetMail(ctx context.Context, id uuid.UUID) (*models.Mail, error) {
	st, done, err := s.begin("GetMail")
	defer done()
	if err != nil {
		return nil, err
	}
	m, ok := st.mails[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

func (s *Store) ListMailForRecipient(ctx context.Context, accountID uuid.UUID) ([]models.Mail, error) {
	st, done, err := s.begin("ListMailForRecipient")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []models.Mail
	for _, m := range st.mails {
		if m.RecipientAccountID == accountID {
			out = append(out, m)
		}
	}
	sortByOrder(st, out, func(m models.Mail) uuid.UUID { return m.ID }, true)
	return out, nil
}

func (s *Store) HasPendingInvitation(ctx context.Context, workspaceID, recipientID uuid.UUID) (bool, error) {
	st, done, err := s.begin("HasPendingInvitation")
	defer done()
	if err != nil {
		return false, err
	}
	for _, m := range st.mails {
		if m.WorkspaceID == workspaceID && m.RecipientAccountID == recipientID && m.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DecideInvitation(ctx context.Context, id uuid.UUID, status models.InvitationStatus) (bool, error) {
	st, done, err := s.begin("DecideInvitation")
	defer done()
	if err != nil {
		return false, err
	}
	m, ok := st.mails[id]
	if !ok || !m.IsPending() {
		return false, nil
	}
	m.InvitationStatus = status
	m.Read = true
	m.UpdatedAt = time.Now()
	st.mails[id] = m
	return true, nil
}

func (s *Store) SetMailRead(ctx context.Context, id uuid.UUID, read bool) error {
	st, done, err := s.begin("SetMailRead")
	defer done()
	if err != nil {
		return err
	}
	m, ok := st.mails[id]
	if !ok {
		return models.ErrNotFound
	}
	m.Read = read
	st.mails[id] = m
	return nil
}

// MustAccount creates an account and panics on failure.
func (s *Store) MustAccount(email string) models.Account {
	account := models.Account{Email: email, DisplayName: email}
	if err := s.CreateAccount(context.Background(), &account); err != nil {
		panic(err)
	}
	return account
}
