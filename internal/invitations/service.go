// Package invitations runs the pending -> accepted/declined onboarding flow.
package invitations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"workhub/internal/access"
	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/membership"
	"workhub/internal/models"
)

type Service struct {
	repo      models.Repository
	publisher events.Publisher
	courier   Courier
	now       func() time.Time
}

func NewService(repo models.Repository, publisher events.Publisher, courier Courier) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if courier == nil {
		courier = LogCourier{}
	}
	return &Service{repo: repo, publisher: publisher, courier: courier, now: time.Now}
}

// Invite sends a pending invitation to the account registered under email.
// Only the workspace owner may invite.
func (s *Service) Invite(ctx context.Context, actorID, workspaceID uuid.UUID, email string, role models.Role) (*models.Mail, error) {
	r, err := access.New(s.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireOwner(); err != nil {
		return nil, err
	}

	if role == "" {
		role = models.RoleMember
	}
	if role == models.RoleOwner {
		return nil, apperr.ErrCannotInviteAsOwner
	}
	if !role.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("unknown role %q", role))
	}

	recipient, err := s.repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.ErrRecipientNotFound
	}
	if err != nil {
		return nil, apperr.Internal("look up recipient", err)
	}
	if member, err := access.New(s.repo).IsMember(ctx, workspaceID, recipient.ID); err != nil {
		return nil, err
	} else if member {
		return nil, apperr.ErrAlreadyMember
	}
	pending, err := s.repo.HasPendingInvitation(ctx, workspaceID, recipient.ID)
	if err != nil {
		return nil, apperr.Internal("check pending invitations", err)
	}
	if pending {
		return nil, apperr.ErrInvitationPending
	}

	ws := r.Workspace
	mail := &models.Mail{
		ID:                 uuid.New(),
		Kind:               models.MailInvitation,
		WorkspaceID:        ws.ID,
		SenderAccountID:    actorID,
		RecipientAccountID: recipient.ID,
		Subject:            fmt.Sprintf("Invitation to join %s", ws.Name),
		Body:               fmt.Sprintf("You have been invited to join %s as %s.", ws.Name, role),
		ProposedRole:       role,
		InvitationStatus:   models.InvitationPending,
	}
	if err := s.repo.CreateMail(ctx, mail); err != nil {
		return nil, apperr.Internal("create invitation", err)
	}

	s.publisher.Publish(ctx, events.Event{
		Type:          events.ProjectInvite,
		ActorID:       actorID,
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
		MailID:        mail.ID,
		Detail:        string(role),
		TargetID:      recipient.ID,
		OccurredAt:    s.now(),
	})

	delivered := *mail
	go func() {
		if err := s.courier.Deliver(context.WithoutCancel(ctx), &delivered, recipient); err != nil {
			log.Printf("[invitations] delivery of %s failed: %v", delivered.ID, err)
		}
	}()
	return mail, nil
}

// Accept turns a pending invitation into a membership. The status change and
// the membership insert commit together; if the insert fails the invitation
// stays pending.
func (s *Service) Accept(ctx context.Context, actorID, mailID uuid.UUID) (*models.Membership, error) {
	var joined *models.Membership
	err := s.repo.Transaction(ctx, func(tx models.Repository) error {
		mail, err := invitationFor(ctx, tx, actorID, mailID)
		if err != nil {
			return err
		}
		ok, err := tx.DecideInvitation(ctx, mail.ID, models.InvitationAccepted)
		if err != nil {
			return apperr.Internal("accept invitation", err)
		}
		if !ok {
			return apperr.ErrAlreadyDecided
		}
		joined, err = membership.Add(ctx, tx, mail.WorkspaceID, actorID, mail.ProposedRole, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[invitations] invitation %s accepted by %s", mailID, actorID)
	return joined, nil
}

// Decline closes a pending invitation without touching membership.
func (s *Service) Decline(ctx context.Context, actorID, mailID uuid.UUID) error {
	mail, err := invitationFor(ctx, s.repo, actorID, mailID)
	if err != nil {
		return err
	}
	ok, err := s.repo.DecideInvitation(ctx, mail.ID, models.InvitationDeclined)
	if err != nil {
		return apperr.Internal("decline invitation", err)
	}
	if !ok {
		return apperr.ErrAlreadyDecided
	}
	return nil
}

// Inbox lists the caller's mail, newest first.
func (s *Service) Inbox(ctx context.Context, actorID uuid.UUID) ([]models.Mail, error) {
	list, err := s.repo.ListMailForRecipient(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal("list mail", err)
	}
	return list, nil
}

// MarkRead sets the read flag on one of the caller's mails.
func (s *Service) MarkRead(ctx context.Context, actorID, mailID uuid.UUID, read bool) error {
	mail, err := s.repo.GetMail(ctx, mailID)
	if errors.Is(err, models.ErrNotFound) {
		return apperr.NotFound("mail")
	}
	if err != nil {
		return apperr.Internal("look up mail", err)
	}
	if mail.RecipientAccountID != actorID {
		return apperr.Forbidden("mail belongs to another account")
	}
	if err := s.repo.SetMailRead(ctx, mailID, read); err != nil {
		return apperr.Internal("mark mail read", err)
	}
	return nil
}

func invitationFor(ctx context.Context, repo models.Repository, actorID, mailID uuid.UUID) (*models.Mail, error) {
	mail, err := repo.GetMail(ctx, mailID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("invitation")
	}
	if err != nil {
		return nil, apperr.Internal("look up invitation", err)
	}
	if mail.Kind != models.MailInvitation {
		return nil, apperr.NotFound("invitation")
	}
	if mail.RecipientAccountID != actorID {
		return nil, apperr.Forbidden("invitation is addressed to another account")
	}
	if mail.InvitationStatus != models.InvitationPending {
		return nil, apperr.ErrAlreadyDecided
	}
	return mail, nil
}
