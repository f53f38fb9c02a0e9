package models

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mail is an in-app message. Invitation mail carries the onboarding state
// machine: pending until the recipient accepts or declines, terminal after.
type Mail struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind               MailKind         `gorm:"column:kind;not null" json:"kind"`
	WorkspaceID        uuid.UUID        `gorm:"type:uuid;column:workspace_id;not null" json:"workspace_id"`
	SenderAccountID    uuid.UUID        `gorm:"type:uuid;column:sender_account_id;not null" json:"sender_account_id"`
	RecipientAccountID uuid.UUID        `gorm:"type:uuid;column:recipient_account_id;not null" json:"recipient_account_id"`
	Subject            string           `gorm:"column:subject;not null" json:"subject"`
	Body               string           `gorm:"column:body" json:"body"`
	ProposedRole       Role             `gorm:"column:proposed_role" json:"proposed_role"`
	InvitationStatus   InvitationStatus `gorm:"column:invitation_status" json:"invitation_status"`
	Read               bool             `gorm:"column:read;not null;default:false" json:"read"`
	Timestamps
}

// TableName specifies the table name for the Mail model
func (Mail) TableName() string {
	return "mails"
}

// IsPending checks if the invitation still awaits a decision
func (ml *Mail) IsPending() bool {
	return ml.Kind == MailInvitation && ml.InvitationStatus == InvitationPending
}

// MailManager provides ORM methods for Mail
type MailManager struct {
	db *gorm.DB
}

// NewMailManager creates a new MailManager instance
func NewMailManager(db *gorm.DB) *MailManager {
	return &MailManager{db: db}
}

// CreateMail creates a new mail
func (m *MailManager) CreateMail(ctx context.Context, mail *Mail) error {
	return translate(m.db.WithContext(ctx).Create(mail).Error)
}

// GetMail retrieves a mail by ID
func (m *MailManager) GetMail(ctx context.Context, id uuid.UUID) (*Mail, error) {
	var mail Mail
	if err := m.db.WithContext(ctx).First(&mail, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &mail, nil
}

// ListMailForRecipient returns an account's inbox, newest first
func (m *MailManager) ListMailForRecipient(ctx context.Context, accountID uuid.UUID) ([]Mail, error) {
	var mails []Mail
	err := m.db.WithContext(ctx).
		Where("recipient_account_id = ?", accountID).
		Order("created_at DESC").
		Find(&mails).Error
	return mails, translate(err)
}

// HasPendingInvitation checks for an undecided invitation to the same workspace
func (m *MailManager) HasPendingInvitation(ctx context.Context, workspaceID, recipientID uuid.UUID) (bool, error) {
	ok, err := Exists[Mail](m.db.WithContext(ctx),
		"workspace_id = ? AND recipient_account_id = ? AND kind = ? AND invitation_status = ?",
		workspaceID, recipientID, MailInvitation, InvitationPending)
	return ok, translate(err)
}

// DecideInvitation moves a pending invitation to status and marks it read.
// It reports false when the invitation was no longer pending.
func (m *MailManager) DecideInvitation(ctx context.Context, id uuid.UUID, status InvitationStatus) (bool, error) {
	result := m.db.WithContext(ctx).Model(&Mail{}).
		Where("id = ? AND kind = ? AND invitation_status = ?", id, MailInvitation, InvitationPending).
		Updates(map[string]interface{}{"invitation_status": status, "read": true})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// SetMailRead sets the read flag of a mail
func (m *MailManager) SetMailRead(ctx context.Context, id uuid.UUID, read bool) error {
	result := m.db.WithContext(ctx).Model(&Mail{}).Where("id = ?", id).Update("read", read)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
