package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Team is the tenant root. Every other record belongs to exactly one team.
type Team struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	Slug    string `gorm:"not null;index" json:"slug"`
	OwnerID string `gorm:"type:varchar(36)" json:"owner_id"`

	BillingName       string `json:"billing_name"`
	BillingAddress    string `json:"billing_address"`
	BillingCity       string `json:"billing_city"`
	BillingProvince   string `json:"billing_province"`
	BillingPostalCode string `json:"billing_postal_code"`
	BillingPhone      string `json:"billing_phone"`

	// Federal (TPS/GST) and provincial (TVQ/QST) registrations and rates.
	FederalTaxNumber    string          `gorm:"column:tps_number" json:"tps_number"`
	ProvincialTaxNumber string          `gorm:"column:tvq_number" json:"tvq_number"`
	FederalTaxRate      decimal.Decimal `gorm:"column:tps_rate;type:numeric" json:"tps_rate"`
	ProvincialTaxRate   decimal.Decimal `gorm:"column:tvq_rate;type:numeric" json:"tvq_rate"`

	GoogleDriveFolderID *string `json:"google_drive_folder_id,omitempty"`
	LogoURL             *string `json:"logo_url,omitempty"`
	PrimaryColor        string  `json:"primary_color"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Team) TableName() string { return CollectionTeams.Table() }

func (t Team) RecordID() string     { return t.ID }
func (t Team) RecordTeamID() string { return t.ID }
func (Team) Collection() Collection { return CollectionTeams }

// User is the profile row of an authenticated person.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string    `gorm:"not null" json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return CollectionUsers.Table() }

// TeamRole grants permissions inside a team.
type TeamRole string

const (
	RoleOwner  TeamRole = "owner"
	RoleAdmin  TeamRole = "admin"
	RoleMember TeamRole = "member"
	RoleViewer TeamRole = "viewer"
)

// InviteStatus tracks a membership invitation.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteExpired  InviteStatus = "expired"
)

// TeamMember links a user to a team with a role.
type TeamMember struct {
	ID     string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID string   `gorm:"type:varchar(36);not null;index" json:"team_id"`
	UserID *string  `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	Role   TeamRole `gorm:"type:text;not null" json:"role"`

	InvitedEmail *string      `json:"invited_email,omitempty"`
	InviteStatus InviteStatus `gorm:"type:text;not null;default:'pending'" json:"invite_status"`
	InvitedBy    *string      `json:"invited_by,omitempty"`
	InvitedAt    *time.Time   `json:"invited_at,omitempty"`
	AcceptedAt   *time.Time   `json:"accepted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

func (TeamMember) TableName() string { return CollectionTeamMembers.Table() }

func (m TeamMember) RecordID() string     { return m.ID }
func (m TeamMember) RecordTeamID() string { return m.TeamID }
func (TeamMember) Collection() Collection { return CollectionTeamMembers }
