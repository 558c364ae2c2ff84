package entity

import "time"

// Client is a customer of the team.
type Client struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID string `gorm:"type:varchar(36);not null;index" json:"team_id"`

	Name  string `gorm:"not null" json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	BillingName string `json:"billing_name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	OtherInfo   string `json:"other_info"`

	Notes                string `json:"notes"`
	ChargeTaxesByDefault bool   `gorm:"not null" json:"charge_taxes_by_default"`

	PortalEnabled bool    `gorm:"not null;default:false" json:"portal_enabled"`
	PortalCode    *string `json:"portal_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string { return CollectionClients.Table() }

func (c Client) RecordID() string     { return c.ID }
func (c Client) RecordTeamID() string { return c.TeamID }
func (Client) Collection() Collection { return CollectionClients }
