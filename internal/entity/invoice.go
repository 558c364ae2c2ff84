package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusUnpaid    InvoiceStatus = "unpaid"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceStatuses lists every valid status.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusUnpaid,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// Invoice is a billed document. Its monetary fields are computed once when the
// invoice is saved and are never derived again from the line items.
type Invoice struct {
	ID       string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID   string  `gorm:"type:varchar(36);not null;uniqueIndex:ux_invoices_team_number,priority:1" json:"team_id"`
	ClientID *string `gorm:"type:varchar(36);index" json:"client_id,omitempty"`

	InvoiceNumber       string          `gorm:"not null;uniqueIndex:ux_invoices_team_number,priority:2" json:"invoice_number"`
	Subtotal            decimal.Decimal `gorm:"type:numeric;not null" json:"subtotal"`
	FederalTaxAmount    decimal.Decimal `gorm:"column:tps_amount;type:numeric;not null" json:"tps_amount"`
	ProvincialTaxAmount decimal.Decimal `gorm:"column:tvq_amount;type:numeric;not null" json:"tvq_amount"`
	TotalAmount         decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"`
	ApplyFederalTax     bool            `gorm:"column:apply_tps;not null" json:"apply_tps"`
	ApplyProvincialTax  bool            `gorm:"column:apply_tvq;not null" json:"apply_tvq"`

	Status    InvoiceStatus `gorm:"type:text;not null;default:'draft'" json:"status"`
	IssueDate time.Time     `gorm:"not null" json:"issue_date"`
	DueDate   time.Time     `gorm:"not null" json:"due_date"`
	PaidDate  *time.Time    `json:"paid_date,omitempty"`

	Notes         string  `json:"notes"`
	PDFPath       *string `gorm:"column:pdf_path" json:"pdf_path,omitempty"`
	ClientVisible bool    `gorm:"not null" json:"client_visible"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client    *Client           `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"line_items,omitempty"`
}

func (Invoice) TableName() string { return CollectionInvoices.Table() }

func (i Invoice) RecordID() string     { return i.ID }
func (i Invoice) RecordTeamID() string { return i.TeamID }
func (Invoice) Collection() Collection { return CollectionInvoices }

// References reports whether the invoice is billed to the given client.
func (i Invoice) References(clientID string) bool {
	return i.ClientID != nil && *i.ClientID == clientID
}

// ClientName returns the joined client name, or empty when unresolved.
func (i Invoice) ClientName() string {
	if i.Client == nil {
		return ""
	}
	return i.Client.Name
}

// InvoiceLineItem is one billed line. Amount is quantity times rate.
type InvoiceLineItem struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID    string `gorm:"type:varchar(36);not null;index" json:"team_id"`
	InvoiceID string `gorm:"type:varchar(36);not null;index" json:"invoice_id"`

	Description string          `gorm:"not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:numeric;not null" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	SortOrder   int             `gorm:"not null;default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
}

func (InvoiceLineItem) TableName() string { return CollectionInvoiceLineItems.Table() }

func (l InvoiceLineItem) RecordID() string     { return l.ID }
func (l InvoiceLineItem) RecordTeamID() string { return l.TeamID }
func (InvoiceLineItem) Collection() Collection { return CollectionInvoiceLineItems }
