package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceCategory groups bookable services.
type ServiceCategory struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID      string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ServiceCategory) TableName() string { return CollectionServiceCategories.Table() }

func (c ServiceCategory) RecordID() string     { return c.ID }
func (c ServiceCategory) RecordTeamID() string { return c.TeamID }
func (ServiceCategory) Collection() Collection { return CollectionServiceCategories }

// Service is something clients can book.
type Service struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID     string  `gorm:"type:varchar(36);not null;index" json:"team_id"`
	CategoryID *string `gorm:"type:varchar(36);index" json:"category_id,omitempty"`

	Name            string          `gorm:"not null" json:"name"`
	Description     string          `json:"description"`
	DurationMinutes int             `gorm:"not null" json:"duration_minutes"`
	Price           decimal.Decimal `gorm:"type:numeric;not null" json:"price"`

	LeadTimeHours  int `gorm:"not null;default:0" json:"lead_time_hours"`
	BufferMinutes  int `gorm:"not null;default:0" json:"buffer_minutes"`
	MaxAdvanceDays int `gorm:"not null;default:0" json:"max_advance_days"`

	IsActive  bool `gorm:"not null" json:"is_active"`
	SortOrder int  `gorm:"not null;default:0" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category *ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Service) TableName() string { return CollectionServices.Table() }

func (s Service) RecordID() string     { return s.ID }
func (s Service) RecordTeamID() string { return s.TeamID }
func (Service) Collection() Collection { return CollectionServices }

// BookingStatus tracks an appointment.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

// Booking is an appointment for a service.
type Booking struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID     string  `gorm:"type:varchar(36);not null;index" json:"team_id"`
	ServiceID  string  `gorm:"type:varchar(36);not null;index" json:"service_id"`
	ClientID   *string `gorm:"type:varchar(36);index" json:"client_id,omitempty"`
	ProjectID  *string `gorm:"type:varchar(36);index" json:"project_id,omitempty"`
	AssignedTo *string `gorm:"type:varchar(36)" json:"assigned_to,omitempty"`

	Title     string        `gorm:"not null" json:"title"`
	StartTime time.Time     `gorm:"not null" json:"start_time"`
	EndTime   time.Time     `gorm:"not null" json:"end_time"`
	Status    BookingStatus `gorm:"type:text;not null;default:'pending'" json:"status"`

	GuestName  *string `json:"guest_name,omitempty"`
	GuestEmail *string `json:"guest_email,omitempty"`
	GuestPhone *string `json:"guest_phone,omitempty"`

	Notes         string `json:"notes"`
	InternalNotes string `json:"internal_notes"`

	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy        *string    `json:"confirmed_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Client  *Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Booking) TableName() string { return CollectionBookings.Table() }

func (b Booking) RecordID() string     { return b.ID }
func (b Booking) RecordTeamID() string { return b.TeamID }
func (Booking) Collection() Collection { return CollectionBookings }

// TeamAvailability is a weekly working window. Times are HH:mm.
type TeamAvailability struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID       string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	TeamMemberID *string   `gorm:"type:varchar(36)" json:"team_member_id,omitempty"`
	DayOfWeek    int       `gorm:"not null" json:"day_of_week"`
	StartTime    string    `gorm:"not null" json:"start_time"`
	EndTime      string    `gorm:"not null" json:"end_time"`
	IsAvailable  bool      `gorm:"not null" json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (TeamAvailability) TableName() string { return CollectionTeamAvailability.Table() }

func (a TeamAvailability) RecordID() string     { return a.ID }
func (a TeamAvailability) RecordTeamID() string { return a.TeamID }
func (TeamAvailability) Collection() Collection { return CollectionTeamAvailability }

// BlockedTimeSource tells where a blocked slot came from.
type BlockedTimeSource string

const (
	BlockedManual         BlockedTimeSource = "manual"
	BlockedGoogleCalendar BlockedTimeSource = "google_calendar"
	BlockedBooking        BlockedTimeSource = "booking"
)

// BlockedTime removes a slot from availability.
type BlockedTime struct {
	ID           string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID       string            `gorm:"type:varchar(36);not null;index" json:"team_id"`
	TeamMemberID *string           `gorm:"type:varchar(36)" json:"team_member_id,omitempty"`
	Title        string            `json:"title"`
	StartTime    time.Time         `gorm:"not null" json:"start_time"`
	EndTime      time.Time         `gorm:"not null" json:"end_time"`
	IsAllDay     bool              `gorm:"not null;default:false" json:"is_all_day"`
	Source       BlockedTimeSource `gorm:"type:text;not null;default:'manual'" json:"source"`
	ExternalID   *string           `json:"external_id,omitempty"`
	Notes        string            `json:"notes"`

	IsRecurring       bool       `gorm:"not null;default:false" json:"is_recurring"`
	RecurrenceType    *string    `json:"recurrence_type,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BlockedTime) TableName() string { return CollectionBlockedTimes.Table() }

func (b BlockedTime) RecordID() string     { return b.ID }
func (b BlockedTime) RecordTeamID() string { return b.TeamID }
func (BlockedTime) Collection() Collection { return CollectionBlockedTimes }
