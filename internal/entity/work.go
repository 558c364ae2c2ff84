package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseFrequency is how often a recurring expense repeats.
type ExpenseFrequency string

const (
	FrequencyOnce      ExpenseFrequency = "once"
	FrequencyWeekly    ExpenseFrequency = "weekly"
	FrequencyBiweekly  ExpenseFrequency = "biweekly"
	FrequencyMonthly   ExpenseFrequency = "monthly"
	FrequencyQuarterly ExpenseFrequency = "quarterly"
	FrequencyYearly    ExpenseFrequency = "yearly"
)

// Expense is money spent by the team, optionally against a project.
type Expense struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID    string  `gorm:"type:varchar(36);not null;index" json:"team_id"`
	ProjectID *string `gorm:"type:varchar(36);index" json:"project_id,omitempty"`

	Name        string           `gorm:"not null" json:"name"`
	Amount      decimal.Decimal  `gorm:"type:numeric;not null" json:"amount"`
	Category    string           `json:"category"`
	Date        time.Time        `gorm:"not null" json:"date"`
	IsRecurring bool             `gorm:"not null;default:false" json:"is_recurring"`
	Frequency   ExpenseFrequency `gorm:"type:text;not null;default:'once'" json:"frequency"`
	Notes       string           `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Expense) TableName() string { return CollectionExpenses.Table() }

func (e Expense) RecordID() string     { return e.ID }
func (e Expense) RecordTeamID() string { return e.TeamID }
func (Expense) Collection() Collection { return CollectionExpenses }

// TaskStatus is a team-defined column for tasks.
type TaskStatus struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID      string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Name        string    `gorm:"not null" json:"name"`
	Color       string    `json:"color"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (TaskStatus) TableName() string { return CollectionTaskStatuses.Table() }

func (s TaskStatus) RecordID() string     { return s.ID }
func (s TaskStatus) RecordTeamID() string { return s.TeamID }
func (TaskStatus) Collection() Collection { return CollectionTaskStatuses }

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task is a to-do item, optionally attached to a project.
type Task struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID     string  `gorm:"type:varchar(36);not null;index" json:"team_id"`
	ProjectID  *string `gorm:"type:varchar(36);index" json:"project_id,omitempty"`
	StatusID   *string `gorm:"type:varchar(36);index" json:"status_id,omitempty"`
	AssignedTo *string `gorm:"type:varchar(36)" json:"assigned_to,omitempty"`

	Title           string       `gorm:"not null" json:"title"`
	Description     string       `json:"description"`
	Priority        TaskPriority `gorm:"type:text;not null;default:'medium'" json:"priority"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	IsClientVisible bool         `gorm:"not null;default:false" json:"is_client_visible"`

	CreatedBy *string   `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Status  *TaskStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
}

func (Task) TableName() string { return CollectionTasks.Table() }

func (t Task) RecordID() string     { return t.ID }
func (t Task) RecordTeamID() string { return t.TeamID }
func (Task) Collection() Collection { return CollectionTasks }
