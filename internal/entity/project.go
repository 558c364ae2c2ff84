package entity

import "time"

// ProjectStatus is a team-defined workflow column for projects.
type ProjectStatus struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID    string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `json:"color"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectStatus) TableName() string { return CollectionProjectStatuses.Table() }

func (s ProjectStatus) RecordID() string     { return s.ID }
func (s ProjectStatus) RecordTeamID() string { return s.TeamID }
func (ProjectStatus) Collection() Collection { return CollectionProjectStatuses }

// ProjectType categorises projects (video, photo, ...).
type ProjectType struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID    string    `gorm:"type:varchar(36);not null;index" json:"team_id"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `json:"color"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectType) TableName() string { return CollectionProjectTypes.Table() }

func (t ProjectType) RecordID() string     { return t.ID }
func (t ProjectType) RecordTeamID() string { return t.TeamID }
func (ProjectType) Collection() Collection { return CollectionProjectTypes }

// Project is a unit of client work. Archiving keeps the row.
type Project struct {
	ID            string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TeamID        string  `gorm:"type:varchar(36);not null;index" json:"team_id"`
	ClientID      *string `gorm:"type:varchar(36);index" json:"client_id,omitempty"`
	StatusID      *string `gorm:"type:varchar(36);index" json:"status_id,omitempty"`
	ProjectTypeID *string `gorm:"type:varchar(36);index" json:"project_type_id,omitempty"`

	Name     string     `gorm:"not null" json:"name"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Notes    string     `json:"notes"`

	IsArchived bool       `gorm:"not null;default:false" json:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	GoogleDriveFolderID *string `json:"google_drive_folder_id,omitempty"`
	ClientVisible       bool    `gorm:"not null;default:false" json:"client_visible"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client      *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Status      *ProjectStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	ProjectType *ProjectType   `gorm:"foreignKey:ProjectTypeID" json:"project_type,omitempty"`
}

func (Project) TableName() string { return CollectionProjects.Table() }

func (p Project) RecordID() string     { return p.ID }
func (p Project) RecordTeamID() string { return p.TeamID }
func (Project) Collection() Collection { return CollectionProjects }

// References reports whether the project points at the given client.
func (p Project) References(clientID string) bool {
	return p.ClientID != nil && *p.ClientID == clientID
}
