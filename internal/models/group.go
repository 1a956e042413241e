package models

import "time"

// Group mirrors one GitLab group or subgroup. Root groups have a nil
// ParentID; subgroups point at their parent, forming a forest.
type Group struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	FullName    string    `json:"full_name"`
	Path        string    `json:"path"`
	FullPath    string    `gorm:"index" json:"full_path"`
	Description string    `gorm:"type:text" json:"description"`
	Visibility  string    `gorm:"size:16" json:"visibility"`
	AvatarURL   string    `json:"avatar_url"`
	WebURL      string    `json:"web_url"`
	ParentID    *int64    `gorm:"index" json:"parent_id"`
	LastSynced  time.Time `json:"last_synced"`
	Raw         string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	Parent   *Group  `gorm:"foreignKey:ParentID" json:"-"`
	Children []Group `gorm:"foreignKey:ParentID" json:"-"`
}
