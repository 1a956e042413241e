package models

import "time"

// Project mirrors one GitLab project. GroupID is nil for projects that
// belong to no mirrored group (e.g. personal namespaces).
type Project struct {
	ID                int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name              string    `gorm:"not null" json:"name"`
	NameWithNamespace string    `json:"name_with_namespace"`
	Path              string    `json:"path"`
	PathWithNamespace string    `gorm:"index" json:"path_with_namespace"`
	Description       string    `gorm:"type:text" json:"description"`
	DefaultBranch     string    `gorm:"size:128" json:"default_branch"`
	Visibility        string    `gorm:"size:16" json:"visibility"`
	AvatarURL         string    `json:"avatar_url"`
	WebURL            string    `json:"web_url"`
	HTTPURLToRepo     string    `json:"http_url_to_repo"`
	SSHURLToRepo      string    `json:"ssh_url_to_repo"`
	GroupID           *int64    `gorm:"index" json:"group_id"`
	LastSynced        time.Time `json:"last_synced"`
	Raw               string    `gorm:"type:text" json:"-"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`

	Group *Group `gorm:"foreignKey:GroupID" json:"-"`
}
