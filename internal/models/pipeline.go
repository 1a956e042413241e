package models

import "time"

// Pipeline mirrors one CI pipeline. Pipeline IDs are only unique within a
// project, so the primary key is composite. Rows are replaced wholesale per
// project on every sync.
type Pipeline struct {
	ProjectID  int64      `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	ID         int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Status     string     `gorm:"size:32;index" json:"status"`
	Ref        string     `gorm:"size:255" json:"ref"`
	SHA        string     `gorm:"size:64" json:"sha"`
	Tag        bool       `json:"tag"`
	Source     string     `gorm:"size:32" json:"source"`
	WebURL     string     `json:"web_url"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Duration   *int       `json:"duration"`
	LastSynced time.Time  `json:"last_synced"`
	Raw        string     `gorm:"type:text" json:"-"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}
