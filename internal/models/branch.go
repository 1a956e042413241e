package models

import "time"

// Branch mirrors one repository branch with its head-commit summary.
// A project cannot hold two branches with the same name; rows are replaced
// wholesale per project on every sync.
type Branch struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	ProjectID          int64      `gorm:"not null;uniqueIndex:idx_branch_project_name" json:"project_id"`
	Name               string     `gorm:"not null;size:255;uniqueIndex:idx_branch_project_name" json:"name"`
	Merged             bool       `json:"merged"`
	Protected          bool       `json:"protected"`
	Default            bool       `json:"default"`
	DevelopersCanPush  bool       `json:"developers_can_push"`
	DevelopersCanMerge bool       `json:"developers_can_merge"`
	CanPush            bool       `json:"can_push"`
	WebURL             string     `json:"web_url"`
	CommitID           string     `gorm:"size:64" json:"commit_id"`
	CommitShortID      string     `gorm:"size:16" json:"commit_short_id"`
	CommitTitle        string     `json:"commit_title"`
	CommitAuthorName   string     `json:"commit_author_name"`
	CommitAuthorEmail  string     `json:"commit_author_email"`
	CommitAuthoredAt   *time.Time `json:"commit_authored_at"`
	CommitterName      string     `json:"committer_name"`
	CommitterEmail     string     `json:"committer_email"`
	CommitCommittedAt  *time.Time `json:"commit_committed_at"`
	CommitMessage      string     `gorm:"type:text" json:"commit_message"`
	LastSynced         time.Time  `json:"last_synced"`
	Raw                string     `gorm:"type:text" json:"-"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}
