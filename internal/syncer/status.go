package syncer

import (
	"time"

	"github.com/zulandar/depot/internal/models"
	"github.com/zulandar/depot/internal/store"
)

// StateNever is reported when no full sync has ever been recorded.
const StateNever = "never"

// StatusReport is the overall freshness view: the terminal record of the
// last full sync plus aggregate catalog counts.
type StatusReport struct {
	LastFullSync *time.Time   `json:"last_full_sync"`
	State        string       `json:"sync_status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Stats        *store.Stats `json:"stats"`
}

// Status reads the last full-sync terminal record and the aggregate stats.
func (s *Service) Status() (*StatusReport, error) {
	report := &StatusReport{State: StateNever}

	record, err := s.store.ReadSyncStatus(models.EntityFullSync, nil)
	if err != nil {
		return nil, err
	}
	if record != nil {
		t := record.LastSync
		report.LastFullSync = &t
		report.State = record.Status
		report.ErrorMessage = record.ErrorMessage
	}

	stats, err := s.store.AggregateStats()
	if err != nil {
		return nil, err
	}
	report.Stats = stats
	return report, nil
}
