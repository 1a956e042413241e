package syncer

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule runs a full sync on a standard 5-field cron expression until ctx
// is cancelled. Failures of individual runs are logged, never fatal.
func (s *Service) Schedule(ctx context.Context, expr string) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		s.logf("syncer: scheduled full sync starting")
		if _, err := s.FullSync(ctx); err != nil {
			s.logf("syncer: scheduled full sync: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("syncer: schedule %q: %w", expr, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}
