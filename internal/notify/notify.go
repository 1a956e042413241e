// Package notify delivers sync-completion digests to chat platforms.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/syncer"
)

// Digest is a platform-neutral summary of a finished full sync.
type Digest struct {
	Title  string
	Body   string
	Color  string // sidebar color hint, e.g. "#36a64f"
	Fields []Field
}

// Field is a key-value pair displayed in a digest.
type Field struct {
	Name  string
	Value string
}

const (
	colorSuccess = "#36a64f"
	colorWarning = "#daa038"
)

// BuildDigest summarizes a sync result for chat delivery.
func BuildDigest(res *syncer.Result) Digest {
	failed := res.Groups.Failed + res.Projects.Failed + res.Pipelines.Failed + res.Branches.Failed
	synced := res.Groups.Succeeded + res.Projects.Succeeded + res.Pipelines.Succeeded + res.Branches.Succeeded

	d := Digest{
		Title: "Catalog sync completed",
		Body:  fmt.Sprintf("%d items mirrored", synced),
		Color: colorSuccess,
		Fields: []Field{
			{Name: "Groups", Value: tallyLine(res.Groups)},
			{Name: "Projects", Value: tallyLine(res.Projects)},
			{Name: "Pipelines", Value: tallyLine(res.Pipelines)},
			{Name: "Branches", Value: tallyLine(res.Branches)},
		},
	}
	if failed > 0 {
		d.Title = "Catalog sync completed with failures"
		d.Body = fmt.Sprintf("%d items mirrored, %d failures", synced, failed)
		d.Color = colorWarning
	}
	return d
}

func tallyLine(t syncer.Tally) string {
	if t.Failed == 0 {
		return fmt.Sprintf("%d synced", t.Succeeded)
	}
	return fmt.Sprintf("%d synced, %d failed", t.Succeeded, t.Failed)
}

// Multi fans a sync result out to several notifiers. One target's failure
// never blocks the others.
type Multi struct {
	targets []syncer.Notifier
}

// NewMulti returns a Multi over the given targets. Nil targets are skipped.
func NewMulti(targets ...syncer.Notifier) *Multi {
	m := &Multi{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

// Empty reports whether the Multi has no targets.
func (m *Multi) Empty() bool { return len(m.targets) == 0 }

// SyncCompleted delivers the result to every target, logging failures.
func (m *Multi) SyncCompleted(ctx context.Context, res *syncer.Result) error {
	for _, t := range m.targets {
		if err := t.SyncCompleted(ctx, res); err != nil {
			log.Printf("notify: %v", err)
		}
	}
	return nil
}

// FromConfig builds the notifiers named in the config. Returns nil when no
// target is configured.
func FromConfig(cfg config.NotifyConfig) (*Multi, error) {
	var targets []syncer.Notifier

	if cfg.Slack.BotToken != "" {
		s, err := NewSlack(SlackOpts{BotToken: cfg.Slack.BotToken, Channel: cfg.Slack.Channel})
		if err != nil {
			return nil, err
		}
		targets = append(targets, s)
	}
	if cfg.Discord.BotToken != "" {
		d, err := NewDiscord(DiscordOpts{BotToken: cfg.Discord.BotToken, Channel: cfg.Discord.Channel})
		if err != nil {
			return nil, err
		}
		targets = append(targets, d)
	}

	if len(targets) == 0 {
		return nil, nil
	}
	return NewMulti(targets...), nil
}
