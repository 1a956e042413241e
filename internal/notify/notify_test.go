package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/syncer"
)

func cleanResult() *syncer.Result {
	return &syncer.Result{
		Groups:    syncer.Tally{Succeeded: 3},
		Projects:  syncer.Tally{Succeeded: 12},
		Pipelines: syncer.Tally{Succeeded: 40},
		Branches:  syncer.Tally{Succeeded: 25},
	}
}

func TestBuildDigest_CleanRun(t *testing.T) {
	d := BuildDigest(cleanResult())

	if strings.Contains(d.Title, "failures") {
		t.Errorf("clean run title mentions failures: %q", d.Title)
	}
	if d.Color != colorSuccess {
		t.Errorf("Color = %s, want success color", d.Color)
	}
	if !strings.Contains(d.Body, "80 items") {
		t.Errorf("Body = %q, want total of 80 items", d.Body)
	}
	if len(d.Fields) != 4 {
		t.Errorf("got %d fields, want one per stage", len(d.Fields))
	}
}

func TestBuildDigest_WithFailures(t *testing.T) {
	res := cleanResult()
	res.Projects.Failed = 2
	res.Projects.Errors = []string{"a", "b"}

	d := BuildDigest(res)
	if !strings.Contains(d.Title, "failures") {
		t.Errorf("title does not flag failures: %q", d.Title)
	}
	if d.Color != colorWarning {
		t.Errorf("Color = %s, want warning color", d.Color)
	}

	var projects string
	for _, f := range d.Fields {
		if f.Name == "Projects" {
			projects = f.Value
		}
	}
	if !strings.Contains(projects, "2 failed") {
		t.Errorf("Projects field = %q, want failure count", projects)
	}
}

// mockSlack records posted messages.
type mockSlack struct {
	channel string
	calls   int
	err     error
}

func (m *mockSlack) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channel = channelID
	m.calls++
	return "", "", m.err
}

func TestSlack_PostsToChannel(t *testing.T) {
	mock := &mockSlack{}
	s, err := NewSlack(SlackOpts{Channel: "C123", Client: mock})
	if err != nil {
		t.Fatalf("NewSlack: %v", err)
	}

	if err := s.SyncCompleted(context.Background(), cleanResult()); err != nil {
		t.Fatalf("SyncCompleted: %v", err)
	}
	if mock.calls != 1 || mock.channel != "C123" {
		t.Errorf("posted %d times to %q", mock.calls, mock.channel)
	}
}

func TestSlack_PostFailure(t *testing.T) {
	mock := &mockSlack{err: fmt.Errorf("channel_not_found")}
	s, _ := NewSlack(SlackOpts{Channel: "C123", Client: mock})

	if err := s.SyncCompleted(context.Background(), cleanResult()); err == nil {
		t.Fatal("post failure should surface")
	}
}

func TestNewSlack_Validation(t *testing.T) {
	if _, err := NewSlack(SlackOpts{Channel: "C123"}); err == nil {
		t.Error("missing token should fail")
	}
	if _, err := NewSlack(SlackOpts{BotToken: "xoxb-abc"}); err == nil {
		t.Error("missing channel should fail")
	}
}

// mockDiscord records sent embeds.
type mockDiscord struct {
	channel string
	embed   *discordgo.MessageEmbed
	err     error
}

func (m *mockDiscord) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channel = channelID
	m.embed = embed
	return nil, m.err
}

func TestDiscord_SendsEmbed(t *testing.T) {
	mock := &mockDiscord{}
	d, err := NewDiscord(DiscordOpts{Channel: "987", Session: mock})
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}

	if err := d.SyncCompleted(context.Background(), cleanResult()); err != nil {
		t.Fatalf("SyncCompleted: %v", err)
	}
	if mock.channel != "987" {
		t.Errorf("channel = %q, want 987", mock.channel)
	}
	if mock.embed == nil || len(mock.embed.Fields) != 4 {
		t.Errorf("embed = %+v, want four stage fields", mock.embed)
	}
	if mock.embed.Color != parseHexColor(colorSuccess) {
		t.Errorf("embed color = %d", mock.embed.Color)
	}
}

func TestParseHexColor(t *testing.T) {
	if got := parseHexColor("#36a64f"); got != 0x36a64f {
		t.Errorf("parseHexColor(#36a64f) = %#x", got)
	}
	if got := parseHexColor("daa038"); got != 0xdaa038 {
		t.Errorf("parseHexColor(daa038) = %#x", got)
	}
}

// countingNotifier counts deliveries and optionally fails.
type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) SyncCompleted(ctx context.Context, res *syncer.Result) error {
	n.calls++
	return n.err
}

func TestMulti_FansOutAndIsolatesFailures(t *testing.T) {
	bad := &countingNotifier{err: fmt.Errorf("down")}
	good := &countingNotifier{}

	m := NewMulti(bad, good, nil)
	if err := m.SyncCompleted(context.Background(), cleanResult()); err != nil {
		t.Fatalf("Multi.SyncCompleted: %v", err)
	}
	if bad.calls != 1 || good.calls != 1 {
		t.Errorf("deliveries = %d, %d; want 1, 1", bad.calls, good.calls)
	}
}

func TestFromConfig(t *testing.T) {
	m, err := FromConfig(config.NotifyConfig{})
	if err != nil {
		t.Fatalf("FromConfig empty: %v", err)
	}
	if m != nil {
		t.Errorf("no targets should yield nil, got %+v", m)
	}

	m, err = FromConfig(config.NotifyConfig{
		Slack: config.SlackConfig{BotToken: "xoxb-abc", Channel: "C123"},
	})
	if err != nil {
		t.Fatalf("FromConfig slack: %v", err)
	}
	if m == nil || m.Empty() {
		t.Error("slack target should yield a non-empty Multi")
	}
}
