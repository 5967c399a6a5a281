// Package notify posts run summaries to Slack. All helpers are no-ops when
// the bot token is not configured so the engine works without Slack.
package notify

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/slack-go/slack"
)

// Notifier wraps an optional Slack client. A nil Notifier (or one built
// without a token) swallows every call.
type Notifier struct {
	api       *slack.Client
	channelID string
}

// New returns a Notifier, or nil when token or channel is empty.
func New(botToken, channelID string) *Notifier {
	if botToken == "" || channelID == "" {
		return nil
	}
	return &Notifier{api: slack.New(botToken), channelID: channelID}
}

// PostSummary sends a plain-text message to the configured channel.
// Failures are logged, never surfaced: notification is best-effort.
func (n *Notifier) PostSummary(text string) {
	if n == nil {
		return
	}
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Slack post error: %v", err)
	}
}

// PostFile uploads a generated report file with a short comment.
func (n *Notifier) PostFile(path, comment string) {
	if n == nil {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("Slack upload stat error: %v", err)
		return
	}
	_, err = n.api.UploadFileV2(slack.UploadFileV2Parameters{
		File:           path,
		Filename:       filepath.Base(path),
		FileSize:       int(info.Size()),
		Channel:        n.channelID,
		InitialComment: comment,
	})
	if err != nil {
		log.Printf("Slack upload error: %v", err)
	}
}

// PostScanSummary formats and posts a single-category scan outcome.
func (n *Notifier) PostScanSummary(category string, positive, targetPositive, negative, targetNegative, processed int, satisfied bool) {
	if n == nil {
		return
	}
	state := "quota satisfied"
	if !satisfied {
		state = "corpus exhausted"
	}
	n.PostSummary(fmt.Sprintf("Scan complete: %s: positive %d/%d, negative %d/%d, %d comments processed (%s)",
		category, positive, targetPositive, negative, targetNegative, processed, state))
}
