package enums

import "fmt"

// JobStatus tracks a job through pending -> running -> completed|failed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobType names a registered background handler.
type JobType string

const (
	JobTypeMenuSync          JobType = "menu_sync"
	JobTypeInventorySync     JobType = "inventory_sync"
	JobTypeOutboundMessaging JobType = "outbound_messaging"
)

func (t JobType) String() string {
	return string(t)
}

// MessageChannel is an outbound delivery channel for outbound_messaging jobs.
type MessageChannel string

const (
	ChannelSMS   MessageChannel = "sms"
	ChannelEmail MessageChannel = "email"
	ChannelVoice MessageChannel = "voice"
)

var validMessageChannels = []MessageChannel{ChannelSMS, ChannelEmail, ChannelVoice}

func ParseMessageChannel(value string) (MessageChannel, error) {
	for _, candidate := range validMessageChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message channel %q", value)
}
