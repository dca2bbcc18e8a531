package enums

import "fmt"

// NotificationSeverity grades how loudly dashboards surface a notification.
type NotificationSeverity string

const (
	SeverityInfo     NotificationSeverity = "info"
	SeverityWarning  NotificationSeverity = "warning"
	SeverityCritical NotificationSeverity = "critical"
)

var validSeverities = []NotificationSeverity{SeverityInfo, SeverityWarning, SeverityCritical}

func (s NotificationSeverity) IsValid() bool {
	for _, candidate := range validSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseNotificationSeverity(value string) (NotificationSeverity, error) {
	for _, candidate := range validSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification severity %q", value)
}
