package domain

import (
	"errors"
	"strings"

	"notifyrelay/internal/model"
)

// HistoryKey is the store key holding the whole persisted history.
const HistoryKey = "exampleNotifications"

const (
	ExampleTitle   = "N26"
	ExamplePackage = "com.n26.app"
	ExampleText    = "Your money beam of 8,80 to Anas Aboudeine has not been accepted."
)

const (
	ListenerAMQP = "amqp"
	ListenerPush = "push"
	ListenerMock = "mock"
)

var (
	ErrInvalidNotification = errors.New("invalid notification")
	ErrPushDisabled        = errors.New("push listener disabled")
)

// ExampleNotification is what the mock source emits when no native source exists.
func ExampleNotification() model.SystemNotification {
	return model.SystemNotification{
		Title:     ExampleTitle,
		Package:   ExamplePackage,
		Text:      ExampleText,
		TextLines: "",
	}
}

// ValidateSystemNotification checks notifications arriving over external
// transports. Title and package are required.
func ValidateSystemNotification(n model.SystemNotification) error {
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Package) == "" {
		return ErrInvalidNotification
	}
	return nil
}

func IsValidListener(value string) bool {
	switch value {
	case ListenerAMQP, ListenerPush, ListenerMock:
		return true
	default:
		return false
	}
}
