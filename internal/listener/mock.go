package listener

import (
	"context"

	"notifyrelay/internal/domain"
	"notifyrelay/internal/model"
)

// Mock stands in for a missing platform source. Each Listen call immediately
// delivers the example notification.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Listen(_ context.Context, onNotification func(model.SystemNotification), _ func(error)) error {
	onNotification(domain.ExampleNotification())
	return nil
}
