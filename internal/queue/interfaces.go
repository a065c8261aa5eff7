package queue

import (
	"context"

	"notifyrelay/internal/model"
)

type Publisher interface {
	Publish(ctx context.Context, notification model.SystemNotification) error
}
