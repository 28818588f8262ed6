package dispatch

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

import (
	"context"

	"github.com/vmunix/webpress/internal/events"
)

// Publisher receives completion and failure events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}
