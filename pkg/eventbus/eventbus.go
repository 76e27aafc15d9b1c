// Package eventbus defines the contract for publishing and subscribing
// to domain events.
package eventbus

import (
	"context"

	"github.com/sellerhub/payouts/pkg/domain/common"
)

// HandlerFunc processes one event.
type HandlerFunc func(ctx context.Context, event common.Event) error

// UnsubscribeFunc removes a previously registered handler. Safe to call
// more than once.
type UnsubscribeFunc func()

// Bus routes events by their Type discriminator. Register returns an
// unsubscribe hook so observers with a lifecycle (the realtime
// reconciler) can detach cleanly.
type Bus interface {
	Register(eventType string, handler HandlerFunc) UnsubscribeFunc
	Emit(ctx context.Context, event common.Event) error
}
