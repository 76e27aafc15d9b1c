// Package common holds types shared across domain packages.
package common

// Event is implemented by all domain events. Type returns the event
// discriminator used for bus routing and wire envelopes.
type Event interface {
	Type() string
}
