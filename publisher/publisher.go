// Package publisher writes generated examples to their destinations.
package publisher

import (
	"context"
	"errors"

	"gtkm_synth/gtkm"
)

// Publisher receives examples one at a time. Close flushes and releases
// whatever the destination holds.
type Publisher interface {
	Publish(ctx context.Context, ex gtkm.Example) error
	Close() error
}

// Multi fans every example out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ex gtkm.Example) error {
	for _, p := range m {
		if err := p.Publish(ctx, ex); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every publisher and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
