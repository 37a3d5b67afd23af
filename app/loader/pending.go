package loader

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Pending is the result of one Load call. It resolves exactly once, after
// the display change of a successful load is visible to readers.
type Pending struct {
	ID    string
	Index int

	done chan struct{}
	once sync.Once
	err  error
}

func newPending(index int) *Pending {
	return &Pending{
		ID:    uuid.NewString(),
		Index: index,
		done:  make(chan struct{}),
	}
}

// Done is closed when the load has finished, successfully or not.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the load error, or nil while the load is still in flight.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the load resolves or ctx ends. Giving up on the wait
// does not cancel the load.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pending) resolve(err error) bool {
	resolved := false
	p.once.Do(func() {
		p.err = err
		close(p.done)
		resolved = true
	})
	return resolved
}
