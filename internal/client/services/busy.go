package services

import (
	"sync"

	"github.com/dmitrijs2005/authdesk/internal/common"
)

// Busy tracks which operations are in flight. A view disables the control
// of an operation while Running reports true.
type Busy struct {
	mu      sync.Mutex
	running map[string]bool
}

func NewBusy() *Busy {
	return &Busy{running: make(map[string]bool)}
}

// Acquire marks op as running. It fails with common.ErrBusy when op is
// already running. The returned release must be called exactly once.
func (b *Busy) Acquire(op string) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running[op] {
		return nil, common.ErrBusy
	}
	b.running[op] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.running, op)
			b.mu.Unlock()
		})
	}, nil
}

func (b *Busy) Running(op string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running[op]
}
