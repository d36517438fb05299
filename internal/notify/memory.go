package notify

import (
	"context"
	"sync"

	"github.com/dealradar/dealradar/internal/domain"
)

// MemoryDispatcher records notifications instead of delivering them. Used
// by tests and by dev mode when no NATS server is configured.
type MemoryDispatcher struct {
	mu   sync.Mutex
	sent []domain.MatchNotification
	err  error
}

func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{}
}

// SetError makes every subsequent dispatch fail with err. Pass nil to
// restore normal behavior.
func (d *MemoryDispatcher) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *MemoryDispatcher) DispatchMatches(_ context.Context, n domain.MatchNotification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

// Sent returns a copy of every notification dispatched so far.
func (d *MemoryDispatcher) Sent() []domain.MatchNotification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.MatchNotification, len(d.sent))
	copy(out, d.sent)
	return out
}

// Reset clears the recorded notifications.
func (d *MemoryDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = nil
}
