package infrastructure

import (
	"context"
	"sync"

	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// TransactionalPublisher stashes events published during a unit of work
// and releases them to the main bus only after the transaction commits.
type TransactionalPublisher struct {
	bus     *Bus
	mu      sync.Mutex
	pending []events.Event
}

// NewTransactionalPublisher creates a publisher bound to the given bus.
func NewTransactionalPublisher(bus *Bus) interfaces.TransactionalEventPublisher {
	return &TransactionalPublisher{bus: bus}
}

// Publish buffers an event until Flush or Discard.
func (p *TransactionalPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

// Flush emits all pending events to the main bus. Called after a
// successful commit.
func (p *TransactionalPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	// Events outlive the transaction, so emit on a background context
	// rather than the possibly cancelled transaction context.
	eventCtx := context.Background()
	for _, ev := range pending {
		log.WithField("eventType", ev.Type()).Debug("Flushing pending event to main bus")
		p.bus.Emit(eventCtx, ev)
	}
	return nil
}

// Discard drops all pending events. Called on rollback.
func (p *TransactionalPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
}
