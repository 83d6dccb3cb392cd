package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/wyna/storefront/internal/modules/payment"
)

// EventLog is an in-memory payment.EventLog, newest first.
type EventLog struct {
	mu     sync.Mutex
	events []payment.Event
}

var _ payment.EventLog = (*EventLog)(nil)

func NewEventLog() *EventLog { return &EventLog{} }

func (l *EventLog) Record(_ context.Context, e *payment.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.ReceivedAt = time.Now().UTC()
	stored := *e
	stored.Payload = append([]byte(nil), e.Payload...)
	l.events = append([]payment.Event{stored}, l.events...)
	return nil
}

func (l *EventLog) List(_ context.Context, gatewayOrderID string, limit int) ([]*payment.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*payment.Event
	for i := range l.events {
		if gatewayOrderID != "" && l.events[i].GatewayOrderID != gatewayOrderID {
			continue
		}
		e := l.events[i]
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
