package notification

import (
	"context"
	"time"

	"github.com/wyna/storefront/internal/platform/metrics"
	"go.uber.org/zap"
)

// Source yields queued messages. Pop returns nil, nil when wait elapses.
type Source interface {
	Pop(ctx context.Context, wait time.Duration) (*Message, error)
}

// Worker drains a Source and emails each message once. Failed sends are
// logged and counted, never requeued.
type Worker struct {
	src     Source
	mailer  Mailer
	metrics *metrics.Metrics
	logger  *zap.Logger

	wait        time.Duration
	sendTimeout time.Duration
	backoff     time.Duration
}

func NewWorker(src Source, mailer Mailer, m *metrics.Metrics, logger *zap.Logger) *Worker {
	if m == nil {
		m = metrics.Nop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		src:         src,
		mailer:      mailer,
		metrics:     m,
		logger:      logger.Named("notification"),
		wait:        5 * time.Second,
		sendTimeout: 30 * time.Second,
		backoff:     time.Second,
	}
}

// Run consumes until ctx is cancelled. It returns nil on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("notification_worker_started")
	defer w.logger.Info("notification_worker_stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}
		msg, err := w.src.Pop(ctx, w.wait)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("notification_pop_failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.backoff):
			}
			continue
		}
		if msg == nil {
			continue
		}
		w.deliver(ctx, msg)
	}
}

func (w *Worker) deliver(ctx context.Context, m *Message) {
	log := w.logger.With(zap.String("order_number", m.OrderNumber), zap.String("kind", string(m.Kind)))

	subject, body, err := Render(*m)
	if err != nil {
		w.metrics.Notifications.WithLabelValues("failed").Inc()
		log.Error("notification_render_failed", zap.Error(err))
		return
	}
	sctx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := w.mailer.Send(sctx, m.To, subject, body); err != nil {
		w.metrics.Notifications.WithLabelValues("failed").Inc()
		log.Warn("notification_send_failed", zap.Error(err))
		return
	}
	w.metrics.Notifications.WithLabelValues("sent").Inc()
	log.Info("notification_sent")
}
