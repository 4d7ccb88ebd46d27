package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reservapp/backend/internal/domain"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher consumes lifecycle events off a bounded queue and turns them
// into mail, decoupled from the transaction that produced them. Delivery is
// best effort: send failures are logged and swallowed, and a full queue drops
// the event rather than block the caller.
type Dispatcher struct {
	mailer Mailer
	log    *slog.Logger
	inbox  chan Event
	done   chan struct{}
}

func NewDispatcher(mailer Mailer, queueSize int, log *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		mailer: mailer,
		log:    log.With(slog.String("component", "notify.dispatcher")),
		inbox:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				d.drain()
				return
			case ev := <-d.inbox:
				d.send(ev)
			}
		}
	}()
}

// Enqueue hands an event to the dispatcher without blocking.
func (d *Dispatcher) Enqueue(ev Event) {
	select {
	case d.inbox <- ev:
	default:
		d.log.Warn("notification queue full, dropping event",
			slog.String("kind", ev.Kind),
			slog.String("recipient", ev.RecipientEmail),
		)
	}
}

// WaitClosed blocks until the worker has exited and flushed its queue.
func (d *Dispatcher) WaitClosed() {
	<-d.done
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.inbox:
			d.send(ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) send(ev Event) {
	subject, body := buildMessage(ev)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.mailer.Send(ctx, ev.RecipientEmail, subject, body); err != nil {
		d.log.Warn("notification send failed",
			slog.Any("err", err),
			slog.String("kind", ev.Kind),
			slog.String("recipient", ev.RecipientEmail),
		)
		return
	}

	d.log.Debug("notification sent",
		slog.String("kind", ev.Kind),
		slog.String("recipient", ev.RecipientEmail),
	)
}

func buildMessage(ev Event) (subject, body string) {
	switch ev.Kind {
	case KindCustomerConfirmation:
		subject = "Your reservation confirmation"
		body = fmt.Sprintf(`Hello %s,

Your reservation request has been sent.

Date: %s
Time: %s
Service: %s
Reservation number: %s

Thank you for choosing ReservApp!
`,
			ev.CustomerName,
			ev.Date.Format("2006-01-02"),
			ev.TimeOfDay.Format("15:04"),
			ev.ServiceName,
			ev.ReservationID,
		)
	case KindProviderNewRequest:
		subject = "New reservation for " + ev.ProviderName
		body = fmt.Sprintf(`Hello %s,

You have received a new reservation request:

Customer: %s
Service: %s
Date: %s
Time: %s

Please visit your dashboard to confirm or reject the reservation.

ReservApp Team
`,
			ev.ProviderName,
			ev.CustomerName,
			ev.ServiceName,
			ev.Date.Format("2006-01-02"),
			ev.TimeOfDay.Format("15:04"),
		)
	case KindCustomerStatusUpdate:
		subject = "Update of your reservation - " + ev.ServiceName
		body = fmt.Sprintf(`Hello %s,

Your reservation for %s %s.

Reservation details:
Service: %s
Provider: %s
Status: %s

ReservApp Team
`,
			ev.CustomerName,
			ev.ServiceName,
			statusPhrase(ev.Status),
			ev.ServiceName,
			ev.ProviderName,
			ev.Status,
		)
	default:
		subject = "Reservation update"
		body = fmt.Sprintf("Hello %s,\n\nYour reservation for %s %s.\n", ev.CustomerName, ev.ServiceName, statusPhrase(ev.Status))
	}
	return subject, body
}

func statusPhrase(s domain.ReservationStatus) string {
	switch s {
	case domain.ReservationStatusAccepted:
		return "has been confirmed"
	case domain.ReservationStatusCancelled:
		return "has been cancelled"
	case domain.ReservationStatusPending:
		return "is pending confirmation"
	default:
		return "has changed status"
	}
}
