package worker

import (
	"context"
	"errors"
	"time"

	"travlr/events"
	"travlr/logging"
	"travlr/metrics"
	"travlr/models"
	"travlr/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	JobWelcome      = "welcome"
	JobCheckout     = "checkout"
	JobStatusChange = "status_change"
)

// EmailSender delivers one rendered message.
type EmailSender interface {
	Send(ctx context.Context, msg utils.EmailMessage) error
}

// EmailJob is a queued notification.
type EmailJob struct {
	Kind      string
	Message   utils.EmailMessage
	CreatedAt time.Time
}

// EmailWorker turns domain events into emails and delivers them with retries.
type EmailWorker struct {
	sender      EmailSender
	retryPolicy RetryPolicy
	queue       chan EmailJob
	logger      zerolog.Logger
}

// NewEmailWorker builds a worker. Zero retry fields fall back to DefaultEmailRetry.
func NewEmailWorker(sender EmailSender, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *EmailWorker {
	if queueSize <= 0 {
		queueSize = 128
	}
	return &EmailWorker{
		sender:      sender,
		retryPolicy: retry.withDefaults(),
		queue:       make(chan EmailJob, queueSize),
		logger:      logging.Component(logger, "email_worker"),
	}
}

// Subscribe wires the worker to the events that produce emails.
func (w *EmailWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventUserRegistered, w.onUserRegistered)
	bus.Subscribe(events.EventCheckoutCompleted, w.onCheckoutCompleted)
	bus.Subscribe(events.EventBookingStatusChanged, w.onStatusChanged)
}

func (w *EmailWorker) onUserRegistered(event *events.Event) error {
	var p events.UserEventPayload
	if err := event.Decode(&p); err != nil {
		return err
	}
	w.Enqueue(EmailJob{Kind: JobWelcome, Message: utils.WelcomeEmail(p.Name, p.Email)})
	return nil
}

func (w *EmailWorker) onCheckoutCompleted(event *events.Event) error {
	var p events.CheckoutEventPayload
	if err := event.Decode(&p); err != nil {
		return err
	}
	bookings := make([]models.Booking, 0, len(p.Bookings))
	for _, b := range p.Bookings {
		bookings = append(bookings, bookingFromPayload(b))
	}
	w.Enqueue(EmailJob{Kind: JobCheckout, Message: utils.CheckoutEmail(p.UserName, p.UserEmail, bookings)})
	return nil
}

func (w *EmailWorker) onStatusChanged(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return err
	}
	w.Enqueue(EmailJob{Kind: JobStatusChange, Message: utils.StatusChangeEmail(bookingFromPayload(p))})
	return nil
}

func bookingFromPayload(p events.BookingEventPayload) models.Booking {
	id, _ := primitive.ObjectIDFromHex(p.BookingID)
	return models.Booking{
		ID:         id,
		TripCode:   p.TripCode,
		TripName:   p.TripName,
		UserEmail:  p.UserEmail,
		UserName:   p.UserName,
		Travelers:  p.Travelers,
		TotalPrice: p.TotalPrice,
		TravelDate: p.TravelDate,
		Status:     p.Status,
	}
}

// Enqueue schedules job without blocking. It reports false when the queue is full.
func (w *EmailWorker) Enqueue(job EmailJob) bool {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	select {
	case w.queue <- job:
		return true
	default:
		w.logger.Warn().Str("kind", job.Kind).Str("to", job.Message.To).Msg("email queue full, job dropped")
		metrics.IncEmail(job.Kind, "dropped")
		return false
	}
}

// Start launches main loop; stops when ctx is done.
func (w *EmailWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("email worker started")
	defer w.logger.Info().Msg("email worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.queue:
			w.process(ctx, job)
		}
	}
}

func (w *EmailWorker) process(ctx context.Context, job EmailJob) {
	err := w.deliver(ctx, job)
	switch {
	case err == nil:
		metrics.IncEmail(job.Kind, "sent")
	case errors.Is(err, context.Canceled):
		w.logger.Warn().Str("kind", job.Kind).Msg("email delivery interrupted by shutdown")
	default:
		metrics.IncEmail(job.Kind, "failed")
		w.logger.Error().Err(err).Str("kind", job.Kind).Str("to", job.Message.To).Msg("email delivery failed, job dropped")
	}
}

func (w *EmailWorker) deliver(ctx context.Context, job EmailJob) error {
	for attempt := 1; ; attempt++ {
		err := w.sender.Send(ctx, job.Message)
		if err == nil {
			return nil
		}
		if w.retryPolicy.Exhausted(attempt) {
			return err
		}

		w.logger.Debug().Err(err).Int("attempt", attempt).Msg("email send failed")
		if err := w.retryPolicy.Wait(ctx, attempt); err != nil {
			return err
		}
	}
}
