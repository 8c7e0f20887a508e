package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travlr/events"
	"travlr/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []utils.EmailMessage
}

func (f *fakeSender) Send(ctx context.Context, msg utils.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("provider unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) snapshot() (int, []utils.EmailMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]utils.EmailMessage(nil), f.sent...)
}

var fastRetry = RetryPolicy{Attempts: 3, Base: time.Millisecond, Cap: 5 * time.Millisecond}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{Base: time.Second, Cap: 5 * time.Second, Factor: 2}
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
	assert.Equal(t, 5*time.Second, p.Backoff(4))

	t.Run("Defaults", func(t *testing.T) {
		var zero RetryPolicy
		assert.Equal(t, 4*time.Second, zero.Backoff(2))
		assert.Equal(t, time.Minute, zero.Backoff(20))
		assert.False(t, zero.Exhausted(4))
		assert.True(t, zero.Exhausted(5))
	})

	t.Run("Jitter", func(t *testing.T) {
		jittered := RetryPolicy{Base: time.Second, Cap: time.Minute, Factor: 2, Jitter: 0.25}
		for i := 0; i < 50; i++ {
			d := jittered.Backoff(3)
			assert.GreaterOrEqual(t, d, 3*time.Second)
			assert.LessOrEqual(t, d, 5*time.Second)
		}
		assert.Equal(t, time.Minute, jittered.Backoff(30))
	})

	t.Run("WaitHonoursContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryPolicy{Base: time.Hour}.Wait(ctx, 1)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, fastRetry.Wait(context.Background(), 1))
	})
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: 2}
	w := NewEmailWorker(sender, fastRetry, 4, nil)

	err := w.deliver(context.Background(), EmailJob{Kind: JobWelcome, Message: utils.WelcomeEmail("Ann", "ann@travlr.com")})
	require.NoError(t, err)

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	require.Len(t, sent, 1)
	assert.Equal(t, "ann@travlr.com", sent[0].To)
}

func TestDeliverGivesUp(t *testing.T) {
	sender := &fakeSender{failures: 10}
	w := NewEmailWorker(sender, fastRetry, 4, nil)

	err := w.deliver(context.Background(), EmailJob{Kind: JobWelcome})
	assert.Error(t, err)
	calls, _ := sender.snapshot()
	assert.Equal(t, fastRetry.Attempts, calls)
}

func TestDeliverStopsOnCancel(t *testing.T) {
	sender := &fakeSender{failures: 10}
	w := NewEmailWorker(sender, RetryPolicy{Attempts: 5, Base: time.Hour}, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := w.deliver(ctx, EmailJob{Kind: JobWelcome})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnqueueFullQueue(t *testing.T) {
	w := NewEmailWorker(&fakeSender{}, fastRetry, 1, nil)
	assert.True(t, w.Enqueue(EmailJob{Kind: JobWelcome}))
	assert.False(t, w.Enqueue(EmailJob{Kind: JobWelcome}))
}

func TestEventsProduceEmails(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender, fastRetry, 8, nil)
	bus := events.NewEventBus()
	w.Subscribe(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, bus.PublishJSON(events.EventUserRegistered, events.UserEventPayload{Email: "ann@travlr.com", Name: "Ann"}))
	require.NoError(t, bus.PublishJSON(events.EventCheckoutCompleted, events.CheckoutEventPayload{
		UserEmail: "ann@travlr.com",
		UserName:  "Ann",
		Bookings: []events.BookingEventPayload{
			{TripCode: "BCH01", TripName: "Beach Paradise", Travelers: 2, TotalPrice: 1000},
		},
	}))
	require.NoError(t, bus.PublishJSON(events.EventBookingStatusChanged, events.BookingEventPayload{
		UserEmail: "ann@travlr.com", UserName: "Ann", TripName: "Beach Paradise", Status: "confirmed",
	}))
	// not an email event
	require.NoError(t, bus.PublishJSON(events.EventBookingDeleted, events.BookingEventPayload{}))

	require.Eventually(t, func() bool {
		_, sent := sender.snapshot()
		return len(sent) == 3
	}, time.Second, 5*time.Millisecond)

	_, sent := sender.snapshot()
	assert.Equal(t, "Welcome to Travlr Getaways", sent[0].Subject)
	assert.Equal(t, "Booking Confirmation", sent[1].Subject)
	assert.Contains(t, sent[1].HTML, "Beach Paradise")
	assert.Equal(t, "Your booking is now confirmed", sent[2].Subject)
}
