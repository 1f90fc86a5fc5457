package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"washsync-backend/internal/model"
	"washsync-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushPayload is the JSON body delivered to the browser service worker.
type pushPayload struct {
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Type      model.NotificationType `json:"type"`
	MachineID *int64                 `json:"machineId,omitempty"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan model.Notification
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Notification, size*16), // Buffered channel
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("[push] worker %d started", id)
	for {
		select {
		case n := <-wp.jobs:
			wp.sendNotificationsForUser(ctx, n)
		case <-ctx.Done():
			log.Printf("[push] worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a notification for delivery. It blocks while the queue is
// full and gives up when ctx is cancelled.
func (wp *WorkerPool) Dispatch(ctx context.Context, n model.Notification) {
	select {
	case wp.jobs <- n:
	case <-ctx.Done():
		log.Printf("[push] dropping notification for user %d: %v", n.UserID, ctx.Err())
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Notification {
	return wp.jobs
}

// sendNotificationsForUser pushes n to every browser the recipient registered.
func (wp *WorkerPool) sendNotificationsForUser(ctx context.Context, n model.Notification) {
	subscriptions, err := wp.store.SubscriptionsForUser(ctx, n.UserID)
	if err != nil {
		log.Printf("[push] error fetching subscriptions for user %d: %v", n.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{
		Title:     "WashSync",
		Body:      n.Message,
		Type:      n.Type,
		MachineID: n.MachineID,
	})
	if err != nil {
		log.Printf("[push] error encoding notification %d: %v", n.ID, err)
		return
	}

	log.Printf("[push] sending %s to %d subscription(s) of user %d", n.Type, len(subscriptions), n.UserID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("[push] error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("[push] subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, 0, sub.Endpoint); err != nil {
			log.Printf("[push] failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
