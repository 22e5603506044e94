package domain

import "time"

// Notification is the core domain entity. It is immutable once created;
// the publisher writes it exactly once per send request.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Delivery is the durable record that a notification was targeted at a
// user. At most one row exists per (notification, user) pair; the insert
// is duplicate-safe so broker redelivery is absorbed as a no-op.
type Delivery struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	DeliveredAt    time.Time `json:"delivered_at"`
}

// PublishRequest is the inbound payload for a fan-out send.
type PublishRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (r *PublishRequest) Validate() error {
	if r.Title == "" || len(r.Title) > 255 {
		return ErrInvalidTitle
	}
	if r.Message == "" || len(r.Message) > 4096 {
		return ErrInvalidMessage
	}
	return nil
}

// PublishResult reports what a publish call actually did. RecipientCount
// is the size of the eligible set at publish time; zero is a valid result
// and still leaves the notification row persisted.
type PublishResult struct {
	NotificationID string `json:"notification_id"`
	RecipientCount int    `json:"recipient_count"`
}

// TargetMessage is the queue wire format: one UTF-8 JSON message per
// (recipient, notification) pair on the fan-out queue. Workers receive the
// single recipient embedded here and never re-query the eligible set.
type TargetMessage struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	NotificationID string `json:"notification_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}
