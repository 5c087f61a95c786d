package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriberStatus represents the lifecycle state of a single subscriber.
type SubscriberStatus string

// Possible values for SubscriberStatus.
const (
	StatusPending   SubscriberStatus = "pending"   // Waiting on the confirmation link.
	StatusConfirmed SubscriberStatus = "confirmed" // Clicked the link; on the list.
)

// Subscriber mirrors a row of the subscriptions table.
type Subscriber struct {
	ID           uuid.UUID
	Email        Email
	Name         Name
	Status       SubscriberStatus
	SubscribedAt time.Time
}

// NewSubscriber assembles a pending subscriber from validated input.
// The identifier and the subscription timestamp are assigned here and
// never change afterwards.
func NewSubscriber(name Name, email Email) Subscriber {
	return Subscriber{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Status:       StatusPending,
		SubscribedAt: time.Now(),
	}
}
