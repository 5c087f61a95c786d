// Package subscription implements the double opt-in subscription lifecycle:
// a new subscriber is validated and stored as pending together with a
// confirmation token, receives a confirmation link by email, and becomes
// confirmed when the link is followed.
package subscription

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/inkpost/newsletter-backend/db"
	"github.com/inkpost/newsletter-backend/models"
)

// Emailer interface wraps a back-end that can send e-mails.
type Emailer interface {
	// Send delivers one message to recipient with an HTML and a plain-text
	// rendering of the same content.
	Send(recipient models.Email, subject string, htmlBody string, textBody string) error
}

// Service wires the subscription lifecycle together. It holds no state of
// its own between calls; concurrent Subscribe and Confirm invocations are
// safe because all coordination is delegated to the storage layer.
type Service struct {
	Database db.Database
	Emailer  Emailer
	// BaseURL is the public address confirmation links point at,
	// e.g. https://newsletter.example.com
	BaseURL string
}

// Subscribe validates a raw name and email, stores a pending subscriber and
// its confirmation token in one transaction, and emails the confirmation
// link. The subscriber and token are durable before the email goes out, so
// a link is never sent for data that isn't safely stored. Failures are
// reported as *ValidationError, *StorageError or *DeliveryError.
func (s *Service) Subscribe(rawName string, rawEmail string) error {
	name, err := models.ParseName(rawName)
	if err != nil {
		return &ValidationError{Reason: err}
	}
	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return &ValidationError{Reason: err}
	}

	subscriber := models.NewSubscriber(name, email)
	token := models.Token{
		Token:        models.GenerateToken(),
		SubscriberID: subscriber.ID,
	}

	txn, err := s.Database.Begin()
	if err != nil {
		return &StorageError{Op: "begin transaction", Err: err}
	}
	if err := txn.AddSubscriber(subscriber); err != nil {
		txn.Rollback()
		return &StorageError{Op: "store subscriber", Err: err}
	}
	if err := txn.AddToken(token); err != nil {
		txn.Rollback()
		return &StorageError{Op: "store confirmation token", Err: err}
	}
	if err := txn.Commit(); err != nil {
		return &StorageError{Op: "commit", Err: err}
	}

	link := s.confirmationURL(token.Token)
	err = s.Emailer.Send(email, confirmationSubject,
		confirmationHTMLBody(link), confirmationTextBody(link))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

// Confirm resolves a confirmation token and transitions its subscriber to
// confirmed. The transition is idempotent: re-clicking a link succeeds.
// A token that cannot be resolved yields ErrInvalidToken; storage faults
// yield *StorageError so callers can tell the two apart.
func (s *Service) Confirm(token string) error {
	id, found, err := s.Database.GetSubscriberIDByToken(token)
	if err != nil {
		return &StorageError{Op: "look up confirmation token", Err: err}
	}
	if !found {
		return ErrInvalidToken
	}
	if err := s.Database.ConfirmSubscriber(id); err != nil {
		return &StorageError{Op: "confirm subscriber", Err: err}
	}
	return nil
}

func (s *Service) confirmationURL(token string) string {
	return fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s",
		strings.TrimSuffix(s.BaseURL, "/"), url.QueryEscape(token))
}
