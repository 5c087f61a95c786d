package db

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/inkpost/newsletter-backend/models"
)

// MemDatabase is a straw-man in-memory database (for testing!).
// FailWith, when set, is returned by every subsequent storage call;
// FailConfirmWith fails only ConfirmSubscriber, so tests can reach the
// status update with a working token lookup in front of it.
type MemDatabase struct {
	mu              sync.Mutex
	subscribers     map[string]models.Subscriber // keyed by email
	tokens          map[string]models.Token      // keyed by token string
	FailWith        error
	FailConfirmWith error
}

// InitMemDatabase returns an empty MemDatabase.
func InitMemDatabase() *MemDatabase {
	return &MemDatabase{
		subscribers: make(map[string]models.Subscriber),
		tokens:      make(map[string]models.Token),
	}
}

// memTxn stages a subscriber and token pair until Commit, mimicking the
// atomicity of a SQL transaction.
type memTxn struct {
	db         *MemDatabase
	subscriber *models.Subscriber
	token      *models.Token
	done       bool
}

func (db *MemDatabase) Begin() (Txn, error) {
	if db.FailWith != nil {
		return nil, db.FailWith
	}
	return &memTxn{db: db}, nil
}

func (t *memTxn) AddSubscriber(s models.Subscriber) error {
	if t.db.FailWith != nil {
		return t.db.FailWith
	}
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if _, ok := t.db.subscribers[s.Email.String()]; ok {
		return ErrEmailTaken
	}
	t.subscriber = &s
	return nil
}

func (t *memTxn) AddToken(token models.Token) error {
	if t.db.FailWith != nil {
		return t.db.FailWith
	}
	t.token = &token
	return nil
}

func (t *memTxn) Commit() error {
	if t.db.FailWith != nil {
		return t.db.FailWith
	}
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	if t.subscriber != nil {
		// Re-check uniqueness at commit time: another transaction may have
		// committed the same email while this one was staged.
		if _, ok := t.db.subscribers[t.subscriber.Email.String()]; ok {
			return ErrEmailTaken
		}
		t.db.subscribers[t.subscriber.Email.String()] = *t.subscriber
	}
	if t.token != nil {
		t.db.tokens[t.token.Token] = *t.token
	}
	return nil
}

func (t *memTxn) Rollback() error {
	t.done = true
	t.subscriber = nil
	t.token = nil
	return nil
}

func (db *MemDatabase) GetSubscriberIDByToken(token string) (uuid.UUID, bool, error) {
	if db.FailWith != nil {
		return uuid.Nil, false, db.FailWith
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	data, ok := db.tokens[token]
	if !ok {
		return uuid.Nil, false, nil
	}
	return data.SubscriberID, true, nil
}

func (db *MemDatabase) ConfirmSubscriber(id uuid.UUID) error {
	if db.FailWith != nil {
		return db.FailWith
	}
	if db.FailConfirmWith != nil {
		return db.FailConfirmWith
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	for email, subscriber := range db.subscribers {
		if subscriber.ID == id {
			subscriber.Status = models.StatusConfirmed
			db.subscribers[email] = subscriber
			return nil
		}
	}
	// The update matches zero rows; like the SQL UPDATE, that's not an error.
	return nil
}

func (db *MemDatabase) GetSubscriberByEmail(address string) (models.Subscriber, error) {
	if db.FailWith != nil {
		return models.Subscriber{}, db.FailWith
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	subscriber, ok := db.subscribers[address]
	if !ok {
		return models.Subscriber{}, fmt.Errorf("no subscriber stored for %s", address)
	}
	return subscriber, nil
}

func (db *MemDatabase) GetStats() (Stats, error) {
	if db.FailWith != nil {
		return Stats{}, db.FailWith
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	var stats Stats
	for _, subscriber := range db.subscribers {
		switch subscriber.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusConfirmed:
			stats.Confirmed++
		}
	}
	return stats, nil
}

func (db *MemDatabase) ClearTables() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.subscribers = make(map[string]models.Subscriber)
	db.tokens = make(map[string]models.Token)
	return nil
}
