package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/inkpost/newsletter-backend/models"
)

// SQLDatabase is a Database interface backed by postgresql.
type SQLDatabase struct {
	cfg  Config  // Configuration to define the DB connection.
	conn *sql.DB // The database connection.
}

func getConnectionString(cfg Config) string {
	connectionString := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		url.PathEscape(cfg.DbUsername),
		url.PathEscape(cfg.DbPass),
		url.PathEscape(cfg.DbHost),
		url.PathEscape(cfg.DbName))
	return connectionString
}

// InitSQLDatabase creates a DB connection based on information in a Config,
// and returns a pointer to the resulting SQLDatabase object. If connection
// fails, returns an error.
func InitSQLDatabase(cfg Config) (*SQLDatabase, error) {
	connectionString := getConnectionString(cfg)
	log.Printf("Connecting to Postgres DB ...\n")
	conn, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}
	return &SQLDatabase{cfg: cfg, conn: conn}, nil
}

// EnsureTables creates the subscriptions and subscription_tokens tables if
// they don't exist yet. Email uniqueness lives here as a constraint so that
// two concurrent subscriptions for the same address cannot both commit.
func (db *SQLDatabase) EnsureTables() error {
	return tryExec(db, []string{
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id uuid PRIMARY KEY,
			email text NOT NULL UNIQUE,
			name text NOT NULL,
			status text NOT NULL,
			subscribed_at timestamptz NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subscription_tokens (
			subscription_token text PRIMARY KEY,
			subscriber_id uuid NOT NULL REFERENCES subscriptions(id)
		)`,
	})
}

// SQLTxn is a Txn over a single SQL transaction.
type SQLTxn struct {
	tx *sql.Tx
}

// Begin opens a SQL transaction for the subscriber-and-token insert pair.
func (db *SQLDatabase) Begin() (Txn, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	return &SQLTxn{tx: tx}, nil
}

// AddSubscriber inserts a new subscriber row inside the transaction.
// A duplicate email surfaces as ErrEmailTaken.
func (t *SQLTxn) AddSubscriber(s models.Subscriber) error {
	_, err := t.tx.Exec(
		"INSERT INTO subscriptions(id, email, name, status, subscribed_at) VALUES($1, $2, $3, $4, $5)",
		s.ID, s.Email.String(), s.Name.String(), string(s.Status), s.SubscribedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// AddToken inserts a confirmation token row inside the transaction.
func (t *SQLTxn) AddToken(token models.Token) error {
	_, err := t.tx.Exec(
		"INSERT INTO subscription_tokens(subscription_token, subscriber_id) VALUES($1, $2)",
		token.Token, token.SubscriberID)
	return err
}

// Commit makes both staged writes durable.
func (t *SQLTxn) Commit() error {
	return t.tx.Commit()
}

// Rollback abandons the transaction. Safe to call after a failed statement.
func (t *SQLTxn) Rollback() error {
	return t.tx.Rollback()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// GetSubscriberIDByToken looks a confirmation token up by exact string
// match. An unknown token is not an error: found is false and err is nil.
func (db *SQLDatabase) GetSubscriberIDByToken(token string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := db.conn.QueryRow(
		"SELECT subscriber_id FROM subscription_tokens WHERE subscription_token=$1",
		token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// ConfirmSubscriber updates a subscriber's status to confirmed. The update
// matches on id alone, so re-confirming an already-confirmed subscriber
// succeeds and changes nothing.
func (db *SQLDatabase) ConfirmSubscriber(id uuid.UUID) error {
	_, err := db.conn.Exec("UPDATE subscriptions SET status=$1 WHERE id=$2",
		string(models.StatusConfirmed), id)
	return err
}

// GetSubscriberByEmail retrieves the subscriber stored under the given
// address.
func (db *SQLDatabase) GetSubscriberByEmail(address string) (models.Subscriber, error) {
	var (
		s         models.Subscriber
		rawEmail  string
		rawName   string
		rawStatus string
	)
	err := db.conn.QueryRow(
		"SELECT id, email, name, status, subscribed_at FROM subscriptions WHERE email=$1",
		address).Scan(&s.ID, &rawEmail, &rawName, &rawStatus, &s.SubscribedAt)
	if err != nil {
		return models.Subscriber{}, err
	}
	return rehydrateSubscriber(s, rawEmail, rawName, rawStatus)
}

// Stored rows passed validation on the way in, so re-parsing only fails if
// the row was tampered with outside this application.
func rehydrateSubscriber(s models.Subscriber, rawEmail, rawName, rawStatus string) (models.Subscriber, error) {
	var err error
	if s.Email, err = models.ParseEmail(rawEmail); err != nil {
		return models.Subscriber{}, fmt.Errorf("corrupt email in subscriber row %s: %v", s.ID, err)
	}
	if s.Name, err = models.ParseName(rawName); err != nil {
		return models.Subscriber{}, fmt.Errorf("corrupt name in subscriber row %s: %v", s.ID, err)
	}
	s.Status = models.SubscriberStatus(rawStatus)
	return s, nil
}

// GetStats counts subscribers in each lifecycle state.
func (db *SQLDatabase) GetStats() (Stats, error) {
	var stats Stats
	rows, err := db.conn.Query("SELECT status, COUNT(*) FROM subscriptions GROUP BY status")
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		switch models.SubscriberStatus(status) {
		case models.StatusPending:
			stats.Pending = count
		case models.StatusConfirmed:
			stats.Confirmed = count
		}
	}
	return stats, rows.Err()
}

func tryExec(database *SQLDatabase, commands []string) error {
	for _, command := range commands {
		if _, err := database.conn.Exec(command); err != nil {
			return fmt.Errorf("command failed: %s\nwith error: %v",
				command, err.Error())
		}
	}
	return nil
}

// ClearTables nukes all the tables. ** Should only be used during testing **
func (db *SQLDatabase) ClearTables() error {
	return tryExec(db, []string{
		"DELETE FROM subscription_tokens",
		"DELETE FROM subscriptions",
	})
}
