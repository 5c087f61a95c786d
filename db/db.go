package db

import (
	"errors"
	"flag"
	"os"

	"github.com/google/uuid"

	"github.com/inkpost/newsletter-backend/models"
)

// ErrEmailTaken is returned when inserting a subscriber whose email address
// is already present. Duplicate submissions are rejected, never merged.
var ErrEmailTaken = errors.New("a subscriber with this email already exists")

// Stats counts subscribers per lifecycle state.
type Stats struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
}

// Txn is a transactional scope over the subscriber and token tables.
// Writes staged in a Txn are invisible to other callers until Commit; after
// Rollback neither write is ever visible. A subscriber and its confirmation
// token must always be inserted through the same Txn so that a crash between
// the two writes leaves neither behind.
type Txn interface {
	AddSubscriber(models.Subscriber) error
	AddToken(models.Token) error
	Commit() error
	Rollback() error
}

// Database interface: what the subscription flows need from storage.
type Database interface {
	// Begin opens a transactional scope for inserting a pending subscriber
	// and its confirmation token as a unit.
	Begin() (Txn, error)
	// GetSubscriberIDByToken resolves a confirmation token to the owning
	// subscriber. found is false when the token was never issued; err is
	// reserved for storage faults.
	GetSubscriberIDByToken(token string) (id uuid.UUID, found bool, err error)
	// ConfirmSubscriber transitions a subscriber to the confirmed state.
	// Confirming an already-confirmed subscriber is a no-op.
	ConfirmSubscriber(id uuid.UUID) error
	// GetSubscriberByEmail retrieves the subscriber with the given address.
	GetSubscriberByEmail(address string) (models.Subscriber, error)
	// GetStats counts subscribers per status.
	GetStats() (Stats, error)
	ClearTables() error
}

// Config is a configuration struct for a Database.
type Config struct {
	Port       string
	DbHost     string
	DbName     string
	DbUsername string
	DbPass     string
}

// Default configuration values. Can be overwritten by env vars of the same name.
var configDefaults = map[string]string{
	"PORT":         "8080",
	"DB_HOST":      "localhost",
	"DB_NAME":      "newsletter",
	"DB_USERNAME":  "postgres",
	"DB_PASSWORD":  "postgres",
	"TEST_DB_NAME": "newsletter_test",
}

func getEnvOrDefault(varName string) string {
	envVar := os.Getenv(varName)
	if len(envVar) == 0 {
		envVar = configDefaults[varName]
	}
	return envVar
}

// LoadEnvironmentVariables loads relevant environment variables into a
// Config object.
func LoadEnvironmentVariables() (Config, error) {
	config := Config{
		Port:       getEnvOrDefault("PORT"),
		DbHost:     getEnvOrDefault("DB_HOST"),
		DbName:     getEnvOrDefault("DB_NAME"),
		DbUsername: getEnvOrDefault("DB_USERNAME"),
		DbPass:     getEnvOrDefault("DB_PASSWORD"),
	}
	if flag.Lookup("test.v") != nil {
		// Avoid accidentally wiping the default db during tests.
		config.DbName = getEnvOrDefault("TEST_DB_NAME")
	}
	return config, nil
}
