package main

import (
	"log"
	"net/http"
	"os"

	raven "github.com/getsentry/raven-go"
	"github.com/joho/godotenv"

	"github.com/inkpost/newsletter-backend/api"
	"github.com/inkpost/newsletter-backend/db"
	"github.com/inkpost/newsletter-backend/email"
	"github.com/inkpost/newsletter-backend/subscription"
	"github.com/inkpost/newsletter-backend/util"
)

func main() {
	godotenv.Load()
	raven.SetDSN(os.Getenv("SENTRY_DSN"))

	cfg, err := db.LoadEnvironmentVariables()
	if err != nil {
		log.Fatal(err)
	}
	database, err := db.InitSQLDatabase(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.EnsureTables(); err != nil {
		log.Fatal(err)
	}

	emailConfig, err := email.MakeConfigFromEnv()
	if err != nil {
		// Without a mail submission server configured, confirmation
		// emails are logged rather than sent.
		log.Printf("couldn't connect to mailserver: %v", err)
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}

	a := api.API{
		Database: database,
		Service: &subscription.Service{
			Database: database,
			Emailer:  emailConfig,
			BaseURL:  baseURL,
		},
	}

	mux := http.NewServeMux()
	mainHandler := a.RegisterHandlers(mux)

	portString, err := util.ValidPort(cfg.Port)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("listening on %s", portString)
	log.Fatal(http.ListenAndServe(portString, mainHandler))
}
