package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	raven "github.com/getsentry/raven-go"

	"github.com/inkpost/newsletter-backend/db"
	"github.com/inkpost/newsletter-backend/subscription"
)

////////////////////////////////
//  *****   REST API   *****  //
////////////////////////////////

// API is the HTTP API that this service provides.
// All requests respond with a response JSON, with fields:
// {
//     status_code // HTTP status code of request
//     message // Any error message accompanying the status_code. If 2xx, empty.
//     response // Response data (as JSON) from this request.
// }
type API struct {
	Service  *subscription.Service
	Database db.Database
}

type response struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Response   interface{} `json:"response"`
}

type apiHandler func(r *http.Request) response

func (api *API) wrapper(handler apiHandler) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		response := handler(r)
		if response.StatusCode == http.StatusInternalServerError {
			packet := raven.NewPacket(response.Message, raven.NewHttp(r))
			raven.Capture(packet, nil)
		}
		writeJSON(w, response)
	}
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

// RegisterHandlers binds API functions to the given http server,
// and returns the resulting handler.
func (api *API) RegisterHandlers(mux *http.ServeMux) http.Handler {
	mux.Handle("/subscriptions",
		throttleHandler(time.Hour, 20, http.HandlerFunc(api.wrapper(api.subscribe))))
	mux.HandleFunc("/subscriptions/confirm", api.wrapper(api.confirm))
	mux.HandleFunc("/api/stats", api.wrapper(api.stats))
	mux.HandleFunc("/api/ping", pingHandler)
	mux.HandleFunc("/health_check", pingHandler)
	return middleware(mux)
}

// subscribe is the handler for /subscriptions.
//   POST /subscriptions
//        name: Display name of the new subscriber.
//        email: Address the confirmation link is sent to.
// On success the subscriber is stored as pending and a confirmation email
// is on its way.
func (api API) subscribe(r *http.Request) response {
	if r.Method != http.MethodPost {
		return response{StatusCode: http.StatusMethodNotAllowed,
			Message: "/subscriptions only accepts POST requests"}
	}
	name, err := getParam("name", r)
	if err != nil {
		return badRequest(err.Error())
	}
	address, err := getParam("email", r)
	if err != nil {
		return badRequest(err.Error())
	}
	err = api.Service.Subscribe(name, address)
	var validationErr *subscription.ValidationError
	switch {
	case err == nil:
		return response{
			StatusCode: http.StatusOK,
			Response: fmt.Sprintf("Almost there! We've sent a confirmation link to %s. "+
				"Click it to activate your subscription.", address),
		}
	case errors.As(err, &validationErr):
		return badRequest(validationErr.Error())
	default:
		return serverError(err.Error())
	}
}

// confirm is the handler for /subscriptions/confirm.
//   GET /subscriptions/confirm?subscription_token=<token>
//        Redeems a confirmation token and activates its subscriber.
// A missing token is a 400; a token we can't resolve is a 401 so the
// response doesn't reveal anything about issued tokens; storage trouble
// is a 500.
func (api API) confirm(r *http.Request) response {
	if r.Method != http.MethodGet {
		return response{StatusCode: http.StatusMethodNotAllowed,
			Message: "/subscriptions/confirm only accepts GET requests"}
	}
	token, err := getParam("subscription_token", r)
	if err != nil {
		return badRequest(err.Error())
	}
	err = api.Service.Confirm(token)
	switch {
	case err == nil:
		return response{StatusCode: http.StatusOK,
			Response: "Subscription confirmed. Welcome aboard!"}
	case errors.Is(err, subscription.ErrInvalidToken):
		return response{StatusCode: http.StatusUnauthorized, Message: err.Error()}
	default:
		return serverError(err.Error())
	}
}

// stats is the handler for /api/stats.
//   GET /api/stats
//        Sets a db.Stats JSON (pending and confirmed counts) as response.
func (api API) stats(r *http.Request) response {
	stats, err := api.Database.GetStats()
	if err != nil {
		return serverError(err.Error())
	}
	return response{StatusCode: http.StatusOK, Response: stats}
}

// Retrieves `param` from `http.Request` r, accepting either a form value or
// a query parameter. If absent, returns an error.
func getParam(param string, r *http.Request) (string, error) {
	value := strings.TrimSpace(r.FormValue(param))
	if value == "" {
		return "", fmt.Errorf("query parameter %s not specified", param)
	}
	return value, nil
}

// Writes the response as a JSON object to http.ResponseWriter `w`. If an
// error occurs, writes `http.StatusInternalServerError` to `w`.
func writeJSON(w http.ResponseWriter, apiResponse response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiResponse.StatusCode)
	b, err := json.MarshalIndent(apiResponse, "", "  ")
	if err != nil {
		msg := fmt.Sprintf("Internal error: could not format JSON. (%s)\n", err)
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "%s\n", b)
}

func badRequest(format string, a ...interface{}) response {
	return response{
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(format, a...),
	}
}

func serverError(format string, a ...interface{}) response {
	return response{
		StatusCode: http.StatusInternalServerError,
		Message:    fmt.Sprintf(format, a...),
	}
}
