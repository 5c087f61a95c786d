package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/inkpost/newsletter-backend/db"
	"github.com/inkpost/newsletter-backend/models"
	"github.com/inkpost/newsletter-backend/subscription"
)

var (
	api      *API
	server   *httptest.Server
	database *db.MemDatabase
	emailer  *mockEmailer
)

// Mock emailer
type mockEmailer struct {
	bodies   []string
	failWith error
}

func (e *mockEmailer) Send(recipient models.Email, subject, htmlBody, textBody string) error {
	if e.failWith != nil {
		return e.failWith
	}
	e.bodies = append(e.bodies, textBody)
	return nil
}

func TestMain(m *testing.M) {
	database = db.InitMemDatabase()
	emailer = &mockEmailer{}
	service := &subscription.Service{
		Database: database,
		Emailer:  emailer,
	}
	api = &API{Service: service, Database: database}
	mux := http.NewServeMux()
	server = httptest.NewServer(api.RegisterHandlers(mux))
	defer server.Close()
	// Confirmation links in test emails point back at the test server.
	service.BaseURL = server.URL
	code := m.Run()
	os.Exit(code)
}

func teardown() {
	database.ClearTables()
	database.FailWith = nil
	emailer.bodies = nil
	emailer.failWith = nil
}

func postSubscription(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/subscriptions",
		"application/x-www-form-urlencoded", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

var linkPattern = regexp.MustCompile(`https?://[^\s"<]+`)

func lastConfirmationLink(t *testing.T) string {
	t.Helper()
	if len(emailer.bodies) == 0 {
		t.Fatal("no confirmation email was sent")
	}
	link := linkPattern.FindString(emailer.bodies[len(emailer.bodies)-1])
	if link == "" {
		t.Fatal("no link in the confirmation email body")
	}
	return link
}

func TestSubscribeReturns200ForValidFormData(t *testing.T) {
	defer teardown()
	resp := postSubscription(t, "name=BoatyMcBoatFace&email=test_user%40gmail.com")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	subscriber, err := database.GetSubscriberByEmail("test_user@gmail.com")
	if err != nil {
		t.Fatalf("subscription was not stored: %v", err)
	}
	if subscriber.Status != models.StatusPending {
		t.Errorf("new subscriber should be pending, was %s", subscriber.Status)
	}
	if len(emailer.bodies) != 1 {
		t.Errorf("expected exactly one confirmation email, got %d", len(emailer.bodies))
	}
}

func TestSubscribeReturns400WhenDataIsMissing(t *testing.T) {
	defer teardown()
	testCases := []struct {
		body        string
		description string
	}{
		{"name=clever%20jam", "missing the email"},
		{"email=test_user%40gmail.com", "missing the name"},
		{"", "missing the name and email"},
	}
	for _, tc := range testCases {
		resp := postSubscription(t, tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 when the payload was %s, got %d",
				tc.description, resp.StatusCode)
		}
	}
}

func TestSubscribeReturns400WhenFieldsArePresentButInvalid(t *testing.T) {
	defer teardown()
	testCases := []struct {
		body        string
		description string
	}{
		{"name=" + url.QueryEscape("{evil}") + "&email=test@test.com", "a forbidden name"},
		{"name=dude&email=not-a-valid-email", "an invalid email"},
	}
	for _, tc := range testCases {
		resp := postSubscription(t, tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 when the payload had %s, got %d",
				tc.description, resp.StatusCode)
		}
		if len(emailer.bodies) != 0 {
			t.Errorf("no email should be sent when the payload had %s", tc.description)
		}
	}
}

func TestSubscribeReturns500ForDuplicateEmail(t *testing.T) {
	defer teardown()
	postSubscription(t, "name=BoatyMcBoatFace&email=test_user%40gmail.com")
	resp := postSubscription(t, "name=SomeoneElse&email=test_user%40gmail.com")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 for a duplicate email, got %d", resp.StatusCode)
	}
}

func TestSubscribeReturns500WhenDeliveryFails(t *testing.T) {
	defer teardown()
	emailer.failWith = fmt.Errorf("smtp is down")
	resp := postSubscription(t, "name=BoatyMcBoatFace&email=test_user%40gmail.com")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 when delivery fails, got %d", resp.StatusCode)
	}
	// The pending subscriber survives the failed delivery.
	if _, err := database.GetSubscriberByEmail("test_user@gmail.com"); err != nil {
		t.Errorf("subscriber should remain stored: %v", err)
	}
}

func TestConfirmWithoutTokenIsRejectedWith400(t *testing.T) {
	defer teardown()
	resp, err := http.Get(server.URL + "/subscriptions/confirm")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without a token, got %d", resp.StatusCode)
	}
}

func TestConfirmWithUnknownTokenIsRejectedWith401(t *testing.T) {
	defer teardown()
	resp, err := http.Get(server.URL + "/subscriptions/confirm?subscription_token=neverissued")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for an unknown token, got %d", resp.StatusCode)
	}
}

func TestLinkReturnedBySubscribeConfirmsTheSubscriber(t *testing.T) {
	defer teardown()
	postSubscription(t, "name=BoatyMcBoatFace&email=test_user%40gmail.com")
	link := lastConfirmationLink(t)

	resp, err := http.Get(link)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected following the link to return 200, got %d", resp.StatusCode)
	}
	subscriber, err := database.GetSubscriberByEmail("test_user@gmail.com")
	if err != nil {
		t.Fatal(err)
	}
	if subscriber.Status != models.StatusConfirmed {
		t.Errorf("subscriber should be confirmed, was %s", subscriber.Status)
	}

	// Clicking the same link again must succeed as well.
	resp, err = http.Get(link)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected re-clicking the link to return 200, got %d", resp.StatusCode)
	}
}

func TestConfirmReturns500OnStorageFault(t *testing.T) {
	defer teardown()
	postSubscription(t, "name=BoatyMcBoatFace&email=test_user%40gmail.com")
	link := lastConfirmationLink(t)

	database.FailWith = fmt.Errorf("connection reset by peer")
	resp, err := http.Get(link)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500 on a storage fault, got %d", resp.StatusCode)
	}
}

func TestPing(t *testing.T) {
	for _, path := range []string{"/api/ping", "/health_check"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected %s to return 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestStats(t *testing.T) {
	defer teardown()
	postSubscription(t, "name=BoatyMcBoatFace&email=test_user%40gmail.com")
	postSubscription(t, "name=SecondPerson&email=second%40example.com")
	if err := api.Service.Confirm(tokenFromLink(t, lastConfirmationLink(t))); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(server.URL + "/api/stats")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /api/stats, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var parsed struct {
		Response db.Stats `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("stats response is not JSON: %v", err)
	}
	if parsed.Response.Pending != 1 || parsed.Response.Confirmed != 1 {
		t.Errorf("expected 1 pending and 1 confirmed, got %+v", parsed.Response)
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	token := parsed.Query().Get("subscription_token")
	if token == "" {
		t.Fatalf("link %q carries no subscription_token", link)
	}
	return token
}
