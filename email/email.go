// Package email delivers notifications over SMTP. It carries no
// subscription logic of its own: callers hand it a recipient, a subject and
// two renderings of the body, and it either delivers or reports failure.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/inkpost/newsletter-backend/models"
	"github.com/inkpost/newsletter-backend/util"
)

// Config stores variables needed to submit emails for sending.
type Config struct {
	auth               smtp.Auth
	username           string
	password           string
	submissionHostname string
	port               string
	sender             string
}

// MakeConfigFromEnv initializes our email config object with environment
// variables, and establishes the auth handshake with the SMTP server.
// On any failure the returned Config is zero, so Send falls back to logging
// rather than submitting to a host whose negotiation never completed.
func MakeConfigFromEnv() (Config, error) {
	varErrs := util.Errors{}
	c := Config{
		username:           util.RequireEnv("SMTP_USERNAME", &varErrs),
		password:           util.RequireEnv("SMTP_PASSWORD", &varErrs),
		submissionHostname: util.RequireEnv("SMTP_ENDPOINT", &varErrs),
		port:               util.RequireEnv("SMTP_PORT", &varErrs),
		sender:             util.RequireEnv("SMTP_FROM_ADDRESS", &varErrs),
	}
	if len(varErrs) > 0 {
		return Config{}, varErrs
	}
	log.Printf("Establishing auth connection with SMTP server %s", c.submissionHostname)
	client, err := smtp.Dial(fmt.Sprintf("%s:%s", c.submissionHostname, c.port))
	if err != nil {
		return Config{}, err
	}
	defer client.Close()
	err = client.StartTLS(&tls.Config{ServerName: c.submissionHostname})
	if err != nil {
		return Config{}, fmt.Errorf("SMTP server doesn't support STARTTLS")
	}
	ok, auths := client.Extension("AUTH")
	if !ok {
		return Config{}, fmt.Errorf("remote SMTP server doesn't support any authentication mechanisms")
	}
	if strings.Contains(auths, "PLAIN") {
		c.auth = smtp.PlainAuth("", c.username, c.password, c.submissionHostname)
	} else if strings.Contains(auths, "CRAM-MD5") {
		c.auth = smtp.CRAMMD5Auth(c.username, c.password)
	} else {
		return Config{}, fmt.Errorf("SMTP server doesn't support PLAIN or CRAM-MD5 authentication")
	}
	return c, nil
}

// Send delivers a single message with an HTML and a plain-text rendering as
// multipart/alternative. If no SMTP host is configured the message is logged
// instead of sent, which keeps local development senderless.
func (c Config) Send(recipient models.Email, subject string, htmlBody string, textBody string) error {
	message, err := buildMessage(c.sender, recipient.String(), subject, htmlBody, textBody)
	if err != nil {
		return err
	}
	if c.submissionHostname == "" {
		log.Println("Warning: email host not configured, not sending email")
		log.Println(string(message))
		return nil
	}
	return smtp.SendMail(fmt.Sprintf("%s:%s", c.submissionHostname, c.port),
		c.auth,
		c.sender, []string{recipient.String()}, message)
}

func buildMessage(from string, to string, subject string, htmlBody string, textBody string) ([]byte, error) {
	var buf bytes.Buffer
	alt := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", alt.Boundary())
	// Plain text first: clients pick the last part they can render.
	part, err := alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprint(part, textBody)
	part, err = alt.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprint(part, htmlBody)
	if err := alt.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
