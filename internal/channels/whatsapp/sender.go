package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const sendTimeout = 10 * time.Second

// Credentials for the Twilio Messages API. PhoneNumber is the sending
// address as configured, e.g. "whatsapp:+14155238886".
type Credentials struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// Sender delivers replies through Twilio's Messages API.
//
// The REST client is constructed on first use, not at process start, so the
// gateway can serve inbound webhooks before outbound credentials are
// available. Credentials are read through the supplied func at that point.
type Sender struct {
	creds func() Credentials

	mu     sync.Mutex
	client *twilio.RestClient
	from   string
}

func NewSender(creds func() Credentials) *Sender {
	return &Sender{creds: creds}
}

func (s *Sender) restClient() (*twilio.RestClient, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, s.from, nil
	}

	c := s.creds()
	if c.AccountSID == "" || c.AuthToken == "" || c.PhoneNumber == "" {
		return nil, "", fmt.Errorf("twilio credentials not configured")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: c.AccountSID,
		Password: c.AuthToken,
	})
	client.Client.SetTimeout(sendTimeout)

	s.client = client
	s.from = c.PhoneNumber
	return s.client, s.from, nil
}

// Send delivers text to a bare phone number, re-adding the transport prefix,
// and returns the provider message SID.
func (s *Sender) Send(_ context.Context, phoneNumber, text string) (string, error) {
	client, from, err := s.restClient()
	if err != nil {
		return "", err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetBody(text)
	params.SetFrom(from)
	params.SetTo(TransportPrefix + phoneNumber)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.Info("whatsapp message sent", "to", phoneNumber, "sid", sid)
	return sid, nil
}
