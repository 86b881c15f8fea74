// Package whatsapp adapts Twilio's WhatsApp transport: inbound webhook
// payload normalization and outbound message delivery.
package whatsapp

import (
	"errors"
	"strings"

	"github.com/nextlevelbuilder/warelay/internal/store"
)

// TransportPrefix is Twilio's scheme token on WhatsApp addresses.
const TransportPrefix = "whatsapp:"

// ErrMissingSender means the payload carried no From field under any casing.
var ErrMissingSender = errors.New("webhook payload has no sender field")

// InboundMessage is the canonical form of one Twilio webhook event.
type InboundMessage struct {
	From        string // bare phone number, transport prefix stripped
	Body        string
	ProfileName string
}

// Normalize maps provider payload fields into an InboundMessage. Twilio
// delivers both PascalCase (form webhooks) and lowercase (JSON relays)
// variants of the same logical fields, so key matching is case-insensitive.
// A missing sender is the only hard failure; an empty body is accepted.
func Normalize(fields map[string]string) (InboundMessage, error) {
	from := field(fields, "From")
	if from == "" {
		return InboundMessage{}, ErrMissingSender
	}

	msg := InboundMessage{
		From:        strings.TrimPrefix(from, TransportPrefix),
		Body:        field(fields, "Body"),
		ProfileName: field(fields, "ProfileName"),
	}
	if msg.ProfileName == "" {
		msg.ProfileName = store.DefaultDisplayName
	}
	return msg, nil
}

// field returns the value for name, matching keys case-insensitively.
// An exact-case hit wins over a scan.
func field(fields map[string]string, name string) string {
	if v := fields[name]; v != "" {
		return v
	}
	for k, v := range fields {
		if v != "" && strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
