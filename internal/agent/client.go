// Package agent calls the intelligent-agent service over HTTP.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FallbackReply is delivered when the agent call fails.
const FallbackReply = "Sorry, I'm having trouble processing your request right now."

const defaultTimeout = 10 * time.Second

// Exchange is the agent service's answer to one inbound message.
type Exchange struct {
	Response  string         `json:"response"`
	Intent    string         `json:"intent,omitempty"`
	AgentUsed string         `json:"agent_used,omitempty"`
	Entities  map[string]any `json:"entities,omitempty"`
}

type dispatchRequest struct {
	Query        string `json:"query"`
	PhoneNumber  string `json:"phone_number"`
	WhatsAppName string `json:"whatsapp_name"`
}

// Client is an HTTP client for the agent service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an agent client. The timeout bounds the whole dispatch
// call so slow agents cannot stall the webhook response.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Dispatch sends one message to the agent service. It makes exactly one
// attempt; on any failure it returns the fallback exchange together with the
// error so the caller can still deliver a reply.
func (c *Client) Dispatch(ctx context.Context, query, phoneNumber, displayName string) (*Exchange, error) {
	body, err := json.Marshal(dispatchRequest{
		Query:        query,
		PhoneNumber:  phoneNumber,
		WhatsAppName: displayName,
	})
	if err != nil {
		return fallback(), fmt.Errorf("marshal agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agent", bytes.NewReader(body))
	if err != nil {
		return fallback(), fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fallback(), fmt.Errorf("call agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fallback(), fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	var ex Exchange
	if err := json.NewDecoder(resp.Body).Decode(&ex); err != nil {
		return fallback(), fmt.Errorf("decode agent response: %w", err)
	}
	return &ex, nil
}

func fallback() *Exchange {
	return &Exchange{Response: FallbackReply}
}
