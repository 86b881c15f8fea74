package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/warelay/internal/agent"
	"github.com/nextlevelbuilder/warelay/internal/channels/whatsapp"
	"github.com/nextlevelbuilder/warelay/internal/store"
)

// CustomerResolver resolves a sender phone number to a customer record.
type CustomerResolver interface {
	ResolveOrCreate(ctx context.Context, phone, displayName string) (*store.Customer, error)
}

// Dispatcher forwards one message to the agent service. Implementations
// always return a usable exchange; a non-nil error marks it as the fallback.
type Dispatcher interface {
	Dispatch(ctx context.Context, query, phoneNumber, displayName string) (*agent.Exchange, error)
}

// ReplySender delivers an outbound reply through the messaging gateway.
type ReplySender interface {
	Send(ctx context.Context, phoneNumber, text string) (string, error)
}

// WebhookHandler runs the inbound pipeline for one Twilio webhook:
// normalize → resolve customer → dispatch to agent → deliver reply.
// Requests are independent; the only shared state is the injected clients.
type WebhookHandler struct {
	directory CustomerResolver
	agent     Dispatcher
	sender    ReplySender
	tracer    trace.Tracer
}

func NewWebhookHandler(directory CustomerResolver, dispatcher Dispatcher, sender ReplySender) *WebhookHandler {
	return &WebhookHandler{
		directory: directory,
		agent:     dispatcher,
		sender:    sender,
		tracer:    otel.Tracer("warelay/gateway"),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Readiness probe used when registering the webhook URL with Twilio.
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Twilio WhatsApp webhook is ready!")
		return
	case http.MethodPost:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Twilio has delivery semantics of its own; a pipeline bug must answer
	// 500 rather than kill the serving process.
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("webhook pipeline panic", "panic", rec)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}()

	fields, err := parsePayload(r)
	if err != nil {
		slog.Warn("unreadable webhook payload", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	msg, err := whatsapp.Normalize(fields)
	if err != nil {
		slog.Warn("webhook rejected", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.process(r.Context(), msg)

	// 200 acknowledges receipt only; downstream failures have already been
	// degraded or logged by this point.
	w.WriteHeader(http.StatusOK)
}

// process runs the pipeline stages strictly in sequence for one message.
func (h *WebhookHandler) process(ctx context.Context, msg whatsapp.InboundMessage) {
	ctx, span := h.tracer.Start(ctx, "webhook.process",
		trace.WithAttributes(attribute.String("whatsapp.sender", msg.From)))
	defer span.End()

	slog.Info("processing whatsapp message", "from", msg.From, "preview", truncate(msg.Body, 50))

	if _, err := h.directory.ResolveOrCreate(ctx, msg.From, msg.ProfileName); err != nil {
		// Degrade and continue: the message is still dispatched without a
		// resolved customer record.
		slog.Error("customer resolution failed, continuing", "from", msg.From, "error", err)
	}

	ex, err := h.agent.Dispatch(ctx, msg.Body, msg.From, msg.ProfileName)
	if err != nil {
		slog.Error("agent dispatch failed, using fallback reply", "from", msg.From, "error", err)
	}

	if strings.TrimSpace(ex.Response) == "" {
		slog.Info("agent returned empty reply, delivery skipped", "from", msg.From)
		span.SetAttributes(attribute.Bool("delivery.skipped", true))
		return
	}

	if _, err := h.sender.Send(ctx, msg.From, ex.Response); err != nil {
		// Twilio already got its acknowledgment; delivery is best effort.
		slog.Error("reply delivery failed", "to", msg.From, "error", err)
	}
}

// parsePayload flattens a JSON or form-encoded webhook body into a string
// map. Twilio posts form-encoded; JSON arrives from relays and test tooling.
func parsePayload(r *http.Request) (map[string]string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json payload: %w", err)
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				fields[k] = val
			case float64:
				fields[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				fields[k] = strconv.FormatBool(val)
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form payload: %w", err)
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
