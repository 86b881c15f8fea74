package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/nextlevelbuilder/warelay/internal/agent"
	"github.com/nextlevelbuilder/warelay/internal/store"
)

type fakeResolver struct {
	mu    sync.Mutex
	calls []resolveCall
	err   error
	boom  bool
}

type resolveCall struct{ phone, name string }

func (f *fakeResolver) ResolveOrCreate(_ context.Context, phone, name string) (*store.Customer, error) {
	if f.boom {
		panic("resolver blew up")
	}
	f.mu.Lock()
	f.calls = append(f.calls, resolveCall{phone, name})
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &store.Customer{PhoneNo: phone, Name: name}, nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	ex    *agent.Exchange
	err   error
}

type dispatchCall struct{ query, phone, name string }

func (f *fakeDispatcher) Dispatch(_ context.Context, query, phone, name string) (*agent.Exchange, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dispatchCall{query, phone, name})
	f.mu.Unlock()
	if f.err != nil {
		return &agent.Exchange{Response: agent.FallbackReply}, f.err
	}
	return f.ex, nil
}

type fakeSender struct {
	mu    sync.Mutex
	calls []sendCall
	err   error
}

type sendCall struct{ phone, text string }

func (f *fakeSender) Send(_ context.Context, phone, text string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sendCall{phone, text})
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "SM123", nil
}

func newTestHandler(ex *agent.Exchange) (*WebhookHandler, *fakeResolver, *fakeDispatcher, *fakeSender) {
	resolver := &fakeResolver{}
	dispatcher := &fakeDispatcher{ex: ex}
	sender := &fakeSender{}
	return NewWebhookHandler(resolver, dispatcher, sender), resolver, dispatcher, sender
}

func postForm(t *testing.T, h http.Handler, fields url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(fields.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_EndToEnd_Form(t *testing.T) {
	h, resolver, dispatcher, sender := newTestHandler(&agent.Exchange{
		Response: "Hi Ann!", Intent: "greeting", AgentUsed: "chitchat",
	})

	rec := postForm(t, h, url.Values{
		"From":        {"whatsapp:+15551234567"},
		"Body":        {"Hello"},
		"ProfileName": {"Ann"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != (resolveCall{"+15551234567", "Ann"}) {
		t.Errorf("resolver calls = %+v", resolver.calls)
	}
	if len(dispatcher.calls) != 1 || dispatcher.calls[0] != (dispatchCall{"Hello", "+15551234567", "Ann"}) {
		t.Errorf("dispatcher calls = %+v", dispatcher.calls)
	}
	if len(sender.calls) != 1 || sender.calls[0] != (sendCall{"+15551234567", "Hi Ann!"}) {
		t.Errorf("sender calls = %+v", sender.calls)
	}
}

func TestWebhook_EndToEnd_JSON(t *testing.T) {
	h, _, dispatcher, sender := newTestHandler(&agent.Exchange{Response: "Hi!"})

	rec := postJSON(t, h, `{"from":"whatsapp:+15551234567","body":"Hello","profileName":"Ann"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(dispatcher.calls) != 1 || dispatcher.calls[0].phone != "+15551234567" {
		t.Errorf("dispatcher calls = %+v", dispatcher.calls)
	}
	if len(sender.calls) != 1 {
		t.Errorf("sender calls = %+v", sender.calls)
	}
}

func TestWebhook_MissingSender(t *testing.T) {
	h, resolver, dispatcher, sender := newTestHandler(&agent.Exchange{Response: "Hi!"})

	rec := postForm(t, h, url.Values{"Body": {"Hello"}})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(resolver.calls) != 0 || len(dispatcher.calls) != 0 || len(sender.calls) != 0 {
		t.Error("downstream calls occurred for a rejected payload")
	}
}

func TestWebhook_EmptyReplySuppressesDelivery(t *testing.T) {
	for _, reply := range []string{"", "   ", "\n\t"} {
		h, _, _, sender := newTestHandler(&agent.Exchange{Response: reply})

		rec := postForm(t, h, url.Values{"From": {"whatsapp:+1555"}, "Body": {"ping"}})

		if rec.Code != http.StatusOK {
			t.Errorf("reply %q: status = %d, want 200", reply, rec.Code)
		}
		if len(sender.calls) != 0 {
			t.Errorf("reply %q: delivery attempted with %+v", reply, sender.calls)
		}
	}
}

func TestWebhook_DispatchFailureDeliversFallback(t *testing.T) {
	h, _, dispatcher, sender := newTestHandler(nil)
	dispatcher.err = errors.New("agent timeout")

	rec := postForm(t, h, url.Values{"From": {"whatsapp:+1555"}, "Body": {"ping"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(sender.calls) != 1 || sender.calls[0].text != agent.FallbackReply {
		t.Errorf("sender calls = %+v, want exactly the fallback text", sender.calls)
	}
}

func TestWebhook_DirectoryFailureContinues(t *testing.T) {
	h, resolver, dispatcher, sender := newTestHandler(&agent.Exchange{Response: "Hi!"})
	resolver.err = store.ErrUnavailable

	rec := postForm(t, h, url.Values{"From": {"whatsapp:+1555"}, "Body": {"ping"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(dispatcher.calls) != 1 {
		t.Errorf("dispatch did not run after directory failure: %+v", dispatcher.calls)
	}
	if len(sender.calls) != 1 {
		t.Errorf("delivery did not run after directory failure: %+v", sender.calls)
	}
}

func TestWebhook_DeliveryFailureStillAcknowledged(t *testing.T) {
	h, _, _, sender := newTestHandler(&agent.Exchange{Response: "Hi!"})
	sender.err = errors.New("twilio unreachable")

	rec := postForm(t, h, url.Values{"From": {"whatsapp:+1555"}, "Body": {"ping"}})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (delivery is best effort)", rec.Code)
	}
}

func TestWebhook_PanicAnswers500(t *testing.T) {
	h, resolver, _, _ := newTestHandler(&agent.Exchange{Response: "Hi!"})
	resolver.boom = true

	rec := postForm(t, h, url.Values{"From": {"whatsapp:+1555"}, "Body": {"ping"}})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestWebhook_UnparseableJSON(t *testing.T) {
	h, resolver, _, _ := newTestHandler(&agent.Exchange{Response: "Hi!"})

	rec := postJSON(t, h, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(resolver.calls) != 0 {
		t.Error("pipeline ran on unparseable payload")
	}
}

func TestWebhook_GetReadinessProbe(t *testing.T) {
	h, _, _, _ := newTestHandler(&agent.Exchange{Response: "Hi!"})

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ready") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	h, _, _, _ := newTestHandler(&agent.Exchange{Response: "Hi!"})

	req := httptest.NewRequest(http.MethodDelete, "/webhook", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
