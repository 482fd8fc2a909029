package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"spidertrigger/pkg/cloudevent"
	"sync"
	"testing"
)

// Delivery is one request received by a Webhook.
type Delivery struct {
	Event     cloudevent.CloudEvent
	Body      []byte
	Signature string
}

// Webhook is an httptest server that records CloudEvent deliveries.
// Status codes queued with Respond are returned in order, then 200.
type Webhook struct {
	*httptest.Server

	mu         sync.Mutex
	deliveries []Delivery
	statuses   []int
	attempts   int
}

// NewWebhook starts a recording webhook closed at test cleanup.
func NewWebhook(tb testing.TB) *Webhook {
	tb.Helper()
	w := &Webhook{}
	w.Server = httptest.NewServer(http.HandlerFunc(w.handle))
	tb.Cleanup(w.Close)
	return w
}

// Respond queues status codes for the next requests.
func (w *Webhook) Respond(codes ...int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.statuses = append(w.statuses, codes...)
}

// Deliveries returns the successfully accepted deliveries.
func (w *Webhook) Deliveries() []Delivery {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Delivery(nil), w.deliveries...)
}

// Attempts returns every request received, accepted or not.
func (w *Webhook) Attempts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts
}

func (w *Webhook) handle(rw http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts++

	status := http.StatusOK
	if len(w.statuses) > 0 {
		status = w.statuses[0]
		w.statuses = w.statuses[1:]
	}
	if status < 300 {
		d := Delivery{Body: body, Signature: r.Header.Get(cloudevent.SignatureHeader)}
		_ = json.Unmarshal(body, &d.Event)
		w.deliveries = append(w.deliveries, d)
	}
	rw.WriteHeader(status)
}
