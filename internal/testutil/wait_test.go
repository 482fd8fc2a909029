package testutil

import (
	"bytes"
	"net/http"
	"testing"
	"time"
)

func TestWaitFor_ImmediateSuccess(t *testing.T) {
	t.Parallel()
	if !WaitFor(t, func() bool { return true }, WithTimeout(time.Second)) {
		t.Error("expected WaitFor to return true for immediate success")
	}
}

func TestWaitFor_EventualSuccess(t *testing.T) {
	t.Parallel()
	counter := 0
	result := WaitFor(t, func() bool {
		counter++
		return counter >= 3
	}, WithTimeout(time.Second), WithInterval(time.Millisecond))

	if !result {
		t.Error("expected WaitFor to return true for eventual success")
	}
}

func TestWaitFor_Timeout(t *testing.T) {
	t.Parallel()
	start := time.Now()
	result := WaitFor(t, func() bool { return false },
		WithTimeout(30*time.Millisecond), WithInterval(5*time.Millisecond))

	if result {
		t.Error("expected WaitFor to return false on timeout")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("returned before the timeout elapsed")
	}
}

func TestWebhook_RecordsAndQueuesStatuses(t *testing.T) {
	t.Parallel()
	w := NewWebhook(t)
	w.Respond(http.StatusInternalServerError)

	post := func() int {
		resp, err := http.Post(w.URL, "application/cloudevents+json", bytes.NewBufferString(`{"type":"x","subject":"1"}`))
		if err != nil {
			t.Fatalf("post failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(); code != http.StatusInternalServerError {
		t.Errorf("first status = %d", code)
	}
	if code := post(); code != http.StatusOK {
		t.Errorf("second status = %d", code)
	}
	if w.Attempts() != 2 {
		t.Errorf("attempts = %d", w.Attempts())
	}
	d := w.Deliveries()
	if len(d) != 1 || d[0].Event.Type != "x" {
		t.Errorf("deliveries = %+v", d)
	}
}
