package amqp

import (
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	e := NewEvent(EntityTransaction, ActionCreated, 42)
	if e.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := EventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Entity != EntityTransaction || got.Action != ActionCreated || got.ID != 42 {
		t.Fatalf("unexpected event: %+v", got)
	}
	if !got.Timestamp.Truncate(time.Second).Equal(e.Timestamp.Truncate(time.Second)) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, e.Timestamp)
	}
}

func TestEventFromJSONInvalid(t *testing.T) {
	if _, err := EventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
