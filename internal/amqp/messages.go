package amqp

import (
	"encoding/json"
	"time"
)

// Entity names carried by lifecycle events.
const (
	EntityCategory    = "categoria"
	EntityTransaction = "transacao"
)

// Actions carried by lifecycle events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is a lightweight record-lifecycle message. Consumers fetch the full
// record from the database by id; deleted records carry the id only.
type Event struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(entity, action string, id int64) *Event {
	return &Event{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
