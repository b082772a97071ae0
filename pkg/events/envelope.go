package events

import (
	"encoding/json"
	"time"
)

// envelope is the wire form shared by the in-process bus and the NATS bridge.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func Marshal(event Event) ([]byte, error) {
	return json.Marshal(envelope{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	})
}

func Unmarshal(data []byte) (BaseEvent, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return BaseEvent{}, err
	}
	if e.Data == nil {
		e.Data = map[string]interface{}{}
	}
	return BaseEvent{Type: e.Type, Data: e.Data, OccurredAt: e.OccurredAt}, nil
}
