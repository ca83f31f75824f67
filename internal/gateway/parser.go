package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// phoenixMessage is one frame of the realtime wire protocol.
type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

// topicPrefix precedes the schema-qualified table name in change
// topics, e.g. "realtime:public:bets".
const topicPrefix = "realtime:"

// changePayload is the slice of a change notification the client
// cares about. Row contents are ignored; a notification only triggers
// a refetch.
type changePayload struct {
	Type string `json:"type"`
}

// parseEvent extracts a table-level change from a raw frame. ok is
// false for protocol frames (joins, replies, heartbeats) that carry
// no change.
func parseEvent(data []byte) (Change, bool, error) {
	var msg phoenixMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Change{}, false, fmt.Errorf("malformed frame: %w", err)
	}

	switch msg.Event {
	case "phx_reply", "phx_close", "phx_error", "heartbeat", "presence_state", "presence_diff":
		return Change{}, false, nil
	}

	if !strings.HasPrefix(msg.Topic, topicPrefix) {
		return Change{}, false, nil
	}

	table := msg.Topic[strings.LastIndex(msg.Topic, ":")+1:]
	if table == "" {
		return Change{}, false, fmt.Errorf("topic %q has no table", msg.Topic)
	}

	event := msg.Event
	if len(msg.Payload) > 0 {
		var p changePayload
		if err := json.Unmarshal(msg.Payload, &p); err == nil && p.Type != "" {
			event = p.Type
		}
	}

	return Change{Table: table, Event: event}, true, nil
}
