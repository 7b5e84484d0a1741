package websocket

import "encoding/json"

// Event channel names shared with the browser client.
const (
	EventSendChanges        = "SEND_CHANGES"
	EventReceiveChanges     = "RECEIVE_CHANGES"
	EventCurrentUsersUpdate = "CURRENT_USERS_UPDATE"
)

// Envelope is the wire frame for every socket message. Payload stays raw:
// the relay never inspects content trees.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}
