package domain

import "encoding/json"

// UnknownPayload holds an event type and its raw payload bytes,
// un-interpreted. Nothing in this package constructs it: the LoadFromHistory
// switches skip event types they do not recognize, so a new event version
// never breaks replay, but its payload is not kept anywhere.
type UnknownPayload struct {
	EventType string
	Raw       []byte
}

// DecodePayload unmarshals raw event payload bytes into dst. Callers supply
// a pointer to the tagged variant struct matching the event's type; on
// unmarshal failure the caller should fall back to UnknownPayload rather
// than surfacing a decode error, since a malformed historical payload must
// not halt a projection.
func DecodePayload(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
