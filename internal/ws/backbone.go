package ws

import "encoding/json"

// Envelope is one fan-out forwarded between nodes.
type Envelope struct {
	Node   string          `json:"node"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Except string          `json:"except,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// Backbone carries fan-out to the other nodes of a deployment. Publish must
// not block the caller.
type Backbone interface {
	Publish(env Envelope)
}

// ApplyRemote delivers an envelope published by another node to the local
// members of its room. Envelopes from this node are ignored.
func (h *Hub) ApplyRemote(env Envelope) {
	if env.Node == h.nodeID {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitLocked(env.Room, env.Event, env.Frame, env.Except)
}
