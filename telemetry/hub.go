// Package telemetry implements the live event stream described in §2's
// AMBIENT STACK: a multi-client websocket broadcast of JSON-encoded run
// events (ticks, collected rows, ensemble progress), grounded on the
// teacher's server.go websocket plumbing (ping/pong timing constants,
// channerics-driven ticker, gorilla/websocket upgrade) but generalized from
// its single-client assumption ("this currently assumes this handler is
// hit only once, one client" — server.go) to a proper Hub fanning events
// out to any number of subscribers, each on its own slow-client-dropping
// buffer. This is explicitly not a renderer or visualization layer (per
// the spec's Non-goals): it moves JSON bytes, nothing more.
package telemetry

import "time"

const (
	writeWait        = 1 * time.Second
	maxMessageSize   = 8192
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	clientSendBuffer = 16
)

// Event is one published run occurrence: a tick boundary, a collected
// frame row, an ensemble-member completion, or any other domain event the
// caller chooses to publish. Kind names the event for client-side
// dispatch; Payload is whatever JSON-marshalable value accompanies it.
type Event struct {
	Tick    int         `json:"tick"`
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
}

// Hub fans published Events out to every currently connected client,
// dropping events for any client whose send buffer is full rather than
// blocking the publisher — the multi-client generalization of the
// teacher's single-channel rootView.Updates().
type Hub struct {
	publish    chan Event
	register   chan *client
	unregister chan *client
	clients    map[*client]struct{}
	done       chan struct{}
}

// NewHub constructs a Hub and starts its broadcast loop; call Close to
// stop it.
func NewHub() *Hub {
	h := &Hub{
		publish:    make(chan Event, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Publish broadcasts event to every connected client. Never blocks on a
// slow client; a full client buffer simply drops the event for that
// client.
func (h *Hub) Publish(event Event) {
	select {
	case h.publish <- event:
	case <-h.done:
	}
}

// Close stops the broadcast loop and disconnects all clients.
func (h *Hub) Close() {
	close(h.done)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				c.close()
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
			}
		case event := <-h.publish:
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// Slow client: drop this event rather than block the publisher
					// or every other subscriber.
				}
			}
		}
	}
}
