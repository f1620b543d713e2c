package telemetry

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server exposes a Hub over HTTP: GET /healthz for liveness, GET /ws to
// subscribe to the event stream. Routing uses gorilla/mux in place of the
// teacher's bare http.HandleFunc so additional endpoints (metrics, a
// snapshot-on-connect handler) can be added as path-scoped routes rather
// than growing a single ServeMux.
type Server struct {
	addr   string
	hub    *Hub
	router *mux.Router
}

// NewServer builds a Server publishing hub's events over addr.
func NewServer(addr string, hub *Hub) *Server {
	s := &Server{addr: addr, hub: hub, router: mux.NewRouter()}
	s.router.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
	return s
}

// Serve blocks, serving the Hub's event stream until the listener fails.
func (s *Server) Serve() error {
	if err := http.ListenAndServe(s.addr, s.router); err != nil {
		return fmt.Errorf("telemetry serve: %w", err)
	}
	return nil
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	c := newClient(s.hub, ws)
	s.hub.register <- c
	go c.writePump()
	c.readPump()
}
