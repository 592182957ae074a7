package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType names a timetable change.
type EventType string

const (
	EventSessionCreated       EventType = "session.created"
	EventSessionUpdated       EventType = "session.updated"
	EventSessionStatusChanged EventType = "session.status_changed"
	EventSessionCancelled     EventType = "session.cancelled"
)

// AllPrograms is the subscription key for clients watching every program.
const AllPrograms int64 = 0

// Event is pushed to subscribers when a session changes.
type Event struct {
	Type      EventType   `json:"type"`
	SessionID int64       `json:"sessionId"`
	ProgramID int64       `json:"programId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub keeps timetable subscribers grouped by program and fans events out to them.
type Hub struct {
	// Registered clients organized by program ID
	clients map[int64]map[*Client]bool

	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[int64]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.programID]; !ok {
		h.clients[client.programID] = make(map[*Client]bool)
	}
	h.clients[client.programID][client] = true

	h.logger.Info().
		Int64("programID", client.programID).
		Int64("userID", client.userID).
		Msg("Timetable subscriber registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	group, ok := h.clients[client.programID]
	if !ok {
		return
	}
	if _, ok := group[client]; !ok {
		return
	}

	delete(group, client)
	close(client.send)
	if len(group) == 0 {
		delete(h.clients, client.programID)
	}

	h.logger.Info().
		Int64("programID", client.programID).
		Int64("userID", client.userID).
		Msg("Timetable subscriber unregistered")
}

// broadcastEvent delivers to the event's program and to AllPrograms
// subscribers. Clients whose buffer is full are dropped.
func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Int64("sessionID", event.SessionID).Msg("Failed to marshal timetable event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := []int64{AllPrograms}
	if event.ProgramID != AllPrograms {
		targets = append(targets, event.ProgramID)
	}

	delivered := 0
	for _, programID := range targets {
		for client := range h.clients[programID] {
			select {
			case client.send <- data:
				delivered++
			default:
				h.logger.Warn().Int64("userID", client.userID).Msg("Dropping slow timetable subscriber")
				h.removeLocked(client)
			}
		}
	}

	h.logger.Debug().
		Str("type", string(event.Type)).
		Int64("programID", event.ProgramID).
		Int("delivered", delivered).
		Msg("Timetable event broadcast")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, group := range h.clients {
		for client := range group {
			h.removeLocked(client)
		}
	}
}

// Publish queues event for delivery. It never blocks the caller; when the
// queue is full the event is dropped and logged.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- &event:
	default:
		h.logger.Warn().Str("type", string(event.Type)).Int64("sessionID", event.SessionID).Msg("Timetable event queue full, dropping event")
	}
}

// Done is closed once Run has returned and every client is closed.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of subscribers for a program key.
func (h *Hub) ClientCount(programID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[programID])
}
