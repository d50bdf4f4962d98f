package server

import (
	"net/http"

	"finance-pipeline/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main hub loop: client registration plus fan-out of
// ingestion progress events.
func (s *APIServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case event := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- event:
				default:
					// Client too slow; prune it so the hub never blocks
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues an ingestion event for delivery to all connected clients.
// Safe to call from an ingester goroutine; drops the event if the queue is
// full rather than stalling an ingestion batch.
func (s *APIServer) Broadcast(event models.MIngestEvent) {
	select {
	case s.broadcast <- &event:
	default:
		s.Logger.Warning("Event queue full, dropping %s event", event.Type)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the hub loop
		send: make(chan *models.MIngestEvent, 64),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}
