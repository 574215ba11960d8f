package service

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const monitorSendBufferSize = 32

// MonitorOptions wraps metadata extracted during the HTTP upgrade.
type MonitorOptions struct {
	ExamID        uuid.UUID
	AcademyID     uuid.UUID
	CorrelationID string
}

// MonitorService streams attempt lifecycle events to staff over websocket so
// a proctor can watch an exam in flight. It doubles as an EventSink.
type MonitorService interface {
	EventSink
	ServeConnection(conn *websocket.Conn, opts MonitorOptions)
}

type monitorService struct {
	mu      sync.RWMutex
	clients map[*monitorClient]struct{}
	logger  zerolog.Logger
}

type monitorClient struct {
	conn    *websocket.Conn
	send    chan AttemptEvent
	options MonitorOptions
	once    sync.Once
	closed  chan struct{}
}

// NewMonitorService creates the monitor hub.
func NewMonitorService(logger zerolog.Logger) MonitorService {
	return &monitorService{
		clients: make(map[*monitorClient]struct{}),
		logger:  logger.With().Str("component", "monitor_service").Logger(),
	}
}

// Publish fans the event out to every subscriber watching its exam.
func (s *monitorService) Publish(_ context.Context, event AttemptEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients {
		if client.options.ExamID != uuid.Nil && client.options.ExamID != event.ExamID {
			continue
		}
		select {
		case client.send <- event:
		default:
			s.logger.Debug().
				Str("exam_id", event.ExamID.String()).
				Msg("dropping monitor event for slow consumer")
		}
	}
}

// ServeConnection pumps events to the websocket until the peer disconnects.
func (s *monitorService) ServeConnection(conn *websocket.Conn, opts MonitorOptions) {
	client := &monitorClient{
		conn:    conn,
		send:    make(chan AttemptEvent, monitorSendBufferSize),
		options: opts,
		closed:  make(chan struct{}),
	}

	s.register(client)
	defer s.unregister(client)

	go client.writer()
	client.reader()
}

func (s *monitorService) register(client *monitorClient) {
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
}

func (s *monitorService) unregister(client *monitorClient) {
	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
	client.close()
}

func (c *monitorClient) close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

func (c *monitorClient) writer() {
	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				c.close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// reader drains control frames; the monitor feed accepts no client commands.
func (c *monitorClient) reader() {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
