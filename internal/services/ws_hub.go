package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/metrics"
	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout  = 10 * time.Second
	wsFeedTimeout   = 10 * time.Second
	MsgTypeFeed     = "feed"
	MsgTypeError    = "error"
	MsgTypeLocation = "location"
	MsgTypeUnknown  = "location_unknown"
)

// WSMessage is the envelope exchanged with live feed clients
type WSMessage struct {
	Type    string      `json:"type"`
	Lat     *float64    `json:"lat,omitempty"`
	Lng     *float64    `json:"lng,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSConn is the subset of *websocket.Conn the hub writes to
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// FeedSource loads posts once and renders them per viewer
type FeedSource interface {
	LoadPosts(ctx context.Context) ([]*models.Post, error)
	Render(posts []*models.Post, viewer *geo.Coordinates) []FeedItem
}

type feedClient struct {
	id     string
	userID string
	conn   WSConn

	// mu serializes writes and guards viewer and sentGen
	mu      sync.Mutex
	viewer  *geo.Coordinates
	sentGen uint64
}

// FeedHub manages live feed subscriptions
type FeedHub struct {
	mu      sync.RWMutex
	clients map[string]*feedClient
	source  FeedSource
	closed  bool

	// gen numbers post loads in the order they start
	gen atomic.Uint64

	changed chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewFeedHub creates a hub that renders snapshots from source and starts its broadcaster
func NewFeedHub(source FeedSource) *FeedHub {
	h := &FeedHub{
		clients: make(map[string]*feedClient),
		source:  source,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a connection and sends it an initial snapshot. It returns the client ID.
func (h *FeedHub) Register(ctx context.Context, userID string, conn WSConn, viewer *geo.Coordinates) (string, error) {
	c := &feedClient{id: uuid.New().String(), userID: userID, conn: conn, viewer: viewer}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", fmt.Errorf("feed hub is closed")
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	metrics.FeedSubscribers.Inc()
	log.Info().Str("user_id", userID).Str("client_id", c.id).Msg("Feed subscriber registered")

	h.pushSnapshot(ctx, []*feedClient{c})
	return c.id, nil
}

// Unregister closes and removes a client
func (h *FeedHub) Unregister(clientID string) {
	h.mu.Lock()
	c, exists := h.clients[clientID]
	if exists {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()

	if !exists {
		return
	}
	c.conn.Close()
	metrics.FeedSubscribers.Dec()
	log.Info().Str("user_id", c.userID).Str("client_id", clientID).Msg("Feed subscriber unregistered")
}

// SetViewer changes the client's location (nil for unknown) and pushes a fresh snapshot
func (h *FeedHub) SetViewer(ctx context.Context, clientID string, viewer *geo.Coordinates) error {
	h.mu.RLock()
	c, exists := h.clients[clientID]
	h.mu.RUnlock()
	if !exists {
		return fmt.Errorf("client %s is not connected", clientID)
	}

	c.mu.Lock()
	c.viewer = viewer
	c.mu.Unlock()

	h.pushSnapshot(ctx, []*feedClient{c})
	return nil
}

// Broadcast pushes a fresh snapshot to every client
func (h *FeedHub) Broadcast(ctx context.Context) {
	h.mu.RLock()
	clients := make([]*feedClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}
	h.pushSnapshot(ctx, clients)
}

// PostsChanged schedules a broadcast without blocking the caller.
// Signals that arrive while a broadcast is running collapse into one more broadcast.
func (h *FeedHub) PostsChanged() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *FeedHub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			return
		case <-h.changed:
			ctx, cancel := context.WithTimeout(context.Background(), wsFeedTimeout)
			h.Broadcast(ctx)
			cancel()
		}
	}
}

// SendError sends an error envelope to one client
func (h *FeedHub) SendError(clientID, message string) error {
	h.mu.RLock()
	c, exists := h.clients[clientID]
	h.mu.RUnlock()
	if !exists {
		return fmt.Errorf("client %s is not connected", clientID)
	}
	return h.send(c, WSMessage{Type: MsgTypeError, Message: message})
}

// Count returns the number of connected clients
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new registrations
func (h *FeedHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	close(h.done)
	<-h.stopped

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*feedClient)
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
		metrics.FeedSubscribers.Dec()
	}
	log.Info().Int("clients", len(clients)).Msg("Feed hub closed")
}

// pushSnapshot loads the posts once and renders them for each client.
// A client never receives a snapshot older than one it already has.
func (h *FeedHub) pushSnapshot(ctx context.Context, clients []*feedClient) {
	gen := h.gen.Add(1)
	posts, err := h.source.LoadPosts(ctx)
	if err != nil {
		log.Error().Err(err).Int("clients", len(clients)).Msg("Failed to build feed snapshot")
		for _, c := range clients {
			if err := h.send(c, WSMessage{Type: MsgTypeError, Message: "failed to load feed"}); err != nil {
				h.Unregister(c.id)
			}
		}
		return
	}

	for _, c := range clients {
		if err := h.deliver(c, gen, posts); err != nil {
			log.Warn().Err(err).Str("client_id", c.id).Msg("Failed to send feed snapshot")
			h.Unregister(c.id)
		}
	}
}

func (h *FeedHub) deliver(c *feedClient, gen uint64, posts []*models.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen <= c.sentGen {
		return nil
	}
	items := h.source.Render(posts, c.viewer)
	if err := h.write(c, WSMessage{Type: MsgTypeFeed, Data: items}); err != nil {
		return err
	}
	c.sentGen = gen
	return nil
}

func (h *FeedHub) send(c *feedClient, message WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return h.write(c, message)
}

// write requires c.mu
func (h *FeedHub) write(c *feedClient, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
