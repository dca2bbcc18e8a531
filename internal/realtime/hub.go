package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/metrics"
)

const (
	defaultPingInterval = 25 * time.Second
	defaultWriteTimeout = 5 * time.Second
	maxClientMessage    = 512
)

type HubParams struct {
	Logger       *logger.Logger
	Metrics      *metrics.NotificationMetrics
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// Hub is the in-process registry of dashboard websocket connections keyed by restaurant.
type Hub struct {
	mu           sync.RWMutex
	conns        map[string]map[*Conn]struct{}
	logg         *logger.Logger
	metrics      *metrics.NotificationMetrics
	pingInterval time.Duration
	writeTimeout time.Duration
}

// Conn is one registered websocket. gorilla allows a single concurrent writer,
// so every write goes through writeMu.
type Conn struct {
	ws           *websocket.Conn
	restaurantID string
	writeMu      sync.Mutex
	closeOnce    sync.Once
}

func NewHub(params HubParams) (*Hub, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ping := params.PingInterval
	if ping <= 0 {
		ping = defaultPingInterval
	}
	write := params.WriteTimeout
	if write <= 0 {
		write = defaultWriteTimeout
	}
	return &Hub{
		conns:        make(map[string]map[*Conn]struct{}),
		logg:         params.Logger,
		metrics:      params.Metrics,
		pingInterval: ping,
		writeTimeout: write,
	}, nil
}

// Register adds ws to restaurantID's channel.
func (h *Hub) Register(restaurantID string, ws *websocket.Conn) *Conn {
	c := &Conn{ws: ws, restaurantID: restaurantID}
	h.mu.Lock()
	set, ok := h.conns[restaurantID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[restaurantID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.AddConnections(1)
	return c
}

// Unregister removes c and closes the socket. Safe to call more than once.
func (h *Hub) Unregister(c *Conn) {
	removed := false
	h.mu.Lock()
	if set, ok := h.conns[c.restaurantID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			removed = true
		}
		if len(set) == 0 {
			delete(h.conns, c.restaurantID)
		}
	}
	h.mu.Unlock()
	if removed {
		h.metrics.AddConnections(-1)
	}
	c.closeOnce.Do(func() { _ = c.ws.Close() })
}

// EmitToRestaurant implements Dispatcher for clients connected to this process.
func (h *Hub) EmitToRestaurant(ctx context.Context, restaurantID string, payload any) error {
	raw, err := encode(payload)
	if err != nil {
		return err
	}
	h.Broadcast(ctx, restaurantID, raw)
	return nil
}

// Broadcast writes raw to every connection of restaurantID and returns how many
// writes succeeded. Failed connections are dropped.
func (h *Hub) Broadcast(ctx context.Context, restaurantID string, raw []byte) int {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns[restaurantID]))
	for c := range h.conns[restaurantID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := h.write(c, websocket.TextMessage, raw); err != nil {
			h.logg.Warn(h.logg.WithFields(ctx, map[string]any{
				"restaurant_id": restaurantID,
				"error":         err.Error(),
			}), "dropping realtime connection after failed write")
			h.Unregister(c)
			continue
		}
		delivered++
	}
	return delivered
}

// ConnectionCount reports the live connections for restaurantID.
func (h *Hub) ConnectionCount(restaurantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[restaurantID])
}

// Serve registers ws and blocks until the client goes away or ctx ends.
// Clients are read-only consumers; inbound frames other than pongs are discarded.
func (h *Hub) Serve(ctx context.Context, restaurantID string, ws *websocket.Conn) {
	c := h.Register(restaurantID, ws)
	defer h.Unregister(c)

	readWindow := 2 * h.pingInterval
	ws.SetReadLimit(maxClientMessage)
	_ = ws.SetReadDeadline(time.Now().Add(readWindow))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readWindow))
	})

	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = h.write(c, websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case <-readErr:
			return
		case <-ticker.C:
			if err := h.write(c, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*Conn, 0)
	for _, set := range h.conns {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.Unregister(c)
	}
}

func (h *Hub) write(c *Conn, messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(h.writeTimeout)
	if messageType == websocket.PingMessage || messageType == websocket.CloseMessage {
		return c.ws.WriteControl(messageType, data, deadline)
	}
	_ = c.ws.SetWriteDeadline(deadline)
	return c.ws.WriteMessage(messageType, data)
}
