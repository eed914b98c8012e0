// Package ws pushes dashboard notifications to browser sessions.
package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

const (
	notifyPrefix = "notify:"
	screenPrefix = "screen:"
)

// UserChannel is the channel every connection of userID is subscribed to
func UserChannel(userID string) string {
	return notifyPrefix + userID
}

// ClientFrame is a control message sent by the browser
type ClientFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
}

type ack struct {
	Type    string `json:"type"`
	Ack     string `json:"ack"`
	Channel string `json:"channel,omitempty"`
}

type event struct {
	channel string
	message map[string]interface{}
}

// Hub fans published notifications out to the sessions subscribed to a
// channel. A session is always subscribed to its own user channel and may
// add screen channels.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*Conn]bool
	subs    map[string]map[*Conn]bool // channel -> connections
	publish chan event
	log     *zap.Logger
}

// Conn is one browser session
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	hub    *Hub
	userID string
	subs   map[string]bool
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns:   make(map[*Conn]bool),
		subs:    make(map[string]map[*Conn]bool),
		publish: make(chan event, sendBuffer),
		log:     log,
	}
}

// Run delivers published events until the hub is garbage. Call it once.
func (h *Hub) Run() {
	for ev := range h.publish {
		h.broadcast(ev)
	}
}

// broadcast sends under the read lock so unregister cannot close a send
// channel in between. Slow clients are dropped after the lock is released.
func (h *Hub) broadcast(ev event) {
	if h.Subscribers(ev.channel) == 0 {
		return
	}
	msg, err := json.Marshal(ev.message)
	if err != nil {
		h.log.Error("Failed to encode notification", zap.String("channel", ev.channel), zap.Error(err))
		return
	}

	var slow []*Conn
	h.mu.RLock()
	for conn := range h.subs[ev.channel] {
		select {
		case conn.send <- msg:
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		h.log.Warn("Dropping slow websocket client", zap.String("user", conn.userID))
		h.unregister(conn)
	}
}

// deliver queues msg for conn unless it was already unregistered
func (h *Hub) deliver(conn *Conn, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.conns[conn] {
		return
	}
	select {
	case conn.send <- msg:
	default:
	}
}

// Register adds conn and subscribes it to its user channel
func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
	h.Subscribe(conn, UserChannel(conn.userID))
}

func (h *Hub) unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.conns[conn] {
		return
	}
	delete(h.conns, conn)
	close(conn.send)
	for channel := range conn.subs {
		h.remove(channel, conn)
	}
}

// remove drops conn from channel. Caller holds h.mu.
func (h *Hub) remove(channel string, conn *Conn) {
	subs := h.subs[channel]
	if subs == nil {
		return
	}
	delete(subs, conn)
	if len(subs) == 0 {
		delete(h.subs, channel)
	}
}

// Subscribe adds conn to channel. Unregistered connections are ignored.
func (h *Hub) Subscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.conns[conn] {
		return
	}
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Conn]bool)
	}
	h.subs[channel][conn] = true
	conn.subs[channel] = true
}

func (h *Hub) Unsubscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(channel, conn)
	delete(conn.subs, channel)
}

// Subscribers returns the number of connections on channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Publish queues message for every subscriber of channel. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Publish(channel string, message map[string]interface{}) {
	select {
	case h.publish <- event{channel: channel, message: message}:
	default:
		h.log.Warn("Hub publish channel full, dropping event", zap.String("channel", channel))
	}
}

func NewConn(ws *websocket.Conn, hub *Hub, userID string) *Conn {
	return &Conn{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		hub:    hub,
		userID: userID,
		subs:   make(map[string]bool),
	}
}

// ReadPump reads control frames until the browser goes away, then
// unregisters the session.
func (c *Conn) ReadPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Error("WebSocket error", zap.String("user", c.userID), zap.Error(err))
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.hub.log.Warn("Failed to parse message", zap.Error(err))
			continue
		}
		c.handle(frame)
	}
}

// WritePump writes one notification per websocket frame and keeps the
// connection alive with pings.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// allowed reports whether the session may listen on channel: its own
// notifications and any screen channel.
func (c *Conn) allowed(channel string) bool {
	if strings.HasPrefix(channel, notifyPrefix) {
		return channel == UserChannel(c.userID)
	}
	return strings.HasPrefix(channel, screenPrefix)
}

func (c *Conn) handle(frame ClientFrame) {
	switch frame.Type {
	case "subscribe":
		if frame.Channel == "" {
			return
		}
		if !c.allowed(frame.Channel) {
			c.reply("denied", frame.Channel)
			return
		}
		c.hub.Subscribe(c, frame.Channel)
		c.reply("subscribed", frame.Channel)
	case "unsubscribe":
		if frame.Channel == "" {
			return
		}
		c.hub.Unsubscribe(c, frame.Channel)
		c.reply("unsubscribed", frame.Channel)
	case "ping":
		c.reply("pong", "")
	default:
		c.hub.log.Warn("Unknown message type", zap.String("type", frame.Type))
	}
}

func (c *Conn) reply(kind, channel string) {
	msg, err := json.Marshal(ack{Type: "ack", Ack: kind, Channel: channel})
	if err != nil {
		return
	}
	c.hub.deliver(c, msg)
}
