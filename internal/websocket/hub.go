// Package gymws pushes gym congestion changes to connected clients.
package gymws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/wdv96wdv/Doclimb/internal/gymlist"
	"github.com/wdv96wdv/Doclimb/internal/models"
)

const (
	FrameView       = "view"
	FrameGymUpdated = "gym_updated"
	FrameError      = "error"

	frameFilter = "filter"
	framePage   = "page"
)

type snapshotter interface {
	Snapshot() []models.Gym
}

// Hub owns every connected client. Its state is only touched from Run.
type Hub struct {
	gyms       snapshotter
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.Gym
	inbound    chan inbound
	done       chan struct{}
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	browser *gymlist.Browser
	send    chan []byte
}

// Frame is everything the hub writes to a client.
type Frame struct {
	Type    string          `json:"type"`
	Gym     *models.Gym     `json:"gym,omitempty"`
	View    *gymlist.Page   `json:"view,omitempty"`
	Filter  *gymlist.Filter `json:"filter,omitempty"`
	Message string          `json:"message,omitempty"`
}

type inbound struct {
	client  *Client
	payload []byte
}

type request struct {
	Type   string          `json:"type"`
	Query  string          `json:"query"`
	Status json.RawMessage `json:"status"`
	Page   int             `json:"page"`
}

func NewHub(gyms snapshotter) *Hub {
	return &Hub{
		gyms:       gyms,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.Gym, 64),
		inbound:    make(chan inbound, 64),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		browser: gymlist.NewBrowser(gymlist.MemberPageSize),
		send:    make(chan []byte, 32),
	}
}

// Run serves the hub until ctx ends, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.sendView(client)
		case client := <-h.unregister:
			h.drop(client)
		case gym := <-h.broadcast:
			h.deliver(gym)
		case msg := <-h.inbound:
			h.handle(msg.client, msg.payload)
		}
	}
}

// BroadcastGym queues a changed gym for every client. It never blocks; a
// full queue drops the change.
func (h *Hub) BroadcastGym(gym models.Gym) {
	select {
	case h.broadcast <- gym:
	default:
		slog.Warn("gym_broadcast_dropped", "gym_id", gym.ID)
	}
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Serve runs one websocket connection until it closes.
func (h *Hub) Serve(conn *websocket.Conn) {
	client := NewClient(h, conn)
	if !h.Register(client) {
		_ = conn.Close()
		return
	}
	go client.WritePump()
	client.ReadPump()
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) deliver(gym models.Gym) {
	updated, err := json.Marshal(Frame{Type: FrameGymUpdated, Gym: &gym})
	if err != nil {
		slog.Error("gym_frame_encode_failed", "error", err)
		return
	}
	for client := range h.clients {
		if h.push(client, updated) {
			h.sendView(client)
		}
	}
}

func (h *Hub) handle(client *Client, payload []byte) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	var req request
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(client, "invalid message payload")
		return
	}

	switch req.Type {
	case frameFilter:
		status, ok := gymlist.ParseStatus(strings.Trim(string(req.Status), `"`))
		if !ok {
			h.sendError(client, "status must be all or 0-3")
			return
		}
		client.browser.SetFilter(gymlist.Filter{Query: req.Query, Status: status})
	case framePage:
		client.browser.SetPage(req.Page)
	default:
		h.sendError(client, "unsupported message type")
		return
	}
	h.sendView(client)
}

func (h *Hub) sendView(client *Client) {
	view := client.browser.View(h.gyms.Snapshot())
	filter := client.browser.Filter()
	payload, err := json.Marshal(Frame{Type: FrameView, View: &view, Filter: &filter})
	if err != nil {
		slog.Error("gym_frame_encode_failed", "error", err)
		return
	}
	h.push(client, payload)
}

func (h *Hub) sendError(client *Client, message string) {
	payload, err := json.Marshal(Frame{Type: FrameError, Message: message})
	if err != nil {
		return
	}
	h.push(client, payload)
}

// push hands a frame to a client, dropping clients that cannot keep up.
func (h *Hub) push(client *Client, payload []byte) bool {
	select {
	case client.send <- payload:
		return true
	default:
		h.drop(client)
		return false
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case c.hub.inbound <- inbound{client: c, payload: payload}:
		case <-c.hub.done:
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
