package stream

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/export"
	"github.com/san-kum/clothsim/internal/sim"
)

const writeWait = 2 * time.Second

// Control is a message a client may send to steer the run.
type Control struct {
	Paused *bool `json:"paused,omitempty"`
	Reset  bool  `json:"reset,omitempty"`
}

// Hub broadcasts cloth frames to every connected websocket client. New
// clients first receive the latest frame together with the index buffer.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger
	every    uint64
	binary   bool
	pool     *sim.BufferPool

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	frameMu sync.RWMutex
	latest  *export.Frame
	indices []uint32

	stateMu sync.Mutex
	paused  bool
	reset   bool
}

type Option func(*Hub)

func WithLogger(l *log.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithEvery broadcasts only every n-th tick.
func WithEvery(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.every = uint64(n)
		}
	}
}

// WithBinary broadcasts ticks as raw little-endian float32 vertex buffers
// (cloth.VertexStride values per vertex) instead of JSON.
func WithBinary() Option {
	return func(h *Hub) { h.binary = true }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  log.New(io.Discard),
		every:   1,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnStep records the cloth state and broadcasts it on every n-th tick.
func (h *Hub) OnStep(c *cloth.Clothe, t float64) {
	if c.Ticks()%h.every != 0 {
		return
	}
	h.Publish(c, t)
}

// Publish records the cloth state and sends it to every client.
func (h *Hub) Publish(c *cloth.Clothe, t float64) {
	frame := export.NewFrame(c, t, false)

	h.frameMu.Lock()
	h.latest = &frame
	if h.indices == nil {
		h.indices = c.Indices()
	}
	if h.binary && h.pool == nil {
		h.pool = sim.NewBufferPool(c.VertexCount())
	}
	h.frameMu.Unlock()

	if h.binary {
		buf := h.pool.Fill(c)
		data := make([]byte, 4*len(buf))
		for i, v := range buf {
			binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
		}
		h.pool.Put(buf)
		h.broadcast(websocket.BinaryMessage, data)
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("encode frame", "err", err)
		return
	}
	h.broadcast(websocket.TextMessage, data)
}

func (h *Hub) broadcast(kind int, data []byte) {

	h.clientsMu.RLock()
	var dead []*websocket.Conn
	for conn, mu := range h.clients {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(kind, data)
		mu.Unlock()
		if err != nil {
			dead = append(dead, conn)
		}
	}
	h.clientsMu.RUnlock()

	for _, conn := range dead {
		h.logger.Debug("dropping client", "remote", conn.RemoteAddr())
		h.remove(conn)
		conn.Close()
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMu.Lock()
	delete(h.clients, conn)
	h.clientsMu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Paused() bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.paused
}

// TakeReset reports whether a client asked for a reset since the last call.
func (h *Hub) TakeReset() bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	r := h.reset
	h.reset = false
	return r
}

// Latest returns the most recent frame with the index buffer attached.
func (h *Hub) Latest() (export.Frame, bool) {
	h.frameMu.RLock()
	defer h.frameMu.RUnlock()
	if h.latest == nil {
		return export.Frame{}, false
	}
	f := *h.latest
	f.Indices = h.indices
	return f, true
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	mu := &sync.Mutex{}
	h.clientsMu.Lock()
	h.clients[conn] = mu
	h.clientsMu.Unlock()
	defer h.remove(conn)

	h.logger.Info("client connected", "remote", conn.RemoteAddr())

	if frame, ok := h.Latest(); ok {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteJSON(frame)
		mu.Unlock()
		if err != nil {
			return
		}
	}

	for {
		var msg Control
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read", "err", err)
			}
			return
		}
		h.apply(msg)
	}
}

func (h *Hub) apply(msg Control) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if msg.Paused != nil {
		h.paused = *msg.Paused
		h.logger.Info("pause", "paused", h.paused)
	}
	if msg.Reset {
		h.reset = true
	}
}

// Handler routes /ws to the hub and /frame to the latest frame as JSON.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		frame, ok := h.Latest()
		if !ok {
			http.Error(w, "no frame yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(frame)
	})
	return mux
}
