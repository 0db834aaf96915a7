package signaling

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"PokerAssist/pkg/http/middleware"
	xlogger "PokerAssist/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	defaultSendQueue = 64
	maxFrameSize     = 64 * 1024
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	writeWait        = 10 * time.Second
)

type frame struct {
	kind int
	data []byte
}

type peer struct {
	id   string
	room string
	conn *websocket.Conn
	send chan frame
	done chan struct{}
	once sync.Once
}

func (p *peer) close() { p.once.Do(func() { close(p.done) }) }

// Relay forwards WebSocket frames between peers of the same room, e.g. for WebRTC offer/answer exchange.
// Frames are not inspected.
type Relay struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]*peer
	logger   *xlogger.Logger
	upgrader websocket.Upgrader
	queue    int
	limiter  middleware.Allower
}

type Option func(*Relay)

// WithSendQueue bounds the frames buffered per peer; a peer whose queue is full is disconnected.
func WithSendQueue(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.queue = n
		}
	}
}

func WithLogger(l *xlogger.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l.With(xlogger.String("component", "signaling"))
		}
	}
}

func WithRateLimit(a middleware.Allower) Option {
	return func(r *Relay) { r.limiter = a }
}

func NewRelay(opts ...Option) *Relay {
	r := &Relay{
		rooms:  make(map[string]map[string]*peer),
		logger: xlogger.NewNop(),
		queue:  defaultSendQueue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) RegisterRoutes(e *echo.Echo) {
	var mws []echo.MiddlewareFunc
	if r.limiter != nil {
		mws = append(mws, middleware.RateLimit(r.limiter))
	}
	mws = append(mws, middleware.RequireBearer())
	e.GET("/v1/signal/:room", r.Join, mws...)
}

// Join upgrades the request and attaches the connection to the room named in the path.
func (r *Relay) Join(c echo.Context) error {
	room := strings.TrimSpace(c.Param("room"))
	if room == "" {
		return c.NoContent(http.StatusBadRequest)
	}
	conn, err := r.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		r.logger.Warn("signal upgrade failed", xlogger.Error(err))
		return nil
	}

	p := &peer{
		id:   uuid.NewString(),
		room: room,
		conn: conn,
		send: make(chan frame, r.queue),
		done: make(chan struct{}),
	}
	r.join(p)
	r.logger.Debug("signal peer joined", xlogger.String("room", room), xlogger.String("peer", p.id))

	go r.writePump(p)
	go r.readPump(p)
	return nil
}

func (r *Relay) join(p *peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers, ok := r.rooms[p.room]
	if !ok {
		peers = make(map[string]*peer)
		r.rooms[p.room] = peers
	}
	peers[p.id] = p
}

func (r *Relay) leave(p *peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peers, ok := r.rooms[p.room]
	if !ok {
		return
	}
	delete(peers, p.id)
	if len(peers) == 0 {
		delete(r.rooms, p.room)
	}
}

// broadcast queues f for every other peer of the sender's room.
func (r *Relay) broadcast(from *peer, f frame) {
	var slow []*peer
	r.mu.RLock()
	for id, q := range r.rooms[from.room] {
		if id == from.id {
			continue
		}
		select {
		case q.send <- f:
		default:
			slow = append(slow, q)
		}
	}
	r.mu.RUnlock()

	for _, q := range slow {
		r.logger.Warn("signal peer too slow, disconnecting", xlogger.String("room", q.room), xlogger.String("peer", q.id))
		r.leave(q)
		q.close()
	}
}

func (r *Relay) readPump(p *peer) {
	defer func() {
		r.leave(p)
		p.close()
		_ = p.conn.Close()
		r.logger.Debug("signal peer left", xlogger.String("room", p.room), xlogger.String("peer", p.id))
	}()

	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn("signal read error", xlogger.String("peer", p.id), xlogger.Error(err))
			}
			return
		}
		r.broadcast(p, frame{kind: kind, data: data})
	}
}

func (r *Relay) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case f := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(f.kind, f.data); err != nil {
				p.close()
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.close()
				return
			}
		case <-p.done:
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// Peers reports the number of peers connected to room.
func (r *Relay) Peers(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Rooms reports the number of rooms with at least one peer.
func (r *Relay) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close disconnects every peer. Hijacked connections are not closed by the HTTP server shutdown.
func (r *Relay) Close() {
	r.mu.Lock()
	var all []*peer
	for _, peers := range r.rooms {
		for _, p := range peers {
			all = append(all, p)
		}
	}
	r.rooms = make(map[string]map[string]*peer)
	r.mu.Unlock()

	for _, p := range all {
		p.close()
	}
}
