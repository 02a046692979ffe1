package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/internal/core/session"
	"drawboard/pkg/tracing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const sendBuffer = 64

// Outbound message types.
const (
	TypeState  = "state"
	TypeAction = "action"
	TypeError  = "error"
)

// ConnObserver receives connection and traffic counts.
type ConnObserver interface {
	ClientConnected()
	ClientDisconnected()
	MessageReceived()
	MessageSent()
}

type Options struct {
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxMessageSize    int64
	MessagesPerSecond float64 // zero disables per-connection limiting
	Burst             int
	AllowedOrigins    []string
}

// ServerMessage is everything the hub writes to a client.
type ServerMessage struct {
	Type    string               `json:"type"`
	Seq     uint64               `json:"seq,omitempty"`
	State   *domain.SessionState `json:"state,omitempty"`
	Action  *session.Envelope    `json:"action,omitempty"`
	Status  *domain.Status       `json:"status,omitempty"`
	Message string               `json:"message,omitempty"`
}

// WebSocketServer pushes the board to connected clients and feeds the
// actions they send back into the board.
type WebSocketServer struct {
	store    *session.Store
	board    ports.BoardService
	opts     Options
	upgrader websocket.Upgrader
	observer ConnObserver
	logger   *zap.SugaredLogger

	mu          sync.RWMutex
	clients     map[*client]struct{}
	unsubscribe func()
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter
	userID    string
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// NewWebSocketServer builds the hub. observer may be nil.
func NewWebSocketServer(store *session.Store, board ports.BoardService, opts Options, observer ConnObserver, logger *zap.SugaredLogger) *WebSocketServer {
	s := &WebSocketServer{
		store:    store,
		board:    board,
		opts:     opts,
		observer: observer,
		logger:   logger,
		clients:  make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return s
}

// Start subscribes the hub to the store.
func (s *WebSocketServer) Start() error {
	unsubscribe, err := s.store.Subscribe(s.broadcast)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

// Close unsubscribes and disconnects every client.
func (s *WebSocketServer) Close() {
	// the store lock is always taken before ours, so unsubscribe outside it
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
}

func (s *WebSocketServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin)
}

// HandleWebSocket upgrades the request and serves the client until it
// disconnects. userID is only used for logs and spans.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
	}
	if s.opts.MessagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(s.opts.MessagesPerSecond), s.opts.Burst)
	}

	if err := s.register(c); err != nil {
		s.logger.Warnw("rejecting websocket client", "error", err)
		conn.Close()
		return
	}
	if s.observer != nil {
		s.observer.ClientConnected()
	}
	s.logger.Infow("client connected", "user_id", userID)

	go s.writePump(c)
	s.readPump(r.Context(), c)

	s.unregister(c)
	if s.observer != nil {
		s.observer.ClientDisconnected()
	}
	s.logger.Infow("client disconnected", "user_id", userID)
}

// register queues the current state as the client's first message. It runs
// under the store lock so no action can slip in between the snapshot and
// the registration.
func (s *WebSocketServer) register(c *client) error {
	var encErr error
	err := s.store.View(func(state domain.SessionState) {
		snapshot := state.Clone()
		msg, err := json.Marshal(ServerMessage{Type: TypeState, State: &snapshot})
		if err != nil {
			encErr = err
			return
		}
		c.send <- msg

		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
	})
	if err != nil {
		return err
	}
	return encErr
}

func (s *WebSocketServer) unregister(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
	s.mu.Unlock()
}

// broadcast is the store listener. It never blocks: a client whose buffer
// is full is dropped.
func (s *WebSocketServer) broadcast(ev session.Event) {
	env, err := session.Encode(ev.Action)
	if err != nil {
		s.logger.Errorw("failed to encode action for broadcast", "error", err)
		return
	}
	status := ev.Status
	msg, err := json.Marshal(ServerMessage{Type: TypeAction, Seq: ev.Seq, Action: &env, Status: &status})
	if err != nil {
		s.logger.Errorw("failed to marshal broadcast", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warnw("dropping slow websocket client", "user_id", c.userID)
			delete(s.clients, c)
			c.close()
		}
	}
}

func (s *WebSocketServer) readPump(ctx context.Context, c *client) {
	defer c.conn.Close()

	if s.opts.MaxMessageSize > 0 {
		c.conn.SetReadLimit(s.opts.MaxMessageSize)
	}
	c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading from client", "user_id", c.userID, "error", err)
			}
			return
		}
		if s.observer != nil {
			s.observer.MessageReceived()
		}

		if c.limiter != nil && !c.limiter.Allow() {
			s.reply(c, "rate limit exceeded")
			continue
		}
		if err := s.handleMessage(ctx, c, data); err != nil {
			s.logger.Debugw("client action rejected", "user_id", c.userID, "error", err)
			s.reply(c, err.Error())
		}
	}
}

func (s *WebSocketServer) handleMessage(ctx context.Context, c *client, data []byte) error {
	action, err := session.DecodeJSON(data)
	if err != nil {
		return err
	}

	ctx, span := tracing.TraceWebSocketMessage(ctx, string(action.Type()), c.userID)
	defer span.End()

	if err := s.board.Dispatch(ctx, action); err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("%s: %w", action.Type(), err)
	}
	return nil
}

// reply sends an error to one client, dropping it if the buffer is full.
func (s *WebSocketServer) reply(c *client, message string) {
	msg, err := json.Marshal(ServerMessage{Type: TypeError, Message: message})
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (s *WebSocketServer) writePump(c *client) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			if s.observer != nil {
				s.observer.MessageSent()
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ConnectedClients returns the number of registered clients.
func (s *WebSocketServer) ConnectedClients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
