// Package ws is the websocket intake and fan-out surface. It owns connection
// upgrade, the handshake gate and per-session subscriptions; reconnect and
// backoff policy belong to the clients.
package ws

import (
	"log"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sightrelay/internal/relay"
	"sightrelay/internal/track"
	"sightrelay/internal/wire"
)

const writeWait = 10 * time.Second

// HandlerConfig carries handler construction options.
type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades reporting clients, feeds their relays into the tracker
// and fans reconciled changes back out to subscribed sessions.
type Handler struct {
	tracker  *track.Tracker
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id   string
	conn *websocket.Conn

	mu           sync.Mutex
	jurisdiction string
}

func (s *session) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *session) subscription() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jurisdiction
}

func (s *session) subscribe(key string) {
	s.mu.Lock()
	s.jurisdiction = key
	s.mu.Unlock()
}

// NewHandler builds a websocket handler over the tracker and registers its
// fan-out listener.
func NewHandler(tracker *track.Tracker, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := &Handler{
		tracker: tracker,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
		sessions: make(map[string]*session),
	}
	tracker.AddListener(h.fanOut)
	return h
}

// ServeHTTP upgrades the connection and runs the session read loop until the
// peer disconnects.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}
	sess := &session{id: uuid.NewString(), conn: conn}

	if !h.awaitHandshake(sess) {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.sessions[sess.id] = sess
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, sess.id)
		h.mu.Unlock()
		conn.Close()
	}()

	h.readLoop(sess)
}

func (h *Handler) awaitHandshake(sess *session) bool {
	_, payload, err := sess.conn.ReadMessage()
	if err != nil {
		return false
	}
	env, err := wire.Decode(payload, wire.ClientToServer)
	if err != nil || env.Type != wire.MessageHandshake || env.Handshake == nil {
		h.logger.Printf("session %s: malformed handshake", sess.id)
		return false
	}
	if !env.Handshake.Verify() {
		h.logger.Printf("session %s: handshake rejected for build %q", sess.id, env.Handshake.BuildName)
		return false
	}
	return true
}

func (h *Handler) readLoop(sess *session) {
	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := wire.Decode(payload, wire.ClientToServer)
		if err != nil {
			h.logger.Printf("session %s: discarding malformed message: %v", sess.id, err)
			continue
		}
		switch env.Type {
		case wire.MessageRelay:
			incoming, err := wire.DecodeRelay(env.Relay)
			if err != nil {
				h.logger.Printf("session %s: discarding relay: %v", sess.id, err)
				continue
			}
			// Invalid reports are dropped inside Upsert with no feedback.
			h.tracker.Upsert(incoming)
		case wire.MessageSubscribe:
			sess.subscribe(env.Jurisdiction)
			h.sendSnapshot(sess, env.Jurisdiction)
		case wire.MessageHeartbeat:
			h.sendHeartbeat(sess)
		default:
			h.logger.Printf("session %s: unknown message type %d", sess.id, env.Type)
		}
	}
}

func (h *Handler) sendSnapshot(sess *session, jurisdiction string) {
	for _, rel := range h.tracker.Snapshot(jurisdiction) {
		data, err := wire.EncodeRelayEnvelope(rel, wire.ServerToClient)
		if err != nil {
			h.logger.Printf("session %s: encode snapshot: %v", sess.id, err)
			return
		}
		if err := sess.write(data); err != nil {
			h.logger.Printf("session %s: write snapshot: %v", sess.id, err)
			return
		}
	}
}

func (h *Handler) sendHeartbeat(sess *session) {
	data, err := wire.Encode(wire.Envelope{
		Type:   wire.MessageHeartbeat,
		Stats:  h.tracker.Stats(),
		SentAt: time.Now().UnixMilli(),
	}, wire.ServerToClient)
	if err != nil {
		h.logger.Printf("session %s: encode heartbeat: %v", sess.id, err)
		return
	}
	if err := sess.write(data); err != nil {
		h.logger.Printf("session %s: write heartbeat: %v", sess.id, err)
	}
}

// fanOut delivers a changed relay to every session whose subscription
// matches one of its jurisdiction keys. Writes run on their own goroutines;
// a stalled subscriber must never hold up the reporting client's read loop.
func (h *Handler) fanOut(rel *relay.Relay, keys []string) {
	h.mu.Lock()
	targets := make([]*session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		if matches(sess.subscription(), keys) {
			targets = append(targets, sess)
		}
	}
	h.mu.Unlock()
	if len(targets) == 0 {
		return
	}
	data, err := wire.EncodeRelayEnvelope(rel, wire.ServerToClient)
	if err != nil {
		h.logger.Printf("encode fan-out: %v", err)
		return
	}
	for _, sess := range targets {
		go func(s *session) {
			if err := s.write(data); err != nil {
				h.logger.Printf("session %s: write fan-out: %v", s.id, err)
			}
		}(sess)
	}
}

func matches(subscription string, keys []string) bool {
	if subscription == "" {
		return false
	}
	for _, key := range keys {
		if key == subscription {
			return true
		}
	}
	return false
}
