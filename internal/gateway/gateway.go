// Package gateway is the WebSocket edge: it upgrades connections, verifies
// the bearer token on the handshake, and translates the wire protocol's
// JSON {event, payload} frames into calls against the queue, matchmaker,
// and table packages. It keeps the teacher's Connection/readPump/writePump
// shape and gorilla/websocket transport, generalized from a protobuf
// envelope to a JSON one since the wire protocol calls for human-readable
// frames, not a generated schema.
package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"holdem-lite/card"
	"holdem-lite/internal/auth"
	"holdem-lite/internal/matchmaker"
	"holdem-lite/internal/queue"
	"holdem-lite/internal/table"
	"holdem-lite/rules"
)

// idleConnectionTimeout disconnects a client that has sent nothing — not
// even a pong — in this long, independent of the shorter read deadline the
// ping cadence maintains to detect a dead TCP path.
const idleConnectionTimeout = 5 * time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// inboundFrame is the shape of every client->server message.
type inboundFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// outboundFrame is the shape of every server->client message.
type outboundFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Connection is one authenticated WebSocket client. Only its own readPump
// goroutine mutates TableID/Stake, so neither needs its own lock.
type Connection struct {
	ID       string
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	gw       *Gateway

	TableID string
	Stake   int64

	lastActivity atomic.Int64 // unix nanos, written by readPump, read by writePump
}

// touch records inbound activity so writePump's idle check doesn't trip.
func (c *Connection) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

func (c *Connection) idleFor() time.Duration {
	return time.Since(time.Unix(0, c.lastActivity.Load()))
}

// Gateway owns every live connection and the queue/matchmaker it routes
// inbound events to. It implements table.Sender.
type Gateway struct {
	mu         sync.RWMutex
	conns      map[string]*Connection
	byUsername map[string]*Connection
	nextConnID uint64

	verifier     *auth.Verifier
	queue        *queue.Manager
	matchmaker   *matchmaker.Manager
	pingInterval time.Duration
	corsOrigins  []string
}

// New builds a Gateway. pingInterval governs both the JSON ping cadence and
// the WebSocket-level read deadline refresh. The matchmaker is wired in
// afterwards via SetMatchmaker, since constructing a Manager pre-creates
// preset tables that need a Sender — a Gateway — to exist first, and a
// Gateway needs a Manager to route join_table/join_queue events, so one of
// the two has to be built before the cycle can close.
func New(verifier *auth.Verifier, q *queue.Manager, pingInterval time.Duration, corsOrigins []string) *Gateway {
	return &Gateway{
		conns:        make(map[string]*Connection),
		byUsername:   make(map[string]*Connection),
		verifier:     verifier,
		queue:        q,
		pingInterval: pingInterval,
		corsOrigins:  corsOrigins,
	}
}

// SetMatchmaker wires the matchmaker in after construction. Must be called
// once, before the gateway starts serving connections.
func (g *Gateway) SetMatchmaker(mm *matchmaker.Manager) {
	g.matchmaker = mm
}

// SendTo implements table.Sender: it looks up the connection by id and
// queues an outbound frame, dropping it if the socket's send buffer is full
// rather than blocking the table actor.
func (g *Gateway) SendTo(connID, event string, payload any) {
	g.mu.RLock()
	c := g.conns[connID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(outboundFrame{Event: event, Payload: payload})
	if err != nil {
		log.Printf("[gateway] marshal %s for %s: %v", event, connID, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("[gateway] dropped %s for %s: send buffer full", event, connID)
	}
}

// HandleWebSocket upgrades the connection after verifying the handshake's
// token and userId query parameters against the username they claim.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("userId"))
	token := r.URL.Query().Get("token")
	if username == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	if err := g.verifier.VerifySubject(token, username); err != nil {
		http.Error(w, "unauthorized: "+err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{ID: connID, Username: username, Conn: conn, Send: make(chan []byte, 256), gw: g}
	c.touch()
	g.conns[connID] = c
	if prev, ok := g.byUsername[username]; ok {
		close(prev.Send)
	}
	g.byUsername[username] = c
	g.mu.Unlock()

	log.Printf("[gateway] %s connected as %s, total=%d", connID, username, len(g.conns))

	go c.writePump(g.pingInterval)
	c.readPump()
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.conns, c.ID)
	if g.byUsername[c.Username] == c {
		delete(g.byUsername, c.Username)
	}
	g.mu.Unlock()
	g.queue.Remove(c.Stake, c.Username)
	if c.TableID != "" {
		if t := g.matchmaker.Find(c.TableID); t != nil {
			_ = t.SubmitEvent(table.Event{Type: table.EventDisconnect, ConnectionID: c.ID})
		}
	}
	log.Printf("[gateway] %s disconnected, total=%d", c.ID, len(g.conns))
}

func (c *Connection) readPump() {
	defer func() {
		c.gw.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(2 * c.gw.pingInterval))

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[gateway] read error on %s: %v", c.ID, err)
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(2 * c.gw.pingInterval))
		c.touch()

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("invalid frame")
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Connection) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if c.idleFor() >= idleConnectionTimeout {
				log.Printf("[gateway] %s idle for %s, disconnecting", c.ID, c.idleFor())
				return
			}
			c.gw.SendTo(c.ID, "ping", nil)
		}
	}
}

func (c *Connection) sendError(msg string) {
	c.gw.SendTo(c.ID, "error", map[string]string{"message": msg})
}

func (c *Connection) dispatch(frame inboundFrame) {
	switch frame.Event {
	case "join_queue":
		c.handleJoinQueue(frame.Payload)
	case "leave_queue":
		c.handleLeaveQueue()
	case "join_table":
		c.handleJoinTable(frame.Payload)
	case "join_spectator":
		c.handleJoinSpectator(frame.Payload)
	case "player_ready":
		c.handlePlayerReady(frame.Payload)
	case "game_action":
		c.handleGameAction(frame.Payload)
	case "leave_table":
		c.handleLeaveTable()
	case "request_state_sync":
		c.handleRequestStateSync(frame.Payload)
	case "verify_state":
		c.handleVerifyState(frame.Payload)
	case "reconnect_player":
		c.handleReconnect(frame.Payload)
	case "pong":
		// liveness only; SetReadDeadline above already covers it.
	default:
		c.sendError("unknown event: " + frame.Event)
	}
}

type joinQueuePayload struct {
	Stake int64 `json:"stake"`
}

func (c *Connection) handleJoinQueue(raw json.RawMessage) {
	var p joinQueuePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid join_queue payload")
		return
	}
	if err := c.gw.queue.Enqueue(p.Stake, c.Username, queue.PriorityNormal); err != nil {
		c.sendError(err.Error())
		return
	}
	c.Stake = p.Stake
	c.gw.matchmaker.Trigger()
	c.sendQueueStatus(p.Stake)
}

func (c *Connection) handleLeaveQueue() {
	if c.Stake == 0 {
		return
	}
	c.gw.queue.Remove(c.Stake, c.Username)
	c.Stake = 0
}

func (c *Connection) sendQueueStatus(stake int64) {
	stats := c.gw.queue.Stats(stake)
	c.gw.SendTo(c.ID, "queue_status", map[string]any{
		"stake":         stake,
		"position":      c.gw.queue.Position(stake, c.Username),
		"length":        stats.Length,
		"estimatedWait": stats.EstimatedWait.Seconds(),
	})
}

type tableIDPayload struct {
	TableID string `json:"tableId"`
}

func (c *Connection) handleJoinTable(raw json.RawMessage) {
	var p tableIDPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid join_table payload")
		return
	}
	t := c.gw.matchmaker.Find(p.TableID)
	if t == nil {
		c.sendError("unknown table: " + p.TableID)
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventJoinTable, Username: c.Username, ConnectionID: c.ID}); err != nil {
		c.sendError(err.Error())
		return
	}
	c.TableID = p.TableID
}

func (c *Connection) handleJoinSpectator(raw json.RawMessage) {
	var p tableIDPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid join_spectator payload")
		return
	}
	t := c.gw.matchmaker.Find(p.TableID)
	if t == nil {
		c.sendError("unknown table: " + p.TableID)
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventJoinSpectator, Username: c.Username, ConnectionID: c.ID}); err != nil {
		c.sendError(err.Error())
		return
	}
	c.TableID = p.TableID
}

func (c *Connection) currentTable() *table.Table {
	if c.TableID == "" {
		return nil
	}
	return c.gw.matchmaker.Find(c.TableID)
}

func (c *Connection) handlePlayerReady(raw json.RawMessage) {
	t := c.currentTable()
	if t == nil {
		c.sendError("not at a table")
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventPlayerReady, Username: c.Username}); err != nil {
		c.sendError(err.Error())
	}
}

// wireAction is the JSON shape of a game_action payload's action field.
// Card values are the engine's byte encoding (suit<<4|rank), sent as plain
// numbers since this is an internal wire format, not a public API.
type wireAction struct {
	Type           string      `json:"type"`
	DiscardIndex   int         `json:"discardIndex"`
	SpreadCards    []card.Card `json:"spreadCards"`
	HitCard        card.Card   `json:"hitCard"`
	HitTargetSeat  int         `json:"hitTargetSeat"`
	HitSpreadIndex int         `json:"hitSpreadIndex"`
}

func (w wireAction) toRulesAction() (rules.Action, error) {
	var a rules.Action
	switch strings.ToUpper(w.Type) {
	case "DRAW_STOCK":
		a.Type = rules.DrawStock
	case "DRAW_DISCARD":
		a.Type = rules.DrawDiscard
	case "DISCARD":
		a.Type = rules.Discard
		a.DiscardIndex = w.DiscardIndex
	case "SPREAD":
		a.Type = rules.SpreadAction
		a.SpreadCards = w.SpreadCards
	case "HIT":
		a.Type = rules.Hit
		a.HitCard = w.HitCard
		a.HitTargetSeat = w.HitTargetSeat
		a.HitSpreadIndex = w.HitSpreadIndex
	case "DROP":
		a.Type = rules.Drop
	case "DECLARE_SPECIAL_WIN":
		a.Type = rules.DeclareSpecialWin
	default:
		return a, fmt.Errorf("unknown action type: %s", w.Type)
	}
	return a, nil
}

type gameActionPayload struct {
	TableID    string     `json:"tableId"`
	Action     wireAction `json:"action"`
	ClientHash uint64     `json:"clientHash"`
}

func (c *Connection) handleGameAction(raw json.RawMessage) {
	var p gameActionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid game_action payload")
		return
	}
	t := c.currentTable()
	if t == nil {
		c.sendError("not at a table")
		return
	}
	action, err := p.Action.toRulesAction()
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if err := t.SubmitEvent(table.Event{
		Type: table.EventGameAction, Username: c.Username, ConnectionID: c.ID,
		Action: action, ClientHash: p.ClientHash,
	}); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Connection) handleLeaveTable() {
	t := c.currentTable()
	if t == nil {
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventLeaveTable, Username: c.Username}); err != nil {
		c.sendError(err.Error())
		return
	}
	c.TableID = ""
}

func (c *Connection) handleRequestStateSync(raw json.RawMessage) {
	t := c.currentTable()
	if t == nil {
		c.sendError("not at a table")
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventRequestStateSync, Username: c.Username, ConnectionID: c.ID}); err != nil {
		c.sendError(err.Error())
	}
}

type verifyStatePayload struct {
	ClientHash uint64 `json:"clientHash"`
}

func (c *Connection) handleVerifyState(raw json.RawMessage) {
	var p verifyStatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid verify_state payload")
		return
	}
	t := c.currentTable()
	if t == nil {
		c.sendError("not at a table")
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventVerifyState, Username: c.Username, ConnectionID: c.ID, ClientHash: p.ClientHash}); err != nil {
		c.sendError(err.Error())
	}
}

type reconnectPayload struct {
	TableID string `json:"tableId"`
}

func (c *Connection) handleReconnect(raw json.RawMessage) {
	var p reconnectPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid reconnect_player payload")
		return
	}
	t := c.gw.matchmaker.Find(p.TableID)
	if t == nil {
		c.sendError("unknown table: " + p.TableID)
		return
	}
	if err := t.SubmitEvent(table.Event{Type: table.EventReconnect, Username: c.Username, ConnectionID: c.ID}); err != nil {
		c.sendError(err.Error())
		return
	}
	c.TableID = p.TableID
}

// HandleValidateState serves POST /tables/{id}/validate-state, the one
// HTTP surface the wire protocol exposes alongside the WebSocket stream.
func (g *Gateway) HandleValidateState(w http.ResponseWriter, r *http.Request) {
	tableID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/tables/"), "/validate-state")
	if tableID == "" {
		http.Error(w, "missing table id", http.StatusBadRequest)
		return
	}
	t := g.matchmaker.Find(tableID)
	if t == nil {
		http.Error(w, "unknown table", http.StatusNotFound)
		return
	}

	var body struct {
		ClientHash uint64 `json:"clientHash"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	valid, correct := t.ValidateState(body.ClientHash)
	writeJSON(w, http.StatusOK, map[string]any{"valid": valid, "correctHash": strconv.FormatUint(correct, 10)})
}

// HandleHealth serves GET /health.
func (g *Gateway) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WithCORS wraps next with the configured allowed origins, carried from the
// teacher's main.go CORS middleware.
func (g *Gateway) WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if g.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) originAllowed(origin string) bool {
	for _, o := range g.corsOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
