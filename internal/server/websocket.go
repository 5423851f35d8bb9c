// Package server exposes the rules engine over WebSocket. Each client
// speaks a small JSON protocol of game actions; after every successful
// action the server pushes each seated player their own view of the
// game.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spellground/spellground-go/internal/cards"
	"github.com/spellground/spellground-go/internal/config"
	"github.com/spellground/spellground-go/internal/game"
	"go.uber.org/zap"
)

// Request is an inbound client message.
type Request struct {
	Type     string          `json:"type"`
	GameID   string          `json:"game_id,omitempty"`
	PlayerID string          `json:"player_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Response is an outbound server message.
type Response struct {
	Type   string `json:"type"`
	GameID string `json:"game_id,omitempty"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	gameID   string
}

// Hub tracks connected clients and routes their actions to the engine.
type Hub struct {
	engine   *game.Engine
	repo     cards.Repository
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub creates a hub around an engine and a card repository.
func NewHub(engine *game.Engine, repo cards.Repository, cfg config.ServerConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		engine:  engine,
		repo:    repo,
		logger:  logger,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.AllowAllOrigins || r.Header.Get("Origin") == ""
			},
		},
	}
}

// ServeHTTP upgrades the connection and runs the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			c.reply(Response{Type: "error", Error: "malformed request"})
			continue
		}
		h.handle(c, req)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *client) reply(resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		// slow client, drop the frame
	}
}

type createGameData struct {
	Players []struct {
		ID   string   `json:"id"`
		Name string   `json:"name"`
		Deck []string `json:"deck"` // "N Card Name" lines
	} `json:"players"`
}

type actionData struct {
	CardID       string   `json:"card_id,omitempty"`
	AttackerID   string   `json:"attacker_id,omitempty"`
	BlockerID    string   `json:"blocker_id,omitempty"`
	DefenderID   string   `json:"defender_id,omitempty"`
	AbilityIndex int      `json:"ability_index,omitempty"`
	Targets      []string `json:"targets,omitempty"`
	Order        []string `json:"order,omitempty"`
}

func (h *Hub) handle(c *client, req Request) {
	h.logger.Debug("ws request",
		zap.String("type", req.Type),
		zap.String("game_id", req.GameID),
		zap.String("player_id", req.PlayerID),
	)

	switch req.Type {
	case "create_game":
		h.createGame(c, req)
		return
	case "join_game":
		c.gameID = req.GameID
		c.playerID = req.PlayerID
		h.sendView(c)
		return
	case "get_state":
		h.sendView(c)
		return
	}

	var data actionData
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &data); err != nil {
			c.reply(Response{Type: "error", Error: "malformed action data"})
			return
		}
	}

	var err error
	switch req.Type {
	case "play_land":
		err = h.engine.PlayLand(c.gameID, c.playerID, data.CardID)
	case "cast_spell":
		err = h.engine.CastSpell(c.gameID, c.playerID, data.CardID, data.Targets)
	case "activate_ability":
		err = h.engine.ActivateAbility(c.gameID, c.playerID, data.CardID, data.AbilityIndex, data.Targets)
	case "declare_attacker":
		err = h.engine.DeclareAttacker(c.gameID, c.playerID, data.AttackerID, data.DefenderID)
	case "declare_blocker":
		err = h.engine.DeclareBlocker(c.gameID, c.playerID, data.BlockerID, data.AttackerID)
	case "order_blockers":
		err = h.engine.OrderBlockers(c.gameID, c.playerID, data.AttackerID, data.Order)
	case "pass_priority":
		err = h.engine.PassPriority(c.gameID, c.playerID)
	case "advance_step":
		err = h.engine.AdvanceStep(c.gameID)
	case "concede":
		err = h.engine.Concede(c.gameID, c.playerID)
	default:
		c.reply(Response{Type: "error", Error: fmt.Sprintf("unknown request type %q", req.Type)})
		return
	}

	if err != nil {
		c.reply(Response{Type: "action_rejected", GameID: c.gameID, Error: err.Error()})
		if !game.IsRuleViolation(err) {
			h.logger.Error("action failed",
				zap.String("type", req.Type),
				zap.String("game_id", c.gameID),
				zap.Error(err),
			)
		}
		return
	}
	h.broadcastGame(c.gameID)
}

func (h *Hub) createGame(c *client, req Request) {
	var data createGameData
	if err := json.Unmarshal(req.Data, &data); err != nil || len(data.Players) < 2 {
		c.reply(Response{Type: "error", Error: "create_game needs at least two players with decks"})
		return
	}

	ctx := context.Background()
	setups := make([]game.PlayerSetup, 0, len(data.Players))
	for _, p := range data.Players {
		deck, err := cards.BuildDeck(ctx, h.repo, p.Deck)
		if err != nil {
			c.reply(Response{Type: "error", Error: err.Error()})
			return
		}
		setups = append(setups, game.PlayerSetup{ID: p.ID, Name: p.Name, Deck: deck})
	}

	gameID := req.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	if err := h.engine.StartGame(gameID, setups); err != nil {
		c.reply(Response{Type: "error", Error: err.Error()})
		return
	}
	c.gameID = gameID
	c.playerID = req.PlayerID
	h.logger.Info("game created over websocket",
		zap.String("game_id", gameID),
		zap.Int("players", len(setups)),
	)
	h.broadcastGame(gameID)
}

func (h *Hub) sendView(c *client) {
	view, err := h.engine.View(c.gameID, c.playerID)
	if err != nil {
		c.reply(Response{Type: "error", Error: err.Error()})
		return
	}
	c.reply(Response{Type: "game_state", GameID: c.gameID, Data: view})
}

// broadcastGame pushes a per-seat view to every client in the game.
func (h *Hub) broadcastGame(gameID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.gameID == gameID {
			h.sendView(c)
		}
	}
}

// Notify adapts engine notifications into lightweight pushes, so clients
// hear about triggered state changes they did not cause.
func (h *Hub) Notify(n game.Notification) {
	if n.GameID == "" {
		return
	}
	h.broadcastGame(n.GameID)
}
