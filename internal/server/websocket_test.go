package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spellground/spellground-go/internal/cards"
	"github.com/spellground/spellground-go/internal/config"
	"github.com/spellground/spellground-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dialTestHub(t *testing.T) *websocket.Conn {
	t.Helper()
	hub := NewHub(
		game.NewEngine(zaptest.NewLogger(t)),
		cards.NewMemoryRepository(),
		config.ServerConfig{AllowAllOrigins: true},
		zaptest.NewLogger(t),
	)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func send(t *testing.T, conn *websocket.Conn, req Request) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
}

func recv(t *testing.T, conn *websocket.Conn) Response {
	t.Helper()
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func createGameRequest(gameID string) Request {
	deck := []string{"20 Mountain", "10 Grizzly Bears"}
	data, _ := json.Marshal(map[string]any{
		"players": []map[string]any{
			{"id": "alice", "name": "Alice", "deck": deck},
			{"id": "bob", "name": "Bob", "deck": deck},
		},
	})
	return Request{Type: "create_game", GameID: gameID, PlayerID: "alice", Data: data}
}

func TestHub_CreateGameAndGetState(t *testing.T) {
	conn := dialTestHub(t)

	send(t, conn, createGameRequest("ws-game"))
	resp := recv(t, conn)
	require.Equal(t, "game_state", resp.Type)
	assert.Equal(t, "ws-game", resp.GameID)

	send(t, conn, Request{Type: "get_state"})
	resp = recv(t, conn)
	require.Equal(t, "game_state", resp.Type)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var view game.GameView
	require.NoError(t, json.Unmarshal(payload, &view))
	assert.Equal(t, "alice", view.ActivePlayer)
	assert.Len(t, view.Players, 2)
	for _, player := range view.Players {
		if player.ID == "alice" {
			assert.Len(t, player.Hand, 7, "the creator sees their own hand")
		} else {
			assert.Empty(t, player.Hand)
		}
	}
}

func TestHub_CreateGameRejectsBadDeck(t *testing.T) {
	conn := dialTestHub(t)

	data, _ := json.Marshal(map[string]any{
		"players": []map[string]any{
			{"id": "alice", "deck": []string{"4 Time Walk"}},
			{"id": "bob", "deck": []string{"20 Mountain"}},
		},
	})
	send(t, conn, Request{Type: "create_game", Data: data})
	resp := recv(t, conn)
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Error, "Time Walk")
}

func TestHub_IllegalActionRejected(t *testing.T) {
	conn := dialTestHub(t)

	send(t, conn, createGameRequest("ws-game"))
	recv(t, conn)

	// Bob cannot pass priority on alice's turn.
	send(t, conn, Request{Type: "join_game", GameID: "ws-game", PlayerID: "bob"})
	recv(t, conn)
	send(t, conn, Request{Type: "pass_priority"})
	resp := recv(t, conn)
	assert.Equal(t, "action_rejected", resp.Type)
	assert.NotEmpty(t, resp.Error)
}

func TestHub_UnknownRequestType(t *testing.T) {
	conn := dialTestHub(t)
	send(t, conn, Request{Type: "cast_fireball"})
	resp := recv(t, conn)
	assert.Equal(t, "error", resp.Type)
}

func TestHub_MalformedJSON(t *testing.T) {
	conn := dialTestHub(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	resp := recv(t, conn)
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, "malformed request", resp.Error)
}
