// Package game implements the rules engine: turn and priority
// progression, the resolution stack, combat, state-based actions, the
// mana economy and the trigger/continuous-effect system. The engine is a
// single-threaded, cooperative state machine; priority windows are plain
// returns to the caller, which re-invokes the engine with an action or a
// pass. All mutation goes through the engine's entry points.
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spellground/spellground-go/internal/game/counters"
	"github.com/spellground/spellground-go/internal/game/effects"
	"github.com/spellground/spellground-go/internal/game/keyword"
	"github.com/spellground/spellground-go/internal/game/mana"
	"github.com/spellground/spellground-go/internal/game/rules"
	"go.uber.org/zap"
)

// GameStatus indicates whether a game is still running.
type GameStatus string

const (
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusFinished   GameStatus = "FINISHED"
)

// Message is one entry of the append-only human-readable game log.
type Message struct {
	Text      string
	Kind      string
	Timestamp time.Time
}

// Notification is pushed to the registered handler whenever something a
// UI or recorder cares about happens. The engine owns no wire format;
// consumers serialize as they see fit.
type Notification struct {
	Type      string
	GameID    string
	PlayerID  string
	Timestamp time.Time
	Data      map[string]any
}

// NotificationHandler receives engine notifications.
type NotificationHandler func(Notification)

// gameState is the mutable state of a single game, owned exclusively by
// the engine.
type gameState struct {
	id     string
	status GameStatus
	winner string

	players     map[string]*Player
	playerOrder []string

	// cards is the single owner of all card data; zone collections and
	// combat records hold IDs into it.
	cards       map[string]*Card
	battlefield []string

	stack    *rules.StackManager
	turns    *rules.TurnManager
	bus      *rules.EventBus
	triggers *rules.TriggerManager
	layers   *effects.LayerSystem
	combat   *combatState

	// waiting holds triggered abilities collected from events; they are
	// ordered APNAP and pushed onto the stack before the next priority
	// window.
	waiting []rules.StackItem

	messages      []Message
	firstDrawSkip bool

	mu sync.RWMutex
}

// Engine is the rules engine. One engine instance can host multiple
// games, each identified by ID and serialized through its own lock.
type Engine struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	games   map[string]*gameState
	handler NotificationHandler
	rng     *rand.Rand

	startingLife int
	handLimit    int

	// Notifications are queued and delivered by a single dispatch
	// goroutine so consumers see them in emission order.
	notifyMu    sync.Mutex
	notifyCond  *sync.Cond
	notifyQueue []Notification
}

// NewEngine creates an engine instance.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:       logger,
		games:        make(map[string]*gameState),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		startingLife: DefaultStartingLife,
		handLimit:    DefaultHandLimit,
	}
	e.notifyCond = sync.NewCond(&e.notifyMu)
	go e.dispatchLoop()
	return e
}

// SetGameDefaults overrides the starting life and hand limit used for
// games started afterwards. Zero values keep the defaults.
func (e *Engine) SetGameDefaults(startingLife, handLimit int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if startingLife > 0 {
		e.startingLife = startingLife
	}
	if handLimit > 0 {
		e.handLimit = handLimit
	}
}

// SetNotificationHandler registers the callback external collaborators
// (UI, recorder) use to observe the game.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

// notify enqueues a notification for the dispatch goroutine. Delivery
// is asynchronous because handlers are allowed to call back into the
// engine (e.g. to snapshot a view), which would deadlock if run under
// the game lock, and strictly ordered because the recorder replays the
// log in sequence.
func (e *Engine) notify(n Notification) {
	n.Timestamp = time.Now()
	e.notifyMu.Lock()
	e.notifyQueue = append(e.notifyQueue, n)
	e.notifyMu.Unlock()
	e.notifyCond.Signal()
}

// dispatchLoop delivers queued notifications one at a time, in order.
func (e *Engine) dispatchLoop() {
	for {
		e.notifyMu.Lock()
		for len(e.notifyQueue) == 0 {
			e.notifyCond.Wait()
		}
		n := e.notifyQueue[0]
		e.notifyQueue = e.notifyQueue[1:]
		e.notifyMu.Unlock()

		e.mu.RLock()
		handler := e.handler
		e.mu.RUnlock()
		if handler != nil {
			handler(n)
		}
	}
}

// StartGame creates a game with the given players and decks, shuffles
// libraries and draws opening hands. The first listed player takes the
// first turn and skips their first draw step.
func (e *Engine) StartGame(gameID string, setups []PlayerSetup) error {
	if gameID == "" {
		gameID = uuid.NewString()
	}
	if len(setups) < 2 {
		return ruleErrorf("a game needs at least 2 players, got %d", len(setups))
	}

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return ruleErrorf("game %s already exists", gameID)
	}

	gs := &gameState{
		id:            gameID,
		status:        StatusInProgress,
		players:       make(map[string]*Player, len(setups)),
		cards:         make(map[string]*Card),
		stack:         rules.NewStackManager(),
		bus:           rules.NewEventBus(),
		triggers:      rules.NewTriggerManager(),
		layers:        effects.NewLayerSystem(),
		combat:        newCombatState(""),
		firstDrawSkip: true,
	}

	for _, setup := range setups {
		if setup.ID == "" {
			e.mu.Unlock()
			return ruleErrorf("player ID must not be empty")
		}
		if _, dup := gs.players[setup.ID]; dup {
			e.mu.Unlock()
			return ruleErrorf("duplicate player ID %s", setup.ID)
		}
		player := &Player{
			ID:        setup.ID,
			Name:      setup.Name,
			Life:      e.startingLife,
			Pool:      mana.NewPool(),
			HandLimit: e.handLimit,
		}
		for _, spec := range setup.Deck {
			card := e.newCardFromSpec(spec, setup.ID)
			gs.cards[card.ID] = card
			player.Library = append(player.Library, card.ID)
		}
		gs.players[setup.ID] = player
		gs.playerOrder = append(gs.playerOrder, setup.ID)
	}

	gs.turns = rules.NewTurnManager(gs.playerOrder[0])
	gs.combat.attackingPlayer = gs.playerOrder[0]
	e.games[gameID] = gs
	e.mu.Unlock()

	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, playerID := range gs.playerOrder {
		player := gs.players[playerID]
		e.shuffleLibrary(player)
		for i := 0; i < OpeningHandSize && len(player.Library) > 0; i++ {
			e.drawCard(gs, player)
		}
	}

	gs.addMessage(fmt.Sprintf("Game started, %s goes first", gs.playerOrder[0]), "game")
	e.fireEvent(gs, rules.NewEvent(rules.EventBeginTurn, "", "", gs.playerOrder[0]))
	e.beginStep(gs)

	e.logger.Info("game started",
		zap.String("game_id", gameID),
		zap.Int("players", len(setups)),
	)
	e.notify(Notification{Type: "GAME_STARTED", GameID: gameID})

	return nil
}

func (e *Engine) newCardFromSpec(spec CardSpec, ownerID string) *Card {
	caps, err := keyword.ParseSet(spec.Keywords)
	if err != nil {
		// Unknown keywords are dropped rather than matched as text; the
		// vocabulary is fixed.
		e.logger.Warn("ignoring unknown keyword on card",
			zap.String("card", spec.Name),
			zap.Error(err),
		)
	}
	return &Card{
		ID:               uuid.NewString(),
		Name:             spec.Name,
		ManaCost:         spec.ManaCost,
		Types:            append([]string(nil), spec.Types...),
		Supertypes:       append([]string(nil), spec.Supertypes...),
		Colors:           append([]string(nil), spec.Colors...),
		BasePower:        spec.Power,
		BaseToughness:    spec.Toughness,
		BaseCapabilities: caps,
		Zone:             ZoneLibrary,
		OwnerID:          ownerID,
		ControllerID:     ownerID,
		Counters:         counters.NewCounters(),
		Token:            spec.Token,
		Spec:             spec,
	}
}

func (e *Engine) shuffleLibrary(player *Player) {
	e.rng.Shuffle(len(player.Library), func(i, j int) {
		player.Library[i], player.Library[j] = player.Library[j], player.Library[i]
	})
}

// getGame looks up a game by ID.
func (e *Engine) getGame(gameID string) (*gameState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	gs, ok := e.games[gameID]
	if !ok {
		return nil, ruleErrorf("game %s not found", gameID)
	}
	return gs, nil
}

func (gs *gameState) addMessage(text, kind string) {
	gs.messages = append(gs.messages, Message{
		Text:      text,
		Kind:      kind,
		Timestamp: time.Now(),
	})
}

func (gs *gameState) player(playerID string) (*Player, error) {
	player, ok := gs.players[playerID]
	if !ok {
		return nil, ruleErrorf("player %s not found", playerID)
	}
	return player, nil
}

func (gs *gameState) card(cardID string) (*Card, error) {
	card, ok := gs.cards[cardID]
	if !ok {
		return nil, ruleErrorf("card %s not found", cardID)
	}
	return card, nil
}

// nextPlayerAfter returns the next player in turn order who can still
// respond, or "" if nobody can.
func (gs *gameState) nextPlayerAfter(playerID string) string {
	idx := -1
	for i, id := range gs.playerOrder {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ""
	}
	for offset := 1; offset <= len(gs.playerOrder); offset++ {
		candidate := gs.playerOrder[(idx+offset)%len(gs.playerOrder)]
		if gs.players[candidate].canRespond() {
			return candidate
		}
	}
	return ""
}

// playersAPNAP lists responding players starting with the active player.
func (gs *gameState) playersAPNAP() []string {
	active := gs.turns.ActivePlayer()
	idx := 0
	for i, id := range gs.playerOrder {
		if id == active {
			idx = i
			break
		}
	}
	out := make([]string, 0, len(gs.playerOrder))
	for offset := 0; offset < len(gs.playerOrder); offset++ {
		id := gs.playerOrder[(idx+offset)%len(gs.playerOrder)]
		if gs.players[id].canRespond() {
			out = append(out, id)
		}
	}
	return out
}

func (gs *gameState) resetPassed() {
	for _, player := range gs.players {
		player.Passed = false
	}
}

func (gs *gameState) allPassed() bool {
	for _, player := range gs.players {
		if player.canRespond() && !player.Passed {
			return false
		}
	}
	return true
}

// fireEvent publishes an event and collects any triggered abilities it
// produces into the waiting queue. Triggers only fire while their source
// is on the battlefield.
func (e *Engine) fireEvent(gs *gameState, event rules.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	gs.bus.Publish(event)
	items := gs.triggers.Collect(event, func(sourceID string) bool {
		card, ok := gs.cards[sourceID]
		return ok && card.Zone == ZoneBattlefield
	})
	gs.waiting = append(gs.waiting, items...)
}

// queueWaitingTriggers orders waiting triggered abilities APNAP and
// pushes them onto the stack. Returns true if anything was queued; in
// that case the priority window restarts with the active player.
func (e *Engine) queueWaitingTriggers(gs *gameState) bool {
	if len(gs.waiting) == 0 {
		return false
	}
	waiting := gs.waiting
	gs.waiting = nil

	for _, playerID := range gs.playersAPNAP() {
		for _, item := range waiting {
			if item.Controller != playerID {
				continue
			}
			gs.stack.Push(item)
			gs.addMessage(fmt.Sprintf("Triggered ability of %s goes on the stack", item.Description), "trigger")
			e.fireEvent(gs, rules.NewEvent(rules.EventStackItemPushed, item.ID, item.SourceID, item.Controller))
		}
	}
	// Triggers from controllers no longer in the game are dropped.

	gs.resetPassed()
	gs.turns.SetPriority(gs.turns.ActivePlayer())
	e.notify(Notification{
		Type:     "STACK_UPDATE",
		GameID:   gs.id,
		PlayerID: gs.turns.ActivePlayer(),
		Data:     map[string]any{"stack_size": gs.stack.Size()},
	})
	return true
}

// RegisterTrigger attaches an engine-level trigger watch. Sources on
// cards usually register through their specs when entering the
// battlefield; this entry point exists for tests and scripted effects.
func (e *Engine) RegisterTrigger(gameID string, trigger rules.Trigger) (string, error) {
	gs, err := e.getGame(gameID)
	if err != nil {
		return "", err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.triggers.Register(trigger), nil
}

// EventLog returns the human-readable game log.
func (e *Engine) EventLog(gameID string) ([]Message, error) {
	gs, err := e.getGame(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	out := make([]Message, len(gs.messages))
	copy(out, gs.messages)
	return out, nil
}
