package game

import "sort"

// CardView is a card as seen by a viewer. Power and toughness are the
// layered values; base stats stay internal.
type CardView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	ManaCost      string         `json:"mana_cost,omitempty"`
	Types         []string       `json:"types"`
	Colors        []string       `json:"colors,omitempty"`
	Power         int            `json:"power"`
	Toughness     int            `json:"toughness"`
	Damage        int            `json:"damage,omitempty"`
	Keywords      []string       `json:"keywords,omitempty"`
	Counters      map[string]int `json:"counters,omitempty"`
	Tapped        bool           `json:"tapped"`
	SummoningSick bool           `json:"summoning_sick,omitempty"`
	Token         bool           `json:"token,omitempty"`
	AttachedTo    string         `json:"attached_to,omitempty"`
	ControllerID  string         `json:"controller_id"`
}

// PlayerView is one player's public state plus, for the viewer
// themselves, their hand.
type PlayerView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Life          int            `json:"life"`
	Poison        int            `json:"poison,omitempty"`
	LibraryCount  int            `json:"library_count"`
	HandCount     int            `json:"hand_count"`
	Hand          []CardView     `json:"hand,omitempty"`
	Graveyard     []CardView     `json:"graveyard"`
	ManaPool      map[string]int `json:"mana_pool,omitempty"`
	LandPlayed    bool           `json:"land_played"`
	Lost          bool           `json:"lost,omitempty"`
}

// StackItemView describes one stack entry top-down.
type StackItemView struct {
	ID          string   `json:"id"`
	Controller  string   `json:"controller"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	Targets     []string `json:"targets,omitempty"`
}

// CombatBlockView pairs an attacker with its ordered blockers.
type CombatBlockView struct {
	AttackerID string   `json:"attacker_id"`
	DefenderID string   `json:"defender_id"`
	WalkerID   string   `json:"walker_id,omitempty"`
	Blockers   []string `json:"blockers,omitempty"`
}

// GameView is a full snapshot of the game from one player's seat.
// Hidden zones of other players show counts only.
type GameView struct {
	GameID         string            `json:"game_id"`
	Status         string            `json:"status"`
	Winner         string            `json:"winner,omitempty"`
	TurnNumber     int               `json:"turn_number"`
	Phase          string            `json:"phase"`
	Step           string            `json:"step"`
	ActivePlayer   string            `json:"active_player"`
	PriorityPlayer string            `json:"priority_player"`
	Players        []PlayerView      `json:"players"`
	Battlefield    []CardView        `json:"battlefield"`
	Stack          []StackItemView   `json:"stack"`
	Combat         []CombatBlockView `json:"combat,omitempty"`
}

// View builds a snapshot of the game for viewerID. An empty viewerID
// gets the spectator view with every hand hidden.
func (e *Engine) View(gameID, viewerID string) (*GameView, error) {
	gs, err := e.getGame(gameID)
	if err != nil {
		return nil, err
	}
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	view := &GameView{
		GameID:         gs.id,
		Status:         string(gs.status),
		Winner:         gs.winner,
		TurnNumber:     gs.turns.TurnNumber(),
		Phase:          gs.turns.CurrentPhase().String(),
		Step:           gs.turns.CurrentStep().String(),
		ActivePlayer:   gs.turns.ActivePlayer(),
		PriorityPlayer: gs.turns.PriorityPlayer(),
	}

	for _, playerID := range gs.playerOrder {
		player := gs.players[playerID]
		pv := PlayerView{
			ID:           player.ID,
			Name:         player.Name,
			Life:         player.Life,
			Poison:       player.Poison,
			LibraryCount: len(player.Library),
			HandCount:    len(player.Hand),
			LandPlayed:   player.LandPlayed,
			Lost:         player.Lost,
		}
		pool := player.Pool.View()
		if len(pool) > 0 {
			pv.ManaPool = make(map[string]int, len(pool))
			for manaType, amount := range pool {
				pv.ManaPool[string(manaType)] = amount
			}
		}
		if playerID == viewerID {
			for _, cardID := range player.Hand {
				pv.Hand = append(pv.Hand, e.cardView(gs, gs.cards[cardID]))
			}
		}
		for _, cardID := range player.Graveyard {
			pv.Graveyard = append(pv.Graveyard, e.cardView(gs, gs.cards[cardID]))
		}
		view.Players = append(view.Players, pv)
	}

	for _, cardID := range gs.battlefield {
		view.Battlefield = append(view.Battlefield, e.cardView(gs, gs.cards[cardID]))
	}

	items := gs.stack.List()
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		view.Stack = append(view.Stack, StackItemView{
			ID:          item.ID,
			Controller:  item.Controller,
			Description: item.Description,
			Kind:        string(item.Kind),
			Targets:     item.Targets,
		})
	}

	for _, group := range gs.combat.groups {
		view.Combat = append(view.Combat, CombatBlockView{
			AttackerID: group.attackerID,
			DefenderID: group.defenderID,
			WalkerID:   group.walkerID,
			Blockers:   append([]string(nil), group.blockers...),
		})
	}

	return view, nil
}

func (e *Engine) cardView(gs *gameState, card *Card) CardView {
	if card == nil {
		return CardView{}
	}
	snapshot := e.evaluate(gs, card)
	keywords := snapshot.Capabilities.Names()
	sort.Strings(keywords)

	cv := CardView{
		ID:            card.ID,
		Name:          card.Name,
		ManaCost:      card.ManaCost,
		Types:         snapshot.Types,
		Colors:        snapshot.Colors,
		Power:         snapshot.Power,
		Toughness:     snapshot.Toughness,
		Damage:        card.Damage,
		Keywords:      keywords,
		Tapped:        card.Tapped,
		SummoningSick: card.SummoningSick,
		Token:         card.Token,
		AttachedTo:    card.AttachedTo,
		ControllerID:  snapshot.ControllerID,
	}
	if counts := card.Counters.View(); len(counts) > 0 {
		cv.Counters = counts
	}
	return cv
}

// StackList returns the current stack top-down for drivers that only
// need the stack.
func (e *Engine) StackList(gameID string) ([]StackItemView, error) {
	view, err := e.View(gameID, "")
	if err != nil {
		return nil, err
	}
	return view.Stack, nil
}

// CurrentStep reports where the turn stands.
func (e *Engine) CurrentStep(gameID string) (phase, step string, turn int, err error) {
	gs, err := e.getGame(gameID)
	if err != nil {
		return "", "", 0, err
	}
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.turns.CurrentPhase().String(), gs.turns.CurrentStep().String(), gs.turns.TurnNumber(), nil
}
