package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spellground/spellground-go/internal/game/effects"
	"github.com/spellground/spellground-go/internal/game/mana"
	"github.com/spellground/spellground-go/internal/game/rules"
)

func TestStartGame_OpeningState(t *testing.T) {
	_, gs := newTestGame(t)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	for _, playerID := range gs.playerOrder {
		player := gs.players[playerID]
		assert.Len(t, player.Hand, OpeningHandSize, "%s hand", playerID)
		assert.Len(t, player.Library, 30-OpeningHandSize, "%s library", playerID)
		assert.Equal(t, DefaultStartingLife, player.Life, "%s life", playerID)
	}
	assert.Equal(t, "alice", gs.turns.ActivePlayer())
	assert.Equal(t, rules.StepUntap, gs.turns.CurrentStep())
}

func TestStartGame_Validation(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	assert.Error(t, e.StartGame("solo", []PlayerSetup{{ID: "alice", Deck: testDeck(30)}}),
		"a game needs at least two players")

	require.NoError(t, e.StartGame("dup", []PlayerSetup{
		{ID: "alice", Deck: testDeck(30)},
		{ID: "bob", Deck: testDeck(30)},
	}))
	assert.Error(t, e.StartGame("dup", []PlayerSetup{
		{ID: "carol", Deck: testDeck(30)},
		{ID: "dave", Deck: testDeck(30)},
	}), "duplicate game ID must be rejected")
}

func TestFirstPlayerSkipsFirstDraw(t *testing.T) {
	e, gs := newTestGame(t)

	advanceTo(t, e, gs, rules.StepDraw)
	gs.mu.RLock()
	aliceHand := len(gs.players["alice"].Hand)
	gs.mu.RUnlock()
	assert.Equal(t, OpeningHandSize, aliceHand, "first draw should be skipped")

	// Bob draws normally on turn two.
	advanceTo(t, e, gs, rules.StepCleanup)
	advanceTo(t, e, gs, rules.StepDraw)
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	require.Equal(t, "bob", gs.turns.ActivePlayer())
	assert.Len(t, gs.players["bob"].Hand, OpeningHandSize+1)
}

func TestCleanup_DiscardsToHandLimit(t *testing.T) {
	e, gs := newTestGame(t)
	putInHand(t, e, gs, "alice", boltSpec())
	putInHand(t, e, gs, "alice", boltSpec())

	advanceTo(t, e, gs, rules.StepCleanup)
	advanceTo(t, e, gs, rules.StepUntap)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	alice := gs.players["alice"]
	assert.Len(t, alice.Hand, alice.HandLimit, "hand should shrink to the limit")
	assert.Len(t, alice.Graveyard, 2, "discards go to the graveyard")
}

func TestCleanup_ClearsDamage(t *testing.T) {
	e, gs := newTestGame(t)
	bears := putPermanent(t, e, gs, "alice", vanillaCreature("Bears", 2, 2))
	gs.mu.Lock()
	bears.Damage = 1
	gs.mu.Unlock()

	advanceTo(t, e, gs, rules.StepCleanup)
	advanceTo(t, e, gs, rules.StepUntap)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Zero(t, bears.Damage, "damage wears off at cleanup")
}

func TestUntap_UntapsActivePlayersPermanentsOnly(t *testing.T) {
	e, gs := newTestGame(t)
	mine := putPermanent(t, e, gs, "alice", vanillaCreature("Bears", 2, 2))
	theirs := putPermanent(t, e, gs, "bob", vanillaCreature("Rats", 1, 1))
	gs.mu.Lock()
	mine.Tapped = true
	theirs.Tapped = true
	gs.mu.Unlock()

	// Wrap around to alice's second turn.
	for i := 0; i < 2; i++ {
		advanceTo(t, e, gs, rules.StepCleanup)
		advanceTo(t, e, gs, rules.StepUntap)
	}

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	require.Equal(t, "alice", gs.turns.ActivePlayer())
	assert.False(t, mine.Tapped, "alice's creature should untap on her turn")
}

func TestView_HidesOpponentHand(t *testing.T) {
	e, gs := newTestGame(t)

	view, err := e.View(gs.id, "alice")
	require.NoError(t, err)
	for _, player := range view.Players {
		switch player.ID {
		case "alice":
			assert.Len(t, player.Hand, OpeningHandSize, "alice should see her own hand")
		case "bob":
			assert.Empty(t, player.Hand, "alice must not see bob's cards")
			assert.Equal(t, OpeningHandSize, player.HandCount)
		}
	}

	spectator, err := e.View(gs.id, "")
	require.NoError(t, err)
	for _, player := range spectator.Players {
		assert.Empty(t, player.Hand, "spectator must not see %s's hand", player.ID)
	}
}

func TestView_ShowsLayeredStats(t *testing.T) {
	e, gs := newTestGame(t)
	bears := putPermanent(t, e, gs, "alice", vanillaCreature("Bears", 2, 2))
	gs.mu.Lock()
	gs.layers.Add(effects.NewPTBoost("anthem", bears.ID, 2, 2, effects.DurationPermanent))
	gs.mu.Unlock()

	view, err := e.View(gs.id, "alice")
	require.NoError(t, err)
	require.Len(t, view.Battlefield, 1)
	assert.Equal(t, 4, view.Battlefield[0].Power, "view should show layered power")
}

func TestTokenSpell_CreatesTokens(t *testing.T) {
	e, gs := newTestGame(t)
	soldier := CardSpec{
		Name:      "Soldier",
		Types:     []string{TypeCreature},
		Power:     1,
		Toughness: 1,
		Token:     true,
	}
	alarm := putInHand(t, e, gs, "alice", CardSpec{
		Name:     "Raise the Alarm",
		ManaCost: "1W",
		Types:    []string{TypeInstant},
		Spell: []EffectSpec{
			{Kind: EffectCreateToken, Token: &soldier},
			{Kind: EffectCreateToken, Token: &soldier},
		},
	})
	advanceTo(t, e, gs, rules.StepUpkeep)
	addMana(gs, "alice", mana.White, 2)

	require.NoError(t, e.CastSpell(gs.id, "alice", alarm.ID, nil))
	passBoth(t, e, gs)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	tokens := 0
	for _, cardID := range gs.battlefield {
		card := gs.cards[cardID]
		if card.Token && card.Name == "Soldier" {
			tokens++
			assert.True(t, card.SummoningSick, "fresh token should be summoning sick")
		}
	}
	assert.Equal(t, 2, tokens)
}

func TestAura_AttachesAndBoosts(t *testing.T) {
	e, gs := newTestGame(t)
	bears := putPermanent(t, e, gs, "alice", vanillaCreature("Bears", 2, 2))
	aura := putInHand(t, e, gs, "alice", CardSpec{
		Name:     "Holy Strength",
		ManaCost: "W",
		Types:    []string{TypeEnchantment, TypeAura},
		Spell:    []EffectSpec{{Kind: EffectBoost, Power: 1, Toughness: 2}},
	})
	advanceTo(t, e, gs, rules.StepPrecombatMain)
	addMana(gs, "alice", mana.White, 1)

	require.NoError(t, e.CastSpell(gs.id, "alice", aura.ID, []string{bears.ID}))
	passBoth(t, e, gs)

	gs.mu.RLock()
	require.Equal(t, ZoneBattlefield, aura.Zone)
	require.Equal(t, bears.ID, aura.AttachedTo)
	assert.Equal(t, 4, e.effectiveToughness(gs, bears))
	gs.mu.RUnlock()

	// Killing the host orphans the aura; its boost leaves with it.
	gs.mu.Lock()
	bears.Damage = 4
	e.runStateBasedActions(gs)
	gs.mu.Unlock()

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, ZoneGraveyard, aura.Zone, "orphaned aura goes to the graveyard")
	assert.Zero(t, gs.layers.Size(), "the boost leaves with the aura")
}

func TestEventLog_RecordsActions(t *testing.T) {
	e, gs := newTestGame(t)
	land := putInHand(t, e, gs, "alice", mountainSpec())
	advanceTo(t, e, gs, rules.StepPrecombatMain)
	require.NoError(t, e.PlayLand(gs.id, "alice", land.ID))

	messages, err := e.EventLog(gs.id)
	require.NoError(t, err)
	found := false
	for _, msg := range messages {
		if msg.Kind == "action" {
			found = true
		}
	}
	assert.True(t, found, "playing a land should append to the event log")
}

func TestCurrentStep_ReportsTurnState(t *testing.T) {
	e, gs := newTestGame(t)
	advanceTo(t, e, gs, rules.StepPrecombatMain)

	phase, step, turn, err := e.CurrentStep(gs.id)
	require.NoError(t, err)
	assert.Equal(t, "PRECOMBAT_MAIN", phase)
	assert.Equal(t, "PRECOMBAT_MAIN", step)
	assert.Equal(t, 1, turn)
}

func TestNotifications_DeliveredInOrder(t *testing.T) {
	e := NewEngine(zaptest.NewLogger(t))
	received := make(chan Notification, 64)
	e.SetNotificationHandler(func(n Notification) {
		received <- n
	})

	require.NoError(t, e.StartGame("ordered", []PlayerSetup{
		{ID: "alice", Deck: testDeck(30)},
		{ID: "bob", Deck: testDeck(30)},
	}))
	gs, err := e.getGame("ordered")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, e.AdvanceStep(gs.id))
	}

	// Handlers run on the dispatch goroutine, so drain with a deadline.
	var steps []string
	deadline := time.After(2 * time.Second)
	for len(steps) < 4 {
		select {
		case n := <-received:
			switch n.Type {
			case "GAME_STARTED":
				steps = append(steps, "START")
			case "STEP_CHANGED":
				steps = append(steps, n.Data["step"].(string))
			}
		case <-deadline:
			t.Fatalf("timed out waiting for notifications, got %v", steps)
		}
	}

	assert.Equal(t, []string{"START", "UPKEEP", "DRAW", "PRECOMBAT_MAIN"}, steps)
}
