package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellground/spellground-go/internal/game/keyword"
	"github.com/spellground/spellground-go/internal/game/rules"
)

// declareAttack drives the game into the declare attackers step and
// sends the given creature at bob.
func declareAttack(t *testing.T, e *Engine, gs *gameState, attacker *Card) {
	t.Helper()
	advanceTo(t, e, gs, rules.StepDeclareAttackers)
	require.NoError(t, e.DeclareAttacker(gs.id, "alice", attacker.ID, "bob"))
}

func declareBlock(t *testing.T, e *Engine, gs *gameState, blocker, attacker *Card) {
	t.Helper()
	advanceTo(t, e, gs, rules.StepDeclareBlockers)
	require.NoError(t, e.DeclareBlocker(gs.id, "bob", blocker.ID, attacker.ID))
}

func TestCombat_TradeAndSurvive(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Bears", 2, 2))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Wall", 2, 3))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, blocker, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, ZoneGraveyard, attacker.Zone, "attacker should have died")
	assert.Equal(t, ZoneBattlefield, blocker.Zone, "blocker should survive")
	assert.Equal(t, 2, blocker.Damage)
	assert.Equal(t, DefaultStartingLife, gs.players["bob"].Life,
		"blocked attacker must not leak damage to bob")
}

func TestCombat_UnblockedHitsPlayer(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Giant", 3, 3))

	declareAttack(t, e, gs, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, DefaultStartingLife-3, gs.players["bob"].Life)
}

func TestCombat_TrampleRemainderToPlayer(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Wurm", 5, 5, "Trample"))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Chump", 1, 1))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, blocker, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, ZoneGraveyard, blocker.Zone, "blocker should have died")
	assert.Equal(t, DefaultStartingLife-4, gs.players["bob"].Life, "trample remainder")
}

func TestCombat_BlockedNonTramplerDealsNothingToPlayer(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Giant", 5, 5))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Chump", 1, 1))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, blocker, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, DefaultStartingLife, gs.players["bob"].Life)
}

func TestCombat_DeathtouchMutualKill(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Rat", 1, 1, "Deathtouch"))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Colossus", 5, 5))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, blocker, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, ZoneGraveyard, blocker.Zone, "one deathtouch damage should kill the 5/5")
	assert.Equal(t, ZoneGraveyard, attacker.Zone, "the 1/1 should die to 5 damage back")
	assert.Equal(t, DefaultStartingLife, gs.players["bob"].Life,
		"blocked attacker must not touch bob's life")
}

func TestCombat_DeathtouchTrampleAssignsOneLethal(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Horror", 4, 4, "Deathtouch", "Trample"))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Tower", 0, 6))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, blocker, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, ZoneGraveyard, blocker.Zone, "deathtouch should destroy the 0/6 blocker")
	assert.Equal(t, DefaultStartingLife-3, gs.players["bob"].Life,
		"1 lethal assigned, 3 tramples over")
}

func TestCombat_FirstStrikeKillsBeforeRetaliation(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Knight", 2, 2, "FirstStrike"))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Bears", 2, 2))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, blocker, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, ZoneGraveyard, blocker.Zone, "blocker should die in the first-strike sub-step")
	assert.Equal(t, ZoneBattlefield, attacker.Zone, "first striker should be unharmed")
	assert.Zero(t, attacker.Damage)
}

func TestCombat_DoubleStrikeDealsBothSubSteps(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Swiftblade", 3, 1, "DoubleStrike"))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Wall", 0, 7))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, blocker, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, 6, blocker.Damage, "two sub-steps of 3 damage each")
}

func TestCombat_LifelinkGainsOnDamage(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Nighthawk", 2, 3, "Lifelink"))

	declareAttack(t, e, gs, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, DefaultStartingLife+2, gs.players["alice"].Life, "lifelink gain")
	assert.Equal(t, DefaultStartingLife-2, gs.players["bob"].Life)
}

func TestCombat_VigilanceDoesNotTap(t *testing.T) {
	e, gs := newTestGame(t)
	watchful := putPermanent(t, e, gs, "alice", vanillaCreature("Angel", 4, 4, "Vigilance"))
	normal := putPermanent(t, e, gs, "alice", vanillaCreature("Bears", 2, 2))

	advanceTo(t, e, gs, rules.StepDeclareAttackers)
	require.NoError(t, e.DeclareAttacker(gs.id, "alice", watchful.ID, "bob"))
	require.NoError(t, e.DeclareAttacker(gs.id, "alice", normal.ID, "bob"))

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.False(t, watchful.Tapped, "vigilance attacker should stay untapped")
	assert.True(t, normal.Tapped, "normal attacker should be tapped")
}

func TestCombat_DefenderCannotAttack(t *testing.T) {
	e, gs := newTestGame(t)
	wall := putPermanent(t, e, gs, "alice", vanillaCreature("Wall", 0, 8, "Defender"))

	advanceTo(t, e, gs, rules.StepDeclareAttackers)
	assert.Error(t, e.DeclareAttacker(gs.id, "alice", wall.ID, "bob"),
		"creature with defender must not attack")
}

func TestCombat_SummoningSickCannotAttackWithoutHaste(t *testing.T) {
	e, gs := newTestGame(t)
	sick := putPermanent(t, e, gs, "alice", vanillaCreature("Bears", 2, 2))
	hasty := putPermanent(t, e, gs, "alice", vanillaCreature("Raider", 2, 2, "Haste"))
	gs.mu.Lock()
	sick.SummoningSick = true
	hasty.SummoningSick = true
	gs.mu.Unlock()

	advanceTo(t, e, gs, rules.StepDeclareAttackers)
	assert.Error(t, e.DeclareAttacker(gs.id, "alice", sick.ID, "bob"),
		"summoning-sick creature must not attack")
	assert.NoError(t, e.DeclareAttacker(gs.id, "alice", hasty.ID, "bob"),
		"haste should ignore summoning sickness")
}

func TestCombat_FlyingBlockedOnlyByFlyingOrReach(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Dragon", 5, 5, "Flying"))
	grounded := putPermanent(t, e, gs, "bob", vanillaCreature("Bears", 2, 2))
	spider := putPermanent(t, e, gs, "bob", vanillaCreature("Spider", 1, 4, "Reach"))

	declareAttack(t, e, gs, attacker)
	advanceTo(t, e, gs, rules.StepDeclareBlockers)

	assert.Error(t, e.DeclareBlocker(gs.id, "bob", grounded.ID, attacker.ID),
		"ground creature must not block a flyer")
	assert.NoError(t, e.DeclareBlocker(gs.id, "bob", spider.ID, attacker.ID),
		"reach should block a flyer")
}

func TestCombat_MenaceDropsSingleBlocker(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Brute", 3, 3, "Menace"))
	lone := putPermanent(t, e, gs, "bob", vanillaCreature("Bears", 2, 2))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, lone, attacker)
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	// The single block is illegal against menace and is removed when
	// blocks finalize, so the attacker connects with bob.
	assert.Equal(t, DefaultStartingLife-3, gs.players["bob"].Life, "single block removed")
	assert.Zero(t, lone.Damage, "removed blocker must take no damage")
}

func TestCombat_MenaceAllowsDoubleBlock(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Brute", 3, 3, "Menace"))
	first := putPermanent(t, e, gs, "bob", vanillaCreature("Bears", 2, 2))
	second := putPermanent(t, e, gs, "bob", vanillaCreature("Rats", 1, 1))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, first, attacker)
	require.NoError(t, e.DeclareBlocker(gs.id, "bob", second.ID, attacker.ID))
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, DefaultStartingLife, gs.players["bob"].Life, "double block should hold")
	assert.Equal(t, ZoneGraveyard, attacker.Zone, "attacker should die to 3 combined damage")
}

func TestCombat_DamageOrderAcrossBlockers(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Giant", 4, 4))
	first := putPermanent(t, e, gs, "bob", vanillaCreature("Bears", 2, 2))
	second := putPermanent(t, e, gs, "bob", vanillaCreature("Wall", 0, 5))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, first, attacker)
	require.NoError(t, e.DeclareBlocker(gs.id, "bob", second.ID, attacker.ID))
	require.NoError(t, e.OrderBlockers(gs.id, "alice", attacker.ID, []string{first.ID, second.ID}))
	advanceTo(t, e, gs, rules.StepCombatDamage)

	gs.mu.RLock()
	defer gs.mu.RUnlock()
	assert.Equal(t, ZoneGraveyard, first.Zone, "first-ordered blocker should get lethal")
	// Remainder piles onto the last blocker since the attacker cannot
	// trample past it.
	assert.Equal(t, 2, second.Damage)
}

func TestCombat_OrderBlockersRejectsBadPermutation(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Giant", 4, 4))
	first := putPermanent(t, e, gs, "bob", vanillaCreature("Bears", 2, 2))
	second := putPermanent(t, e, gs, "bob", vanillaCreature("Wall", 0, 5))

	declareAttack(t, e, gs, attacker)
	declareBlock(t, e, gs, first, attacker)
	require.NoError(t, e.DeclareBlocker(gs.id, "bob", second.ID, attacker.ID))

	assert.Error(t, e.OrderBlockers(gs.id, "bob", attacker.ID, []string{first.ID, second.ID}),
		"only the attacking player may order blockers")
	assert.Error(t, e.OrderBlockers(gs.id, "alice", attacker.ID, []string{first.ID}),
		"order must list every blocker exactly once")
	assert.Error(t, e.OrderBlockers(gs.id, "alice", attacker.ID, []string{first.ID, first.ID}),
		"order must not repeat a blocker")
}

func TestCombat_GrantedKeywordCountsInCombat(t *testing.T) {
	e, gs := newTestGame(t)
	attacker := putPermanent(t, e, gs, "alice", vanillaCreature("Dragon", 3, 3, "Flying"))
	blocker := putPermanent(t, e, gs, "bob", vanillaCreature("Bears", 2, 2))

	gs.mu.Lock()
	hasFlying := e.hasCapability(gs, attacker, keyword.Flying)
	gs.mu.Unlock()
	require.True(t, hasFlying, "attacker should have flying")

	declareAttack(t, e, gs, attacker)
	advanceTo(t, e, gs, rules.StepDeclareBlockers)
	assert.Error(t, e.DeclareBlocker(gs.id, "bob", blocker.ID, attacker.ID),
		"non-flyer should not block the dragon")
}
