package game

import (
	"fmt"

	"github.com/spellground/spellground-go/internal/game/rules"
	"go.uber.org/zap"
)

// PassPriority records that the priority player passes. When every
// player in the game has passed in succession, the top of the stack
// resolves (or, with an empty stack, the turn advances to the next
// step); otherwise priority moves to the next player in turn order.
func (e *Engine) PassPriority(gameID, playerID string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.status != StatusInProgress {
		return ruleErrorf("game is over")
	}
	player, err := gs.player(playerID)
	if err != nil {
		return err
	}
	if gs.turns.PriorityPlayer() != playerID {
		return ruleErrorf("%s does not have priority", playerID)
	}
	if !player.canRespond() {
		return ruleErrorf("%s is no longer in the game", playerID)
	}

	// Pending triggers go on the stack before a pass can count.
	if e.queueWaitingTriggers(gs) {
		return nil
	}

	player.Passed = true

	if !gs.allPassed() {
		next := gs.nextPlayerAfter(playerID)
		if next == "" {
			return nil
		}
		gs.turns.SetPriority(next)
		return nil
	}

	if !gs.stack.IsEmpty() {
		e.resolveTop(gs)
		return nil
	}
	e.advanceStep(gs)
	return nil
}

// resolveTop pops and resolves the top stack item, then runs state-based
// actions, puts any resulting triggers on the stack and reopens the
// priority window with the active player.
func (e *Engine) resolveTop(gs *gameState) {
	item, err := gs.stack.Pop()
	if err != nil {
		return
	}
	gs.addMessage(fmt.Sprintf("%s resolves", item.Description), "resolve")

	if item.Resolve != nil {
		if err := item.Resolve(); err != nil {
			// A failed resolution effect still counts as resolved; the
			// item does not go back on the stack.
			e.logger.Warn("resolution effect failed",
				zap.String("game_id", gs.id),
				zap.String("item", item.Description),
				zap.Error(err),
			)
			gs.addMessage(fmt.Sprintf("%s had no effect: %v", item.Description, err), "resolve")
		}
	}
	e.fireEvent(gs, rules.NewEvent(rules.EventStackItemResolved, item.ID, item.SourceID, item.Controller))

	e.runStateBasedActions(gs)
	e.queueWaitingTriggers(gs)
	gs.resetPassed()
	gs.turns.SetPriority(gs.turns.ActivePlayer())
	e.notify(Notification{
		Type:   "STACK_RESOLVED",
		GameID: gs.id,
		Data:   map[string]any{"item": item.Description, "stack_size": gs.stack.Size()},
	})
}

// AdvanceStep is the external step-advance entry point, for drivers that
// move the game along without a full pass-around. It refuses to skip
// over a non-empty stack.
func (e *Engine) AdvanceStep(gameID string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.status != StatusInProgress {
		return ruleErrorf("game is over")
	}
	if !gs.stack.IsEmpty() {
		return ruleErrorf("cannot advance the step while the stack is not empty")
	}
	if e.queueWaitingTriggers(gs) {
		return ruleErrorf("triggered abilities are waiting on the stack")
	}
	e.advanceStep(gs)
	return nil
}

// advanceStep closes the current step and opens the next one. Mana
// pools empty at every step boundary, before the step-start turn-based
// actions run.
func (e *Engine) advanceStep(gs *gameState) {
	e.endStepActions(gs)

	for _, player := range gs.players {
		player.Pool.Empty()
	}

	nextActive := ""
	if gs.turns.CurrentStep() == rules.StepCleanup {
		nextActive = gs.nextPlayerAfter(gs.turns.ActivePlayer())
	}
	phase, step := gs.turns.AdvanceStep(nextActive)
	gs.resetPassed()

	if step == rules.StepUntap {
		e.fireEvent(gs, rules.NewEvent(rules.EventBeginTurn, "", "", gs.turns.ActivePlayer()))
		gs.addMessage(fmt.Sprintf("Turn %d, %s", gs.turns.TurnNumber(), gs.turns.ActivePlayer()), "turn")
	}
	gs.addMessage(fmt.Sprintf("%s / %s", phase, step), "step")
	e.fireEvent(gs, rules.NewEvent(rules.EventStepChanged, "", "", gs.turns.ActivePlayer()))

	e.beginStep(gs)

	e.notify(Notification{
		Type:     "STEP_CHANGED",
		GameID:   gs.id,
		PlayerID: gs.turns.ActivePlayer(),
		Data: map[string]any{
			"phase": phase.String(),
			"step":  step.String(),
			"turn":  gs.turns.TurnNumber(),
		},
	})
}

// beginStep runs the new step's turn-based actions, then state-based
// actions, then queues triggers so the first priority window of the step
// sees a settled state.
func (e *Engine) beginStep(gs *gameState) {
	e.stepAction(gs)
	e.runStateBasedActions(gs)
	e.queueWaitingTriggers(gs)
	gs.turns.SetPriority(gs.turns.ActivePlayer())
}
