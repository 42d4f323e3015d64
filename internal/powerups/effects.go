package powerups

import (
	"time"

	"github.com/samber/lo"
)

// maxAutoClicks caps how many cells an auto click picks
const maxAutoClicks = 5

// Hint asks the presentation layer to show or clear a visual or automation
// effect on the board.
type Hint struct {
	PowerUp Definition
	Cells   []Cell
	Speed   float64 // game speed factor, slow motion only
	Until   time.Time
}

// applyEffect mutates the session for def and returns the hint to show, if
// the effect has one.
func applyEffect(def Definition, session *Session, until time.Time) *Hint {
	session.mu.Lock()
	defer session.mu.Unlock()

	st := &session.State
	switch def.Effect {
	case EffectAddTime:
		st.TimeRemaining += def.Value
	case EffectAddLife:
		st.Lives += int(def.Value)
	case EffectFreezeTime:
		st.TimerFrozen = true
	case EffectMultiplyScore:
		st.ScoreMultiplier *= def.Value
	case EffectBoostCombo:
		st.ComboMultiplier *= def.Value
	case EffectShield, EffectSecondChance, EffectLuckyStreak:
		active, count := consumableFields(st, def.Effect)
		*active = true
		*count = def.Uses()
	case EffectHighlightColors, EffectRainbowVision, EffectAutoClick, EffectSlowMotion:
		return buildHint(def, session.cells(), until)
	}
	return nil
}

// reverseEffect undoes applyEffect. Callers must have already removed the
// instance from the active set.
func reverseEffect(inst *ActivePowerUp) *Hint {
	session := inst.session
	if session == nil {
		return nil
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	st := &session.State
	switch inst.Effect {
	case EffectFreezeTime:
		st.TimerFrozen = false
	case EffectMultiplyScore:
		st.ScoreMultiplier /= inst.Value
	case EffectBoostCombo:
		st.ComboMultiplier /= inst.Value
	case EffectShield, EffectSecondChance, EffectLuckyStreak:
		active, count := consumableFields(st, inst.Effect)
		*active = false
		*count = 0
	case EffectHighlightColors, EffectRainbowVision, EffectAutoClick, EffectSlowMotion:
		return &Hint{PowerUp: inst.Definition, Until: inst.ExpiresAt}
	}
	return nil
}

func consumableFields(st *State, kind EffectKind) (*bool, *int) {
	switch kind {
	case EffectShield:
		return &st.ShieldActive, &st.ShieldCount
	case EffectSecondChance:
		return &st.SecondChanceActive, &st.SecondChanceCount
	default:
		return &st.LuckyStreakActive, &st.LuckyStreakCount
	}
}

func buildHint(def Definition, cells []Cell, until time.Time) *Hint {
	hint := &Hint{PowerUp: def, Until: until}

	correct := lo.Filter(cells, func(c Cell, _ int) bool { return c.Correct })
	switch def.Effect {
	case EffectSlowMotion:
		hint.Speed = def.Value
	case EffectAutoClick:
		if len(correct) > maxAutoClicks {
			correct = correct[:maxAutoClicks]
		}
		hint.Cells = correct
	default:
		hint.Cells = correct
	}
	return hint
}
