package judge

import "math"

const maxComboMultiplier = 2.0

func tierWeight(t Tier) float64 {
	switch t {
	case TierPerfect:
		return 1.0
	case TierGreat:
		return 0.7
	case TierGood:
		return 0.4
	case TierBad:
		return 0.1
	default:
		return 0.0
	}
}

// record applies one judgment to the scoreboard. The combo multiplier is
// evaluated against the combo value before this judgment's combo update.
func (s *State) record(t Tier) {
	mult := 1.0 + float64(s.Game.Combo)/100
	if mult > maxComboMultiplier {
		mult = maxComboMultiplier
	}
	s.Game.Score += int(math.Floor(s.basePerNote * tierWeight(t) * mult))

	switch t {
	case TierPerfect:
		s.Game.Judgments.Perfect++
		s.bumpCombo(1)
	case TierGreat:
		s.Game.Judgments.Great++
		s.bumpCombo(1)
	case TierGood:
		s.Game.Judgments.Good++
		s.bumpCombo(1)
	case TierBad:
		s.Game.Judgments.Bad++
		s.Game.Combo = 0
	case TierMiss:
		s.Game.Judgments.Miss++
		s.Game.Combo = 0
	}
}

func (s *State) bumpCombo(n int) {
	if n <= 0 {
		return
	}
	s.Game.Combo += n
	if s.Game.Combo > s.Game.MaxCombo {
		s.Game.MaxCombo = s.Game.Combo
	}
}
