package combat

const (
	strengthPowerWeight = 1.5
	strategyPowerWeight = 1.3
	defensePowerWeight  = 1.0

	neutralMorale  = 50.0
	moraleDivisor  = 500.0
	winProbFloor   = 0.05
	winProbCeiling = 0.95
)

// MemberPower weighs core attributes by the member's remaining health.
func MemberPower(c *Combatant) float64 {
	a := c.Hero.Attributes
	base := a.Strength*strengthPowerWeight + a.Strategy*strategyPowerWeight + a.Defense*defensePowerWeight
	return base * c.HealthPercent()
}

func (r *Roster) Power() float64 {
	total := 0.0
	for _, c := range r.Members {
		total += MemberPower(c)
	}
	return total
}

// WinProbability is the pre-computed, power-ratio estimate adjusted by
// morale. It is independent of how a simulated battle actually ends.
func WinProbability(attackerPower, defenderPower, attackerMorale, defenderMorale float64) float64 {
	p := 0.5
	if total := attackerPower + defenderPower; total > 0 {
		p = attackerPower / total
	}
	p += (attackerMorale - neutralMorale) / moraleDivisor
	p -= (defenderMorale - neutralMorale) / moraleDivisor
	return clamp(p, winProbFloor, winProbCeiling)
}

// DecideWinner classifies the end state: a side with survivors beats an
// eliminated one; otherwise more survivors win, then higher power.
func DecideWinner(attacker, defender *Roster) Outcome {
	a, d := attacker.AliveCount(), defender.AliveCount()
	switch {
	case a == 0 && d == 0:
		return OutcomeDraw
	case d == 0:
		return OutcomeAttacker
	case a == 0:
		return OutcomeDefender
	case a > d:
		return OutcomeAttacker
	case d > a:
		return OutcomeDefender
	}
	pa, pd := attacker.Power(), defender.Power()
	switch {
	case pa > pd:
		return OutcomeAttacker
	case pd > pa:
		return OutcomeDefender
	default:
		return OutcomeDraw
	}
}
