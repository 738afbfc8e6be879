package combat

import (
	"fmt"
	"strings"
)

type factionPair struct {
	attacker, defender Faction
}

// FactionTable maps an (attacker, defender) pair to a damage multiplier.
// Pairs are directional: demon beats human does not imply the reverse.
type FactionTable struct {
	edges map[factionPair]float64
}

// FactionEdge is one directional advantage entry.
type FactionEdge struct {
	Attacker   Faction
	Defender   Faction
	Multiplier float64
}

func DefaultFactionTable() FactionTable {
	return NewFactionTable([]FactionEdge{
		{Attacker: FactionDemon, Defender: FactionHuman, Multiplier: 1.25},
		{Attacker: FactionHuman, Defender: FactionAngel, Multiplier: 1.20},
		{Attacker: FactionAngel, Defender: FactionDemon, Multiplier: 1.30},
	})
}

func NewFactionTable(edges []FactionEdge) FactionTable {
	t := FactionTable{edges: map[factionPair]float64{}}
	for _, e := range edges {
		if e.Multiplier <= 0 {
			continue
		}
		t.edges[factionPair{e.Attacker, e.Defender}] = e.Multiplier
	}
	return t
}

// Advantage returns the multiplier for attacker hitting defender; 1.0 when
// the pair has no entry, including same-faction pairs.
func (t FactionTable) Advantage(attacker, defender Faction) float64 {
	if attacker == defender {
		return 1.0
	}
	if m, ok := t.edges[factionPair{attacker, defender}]; ok {
		return m
	}
	return 1.0
}

func ParseFaction(s string) (Faction, error) {
	switch f := Faction(strings.ToLower(strings.TrimSpace(s))); f {
	case FactionHuman, FactionDemon, FactionAngel, FactionNeutral:
		return f, nil
	case "":
		return FactionNeutral, nil
	default:
		return "", fmt.Errorf("unknown faction %q", s)
	}
}
