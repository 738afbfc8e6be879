package combat

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCondition = errors.New("unknown condition")

// Condition is a closed set of predicates over a BattleContext.
type Condition int

const (
	ConditionNone Condition = iota
	ConditionEarlyCombat
	ConditionLateCombat
	ConditionLowHealth
	ConditionHighHealth
	ConditionFieldBattle
	ConditionFortressBattle
	ConditionClearWeather
	ConditionRain
	ConditionFog
	ConditionSnow
)

const (
	earlyCombatRounds = 3
	lateCombatRound   = 10
	lowHealthPercent  = 0.30
	highHealthPercent = 0.70
)

var conditionNames = map[Condition]string{
	ConditionNone:           "",
	ConditionEarlyCombat:    "early_combat",
	ConditionLateCombat:     "late_combat",
	ConditionLowHealth:      "low_health",
	ConditionHighHealth:     "high_health",
	ConditionFieldBattle:    "field_battle",
	ConditionFortressBattle: "fortress_battle",
	ConditionClearWeather:   "clear",
	ConditionRain:           "rain",
	ConditionFog:            "fog",
	ConditionSnow:           "snow",
}

var conditionByName = func() map[string]Condition {
	out := make(map[string]Condition, len(conditionNames))
	for c, n := range conditionNames {
		out[n] = c
	}
	return out
}()

func ParseCondition(s string) (Condition, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := conditionByName[key]; ok {
		return c, nil
	}
	return ConditionNone, fmt.Errorf("%w: %q", ErrUnknownCondition, s)
}

func (c Condition) String() string {
	if n, ok := conditionNames[c]; ok {
		return n
	}
	return fmt.Sprintf("condition(%d)", int(c))
}

func (c Condition) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Condition) UnmarshalText(b []byte) error {
	parsed, err := ParseCondition(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherFog   Weather = "fog"
	WeatherSnow  Weather = "snow"
)

func ParseWeather(s string) (Weather, error) {
	switch w := Weather(strings.ToLower(strings.TrimSpace(s))); w {
	case WeatherClear, WeatherRain, WeatherFog, WeatherSnow:
		return w, nil
	case "":
		return WeatherClear, nil
	default:
		return "", fmt.Errorf("unknown weather %q", s)
	}
}

// Terrain is the fixed battlefield setting of one battle.
type Terrain struct {
	FieldBattle    bool    `json:"field_battle"`
	FortressBattle bool    `json:"fortress_battle"`
	Weather        Weather `json:"weather"`
}

// BattleContext is what conditions are evaluated against.
type BattleContext struct {
	Turn                int
	Round               int
	CasterHealthPercent float64
	IsFieldBattle       bool
	IsFortressBattle    bool
	Weather             Weather
}

func (t Terrain) Context(round, turn int, healthPercent float64) BattleContext {
	return BattleContext{
		Turn:                turn,
		Round:               round,
		CasterHealthPercent: healthPercent,
		IsFieldBattle:       t.FieldBattle,
		IsFortressBattle:    t.FortressBattle,
		Weather:             t.Weather,
	}
}

// Holds reports whether c is satisfied. ConditionNone and unknown values are
// false.
func (c Condition) Holds(ctx BattleContext) bool {
	switch c {
	case ConditionEarlyCombat:
		return ctx.Round <= earlyCombatRounds
	case ConditionLateCombat:
		return ctx.Round >= lateCombatRound
	case ConditionLowHealth:
		return ctx.CasterHealthPercent < lowHealthPercent
	case ConditionHighHealth:
		return ctx.CasterHealthPercent > highHealthPercent
	case ConditionFieldBattle:
		return ctx.IsFieldBattle
	case ConditionFortressBattle:
		return ctx.IsFortressBattle
	case ConditionClearWeather:
		return ctx.Weather == WeatherClear || ctx.Weather == ""
	case ConditionRain:
		return ctx.Weather == WeatherRain
	case ConditionFog:
		return ctx.Weather == WeatherFog
	case ConditionSnow:
		return ctx.Weather == WeatherSnow
	default:
		return false
	}
}

// Applies is Holds, except that an absent condition always applies.
func (c Condition) Applies(ctx BattleContext) bool {
	if c == ConditionNone {
		return true
	}
	return c.Holds(ctx)
}
