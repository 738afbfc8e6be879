package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"battlesim/internal/combat"
)

const defaultMorale = 50.0

var ErrInvalidRoster = errors.New("invalid roster")

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// Files is the raw content of a roster directory.
type Files struct {
	Heroes   HeroesConfig
	Skills   SkillsConfig
	Teams    TeamsConfig
	Factions *FactionsConfig
}

// LoadAll reads heroes.yaml, skills.yaml, teams.yaml and the optional
// factions.yaml from dir.
func LoadAll(dir string) (*Files, error) {
	var f Files
	if err := loadYAML(filepath.Join(dir, "heroes.yaml"), &f.Heroes); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "skills.yaml"), &f.Skills); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "teams.yaml"), &f.Teams); err != nil {
		return nil, err
	}
	var fc FactionsConfig
	switch err := loadYAML(filepath.Join(dir, "factions.yaml"), &fc); {
	case err == nil:
		f.Factions = &fc
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return &f, nil
}

// Roster is a validated, ready-to-fight view of Files.
type Roster struct {
	Heroes   combat.Heroes
	Skills   *combat.SkillBook
	Teams    map[string]combat.Team
	Factions combat.FactionTable
}

func (r *Roster) Team(id string) (combat.Team, error) {
	t, ok := r.Teams[id]
	if !ok {
		return combat.Team{}, fmt.Errorf("%w: unknown team %q", ErrInvalidRoster, id)
	}
	return t, nil
}

// Build converts the raw definitions and rejects anything the engine could
// only treat as a silent no-op: unknown conditions, kinds, factions and
// skill references. Team members naming unknown heroes are kept; the engine
// skips them.
func (f *Files) Build() (*Roster, error) {
	skills := make([]combat.Skill, 0, len(f.Skills.Skills))
	seen := map[string]bool{}
	for _, d := range f.Skills.Skills {
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: duplicate skill %q", ErrInvalidRoster, d.ID)
		}
		seen[d.ID] = true
		sk, err := d.build()
		if err != nil {
			return nil, fmt.Errorf("skill %q: %w", d.ID, err)
		}
		skills = append(skills, sk)
	}
	book := combat.NewSkillBook(skills)

	heroes := make([]combat.Hero, 0, len(f.Heroes.Heroes))
	seen = map[string]bool{}
	for _, d := range f.Heroes.Heroes {
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: duplicate hero %q", ErrInvalidRoster, d.ID)
		}
		seen[d.ID] = true
		h, err := d.build(book)
		if err != nil {
			return nil, fmt.Errorf("hero %q: %w", d.ID, err)
		}
		heroes = append(heroes, h)
	}

	teams := make(map[string]combat.Team, len(f.Teams.Teams))
	for _, d := range f.Teams.Teams {
		if _, dup := teams[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate team %q", ErrInvalidRoster, d.ID)
		}
		t, err := d.build()
		if err != nil {
			return nil, fmt.Errorf("team %q: %w", d.ID, err)
		}
		teams[d.ID] = t
	}

	factions := combat.DefaultFactionTable()
	if f.Factions != nil {
		var err error
		if factions, err = f.Factions.build(); err != nil {
			return nil, err
		}
	}

	return &Roster{
		Heroes:   combat.IndexHeroes(heroes),
		Skills:   book,
		Teams:    teams,
		Factions: factions,
	}, nil
}

func (d SkillDef) build() (combat.Skill, error) {
	typ, err := combat.ParseSkillType(d.Type)
	if err != nil {
		return combat.Skill{}, err
	}
	if d.CD < 0 {
		return combat.Skill{}, fmt.Errorf("%w: negative cooldown", ErrInvalidRoster)
	}
	sk := combat.Skill{ID: d.ID, Name: d.Name, Type: typ, Cooldown: d.CD}
	for i, ed := range d.Effects {
		ef, err := ed.build()
		if err != nil {
			return combat.Skill{}, fmt.Errorf("effect %d: %w", i, err)
		}
		sk.Effects = append(sk.Effects, ef)
	}
	return sk, nil
}

func (d EffectDef) build() (combat.SkillEffect, error) {
	kind, err := combat.ParseEffectKind(d.Kind)
	if err != nil {
		return combat.SkillEffect{}, err
	}
	target, err := combat.ParseEffectTarget(d.Target)
	if err != nil {
		return combat.SkillEffect{}, err
	}
	cond, err := combat.ParseCondition(d.Condition)
	if err != nil {
		return combat.SkillEffect{}, err
	}
	ef := combat.SkillEffect{
		Kind:      kind,
		Value:     d.Value,
		Target:    target,
		Condition: cond,
		Duration:  d.Duration,
	}
	if kind == combat.EffectBuff || kind == combat.EffectDebuff {
		ef.Buff = combat.BuffKind(d.Buff)
		if !ef.Buff.Valid() {
			return combat.SkillEffect{}, fmt.Errorf("%w: unknown buff kind %q", ErrInvalidRoster, d.Buff)
		}
	}
	return ef, nil
}

func (d HeroDef) build(book *combat.SkillBook) (combat.Hero, error) {
	faction, err := combat.ParseFaction(d.Faction)
	if err != nil {
		return combat.Hero{}, err
	}
	dt, err := combat.ParseDamageType(d.DamageType)
	if err != nil {
		return combat.Hero{}, err
	}
	skills, err := book.Instantiate(d.Skills)
	if err != nil {
		return combat.Hero{}, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	level := d.Level
	if level <= 0 {
		level = 1
	}
	return combat.Hero{
		ID:         d.ID,
		Name:       d.Name,
		Faction:    faction,
		Level:      level,
		DamageType: dt,
		Attributes: combat.Attributes{
			Command:  d.Attributes.Command,
			Strength: d.Attributes.Strength,
			Strategy: d.Attributes.Strategy,
			Defense:  d.Attributes.Defense,
		}.Clamp(),
		MaxHealth: d.MaxHP,
		MaxMana:   d.MaxMana,
		Skills:    skills,
	}, nil
}

func (d TeamDef) build() (combat.Team, error) {
	morale := defaultMorale
	if d.Morale != nil {
		morale = *d.Morale
	}
	if morale < 0 || morale > 100 {
		return combat.Team{}, fmt.Errorf("%w: morale %.0f outside 0..100", ErrInvalidRoster, morale)
	}
	t := combat.Team{ID: d.ID, Name: d.Name, Morale: morale}
	for i, m := range d.Members {
		if m.MaxHP > 0 && m.HP > m.MaxHP {
			return combat.Team{}, fmt.Errorf("%w: member %d health %d above max %d", ErrInvalidRoster, i, m.HP, m.MaxHP)
		}
		buffs, err := buildBuffs(m.Buffs)
		if err != nil {
			return combat.Team{}, fmt.Errorf("member %d: %w", i, err)
		}
		debuffs, err := buildBuffs(m.Debuffs)
		if err != nil {
			return combat.Team{}, fmt.Errorf("member %d: %w", i, err)
		}
		t.Members = append(t.Members, combat.TeamMember{
			HeroID:        m.Hero,
			CurrentHealth: m.HP,
			MaxHealth:     m.MaxHP,
			Mana:          m.Mana,
			MaxMana:       m.MaxMana,
			Buffs:         buffs,
			Debuffs:       debuffs,
			Position:      m.Position,
		})
	}
	return t, nil
}

func buildBuffs(defs []BuffDef) ([]combat.Buff, error) {
	var out []combat.Buff
	for _, d := range defs {
		kind := combat.BuffKind(d.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: unknown buff kind %q", ErrInvalidRoster, d.Kind)
		}
		out = append(out, combat.Buff{
			ID:                d.ID,
			Kind:              kind,
			Value:             d.Value,
			RemainingDuration: d.Duration,
			Source:            d.Source,
		})
	}
	return out, nil
}

func (c FactionsConfig) build() (combat.FactionTable, error) {
	edges := make([]combat.FactionEdge, 0, len(c.Advantages))
	for _, a := range c.Advantages {
		att, err := combat.ParseFaction(a.Attacker)
		if err != nil {
			return combat.FactionTable{}, err
		}
		def, err := combat.ParseFaction(a.Defender)
		if err != nil {
			return combat.FactionTable{}, err
		}
		if a.Multiplier <= 0 {
			return combat.FactionTable{}, fmt.Errorf("%w: %s->%s multiplier %.2f", ErrInvalidRoster, att, def, a.Multiplier)
		}
		edges = append(edges, combat.FactionEdge{Attacker: att, Defender: def, Multiplier: a.Multiplier})
	}
	return combat.NewFactionTable(edges), nil
}
