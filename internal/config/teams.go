package config

type TeamsConfig struct {
	Teams []TeamDef `yaml:"teams"`
}

type TeamDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Morale defaults to 50 when omitted.
	Morale  *float64    `yaml:"morale"`
	Members []MemberDef `yaml:"members"`
}

type MemberDef struct {
	Hero     string    `yaml:"hero"`
	HP       int       `yaml:"hp"`
	MaxHP    int       `yaml:"max_hp"`
	Mana     int       `yaml:"mana"`
	MaxMana  int       `yaml:"max_mana"`
	Position int       `yaml:"position"`
	Buffs    []BuffDef `yaml:"buffs"`
	Debuffs  []BuffDef `yaml:"debuffs"`
}

type BuffDef struct {
	ID       string  `yaml:"id"`
	Kind     string  `yaml:"kind"`
	Value    float64 `yaml:"value"`
	Duration float64 `yaml:"duration"`
	Source   string  `yaml:"source"`
}
