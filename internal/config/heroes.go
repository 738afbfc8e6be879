package config

type HeroesConfig struct {
	Heroes []HeroDef `yaml:"heroes"`
}

type HeroDef struct {
	ID         string        `yaml:"id"`
	Name       string        `yaml:"name"`
	Faction    string        `yaml:"faction"`
	Level      int           `yaml:"level"`
	DamageType string        `yaml:"damage_type"`
	Attributes AttributesDef `yaml:"attributes"`
	MaxHP      int           `yaml:"max_hp"`
	MaxMana    int           `yaml:"max_mana"`
	Skills     []string      `yaml:"skills"`
	Note       string        `yaml:"note"`
}

type AttributesDef struct {
	Command  float64 `yaml:"command"`
	Strength float64 `yaml:"strength"`
	Strategy float64 `yaml:"strategy"`
	Defense  float64 `yaml:"defense"`
}
