package config

type SkillsConfig struct {
	Skills []SkillDef `yaml:"skills"`
}

type SkillDef struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	CD      float64     `yaml:"cd"`
	Effects []EffectDef `yaml:"effects"`
	Note    string      `yaml:"note"`
}

type EffectDef struct {
	Kind      string  `yaml:"kind"`
	Value     float64 `yaml:"value"`
	Target    string  `yaml:"target"`
	Condition string  `yaml:"condition"`
	Duration  float64 `yaml:"duration"`
	Buff      string  `yaml:"buff"`
}
