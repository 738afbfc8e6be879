package config

// FactionsConfig lists directional damage advantages. Pairs not listed
// deal neutral damage.
type FactionsConfig struct {
	Advantages []AdvantageDef `yaml:"advantages"`
}

type AdvantageDef struct {
	Attacker   string  `yaml:"attacker"`
	Defender   string  `yaml:"defender"`
	Multiplier float64 `yaml:"multiplier"`
	Note       string  `yaml:"note"`
}
