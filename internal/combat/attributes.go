package combat

const (
	AttributeMin = 0.0
	AttributeMax = 999.0
)

type Attributes struct {
	Command  float64 `json:"command"`
	Strength float64 `json:"strength"`
	Strategy float64 `json:"strategy"`
	Defense  float64 `json:"defense"`
}

func (a Attributes) Clamp() Attributes {
	return Attributes{
		Command:  clamp(a.Command, AttributeMin, AttributeMax),
		Strength: clamp(a.Strength, AttributeMin, AttributeMax),
		Strategy: clamp(a.Strategy, AttributeMin, AttributeMax),
		Defense:  clamp(a.Defense, AttributeMin, AttributeMax),
	}
}

// Scale multiplies every attribute by f and clamps the result.
func (a Attributes) Scale(f float64) Attributes {
	return Attributes{
		Command:  a.Command * f,
		Strength: a.Strength * f,
		Strategy: a.Strategy * f,
		Defense:  a.Defense * f,
	}.Clamp()
}

// AttributeModifier holds per-attribute multipliers; the zero value is not
// neutral, use NeutralModifier.
type AttributeModifier struct {
	Command  float64 `json:"command"`
	Strength float64 `json:"strength"`
	Strategy float64 `json:"strategy"`
	Defense  float64 `json:"defense"`
}

func NeutralModifier() AttributeModifier {
	return AttributeModifier{Command: 1, Strength: 1, Strategy: 1, Defense: 1}
}

// Apply returns an adjusted copy; a stays untouched.
func (m AttributeModifier) Apply(a Attributes) Attributes {
	return Attributes{
		Command:  a.Command * m.Command,
		Strength: a.Strength * m.Strength,
		Strategy: a.Strategy * m.Strategy,
		Defense:  a.Defense * m.Defense,
	}.Clamp()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
