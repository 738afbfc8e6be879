package util

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source is the only way combat code draws randomness. *rand.Rand satisfies
// it; tests substitute scripted sources to force crit/dodge outcomes.
type Source interface {
	Float64() float64
	Intn(n int) int
}

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// TrialSeed derives the seed of the i-th independent trial so results do not
// depend on which worker happens to run it.
func TrialSeed(base int64, i int) int64 {
	return base + int64(i)*7919
}

// NewSeed returns a high-entropy seed for runs that did not ask for one.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Pick returns a uniformly random index in [0, n), or -1 when n is 0.
func Pick(rng Source, n int) int {
	if n <= 0 {
		return -1
	}
	return rng.Intn(n)
}

// Chance reports whether a roll lands under p.
func Chance(rng Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return rng.Float64() < p
}
