package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Randomizer is the random source behind dice and shuffles.
// *rand.Rand satisfies it; tests inject scripted sources.
type Randomizer interface {
	Intn(n int) int
}

// NewRandomizer returns a deterministic source for the given seed
func NewRandomizer(seed int64) Randomizer {
	return rand.New(rand.NewSource(seed))
}

// NewSecureRandomizer returns a source seeded from crypto/rand
func NewSecureRandomizer() Randomizer {
	return NewRandomizer(cryptoSeed())
}

func cryptoSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Int63()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// RollDice rolls two independent six-sided dice
func RollDice(rng Randomizer) Dice {
	return Dice{rng.Intn(6) + 1, rng.Intn(6) + 1}
}
