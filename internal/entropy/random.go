// Package entropy supplies the random sources behind every stochastic
// choice in the simulator: generation, weighted rule draws and final
// tie-breaks. All sources are seedable so runs can be replayed.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is the randomness a decision needs. *math/rand.Rand satisfies it.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
}

// New returns a seeded source. A zero seed draws one from crypto/rand.
func New(seed int64) *mrand.Rand {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return mrand.New(mrand.NewSource(seed))
}

// Derive returns a child seed for an independent stream (one per agent,
// one for generation). Same parent and salt always give the same child.
func Derive(seed int64, salt int64) int64 {
	// splitmix64 finaliser.
	z := uint64(seed) + uint64(salt)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	out := int64(z &^ (1 << 63))
	if out == 0 {
		out = 1
	}
	return out
}

// CryptoSeed generates a non-zero seed using crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed seed.
		return 1
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))
	if s == 0 {
		s = 1
	}
	return s
}
