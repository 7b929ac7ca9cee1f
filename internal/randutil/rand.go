// Package randutil derives isolated deterministic random sources from a
// single int64 seed. Every shuffle in the engine goes through New, so no
// code path ever touches shared or global RNG state.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed. rand/v2's PCG
// wants two 64-bit seeds; both are derived here so every call site gets the
// same reproducible sequence for the same seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// mix is a splitmix64-style finalizer; it spreads nearby seeds across the
// PCG state space so seed=1 and seed=2 produce unrelated sequences.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
