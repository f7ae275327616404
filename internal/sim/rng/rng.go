// Package rng implements the deterministic random number generator the
// whole simulation is built on.
//
// Determinism contract: the same seed string produces the same infinite
// draw sequence, on every run and every platform. Replay, audit, and
// tests all depend on this. Seeds are derived from (gameID, logical tick
// counter) — never wall-clock time — and a generator must not be shared
// across concurrently-running simulation steps, because determinism
// depends on a strict call order.
package rng

import "math"

// ─── Generator ──────────────────────────────────────────────────────────────

// RNG is a seeded generator producing floats in [0, 1).
// Not safe for concurrent use.
type RNG struct {
	state uint32
}

// New creates a generator from a seed string. The seed is reduced to a
// 32-bit FNV-1a hash; draws come from a fast bit-mixing recurrence over
// that state.
func New(seed string) *RNG {
	return &RNG{state: hashSeed(seed)}
}

// hashSeed reduces a seed string to 32 bits via FNV-1a.
func hashSeed(seed string) uint32 {
	const (
		offset uint32 = 2166136261
		prime  uint32 = 16777619
	)
	h := offset
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= prime
	}
	return h
}

// Float64 returns the next draw in [0, 1).
func (r *RNG) Float64() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// ─── Ranged Draws ───────────────────────────────────────────────────────────

// IntBetween returns an integer in [min, max], inclusive on both bounds.
// If max < min the bounds are swapped.
func (r *RNG) IntBetween(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + int(r.Float64()*float64(max-min+1))
}

// Int64Between returns an int64 in [min, max], inclusive on both bounds.
func (r *RNG) Int64Between(min, max int64) int64 {
	if max < min {
		min, max = max, min
	}
	return min + int64(r.Float64()*float64(max-min+1))
}

// FloatBetween returns a float in [min, max).
func (r *RNG) FloatBetween(min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// ─── Collection Draws ───────────────────────────────────────────────────────

// Pick returns a uniformly chosen element. Empty input yields the zero value.
func Pick[T any](r *RNG, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[r.IntBetween(0, len(items)-1)]
}

// WeightedPick chooses an element with probability proportional to its
// weight. The scaled draw has each weight subtracted in turn until it
// goes non-positive; the last element absorbs any floating-point
// remainder. Empty input yields the zero value.
func WeightedPick[T any](r *RNG, items []T, weights []float64) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	i := weightedIndex(r, weights)
	return items[i]
}

// weightedIndex draws an index from the weight distribution.
func weightedIndex(r *RNG, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	draw := r.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw <= 0 {
			return i
		}
	}
	return len(weights) - 1
}

// WeightedSample draws count elements without replacement via repeated
// weighted picks. If count meets or exceeds the population, a copy of
// all items is returned.
func WeightedSample[T any](r *RNG, items []T, weights []float64, count int) []T {
	if count >= len(items) {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}
	if count <= 0 {
		return nil
	}

	pool := make([]T, len(items))
	copy(pool, items)
	w := make([]float64, len(weights))
	copy(w, weights)

	out := make([]T, 0, count)
	for len(out) < count {
		i := weightedIndex(r, w)
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
		w = append(w[:i], w[i+1:]...)
	}
	return out
}

// ─── Distributions ──────────────────────────────────────────────────────────

// Normal draws from a normal distribution via Box–Muller, clamped to
// [min, max]. Both uniform draws are floored away from exactly zero to
// avoid the logarithm singularity.
func (r *RNG) Normal(mean, stddev, min, max float64) float64 {
	u1 := r.Float64()
	if u1 == 0 {
		u1 = 1e-12
	}
	u2 := r.Float64()
	if u2 == 0 {
		u2 = 1e-12
	}

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	v := mean + z*stddev
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
