package common

import "github.com/MichaelTJones/pcg"

// pcgSequence selects the PCG stream; any odd constant works.
const pcgSequence = 0xda3e39cb94b95bdb

// Rand is a seedable random source backed by PCG32.
// It is not safe for concurrent use; each vehicle or env owns its own.
type Rand struct {
	r *pcg.PCG32
}

// NewRand returns a Rand seeded with seed.
func NewRand(seed int64) *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.Seed(seed)
	return r
}

// Seed resets the generator state.
func (r *Rand) Seed(seed int64) {
	r.r.Seed(uint64(seed), pcgSequence)
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.r.Random()) / (1 << 32)
}

// Uniform returns a value in [lo, hi). The bounds may be given in either
// order; equal bounds return lo.
func (r *Rand) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("common: Intn called with non-positive n")
	}
	return int(r.r.Bounded(uint32(n)))
}
