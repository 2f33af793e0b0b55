package vm

import "math/rand/v2"

// DefaultSeed seeds the random source when none is configured.
const DefaultSeed = 42

// RandomSource supplies the bytes drawn by CXNN.
type RandomSource interface {
	Byte() uint8
}

type pcgSource struct {
	r *rand.Rand
}

// NewRandomSource returns a deterministic PCG-backed source.
func NewRandomSource(seed uint64) RandomSource {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed))}
}

func (s *pcgSource) Byte() uint8 {
	return uint8(s.r.UintN(256))
}
