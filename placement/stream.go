package placement

import "gonum.org/v1/gonum/mathext/prng"

// DefaultSeed is the seed used when a batch does not specify one.
const DefaultSeed uint32 = 42

// Stream is the pseudo-random source consumed by the geometry calculator.
// It wraps a 32-bit Mersenne Twister and derives doubles the same way numpy's
// legacy RandomState does, so a given seed yields the same sequence of
// uniform draws as numpy.random.seed(seed) followed by numpy.random.uniform.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	src   *prng.MT19937
	draws uint64
}

// Create a new stream seeded with seed.
func NewStream(seed uint32) *Stream {
	s := &Stream{src: prng.NewMT19937()}
	s.Seed(seed)
	return s
}

// Reset the stream to the deterministic state derived from seed.
func (s *Stream) Seed(seed uint32) {
	s.src.Seed(uint64(seed))
	s.draws = 0
}

// Return a double in [0, 1) with 53 bits of randomness.
func (s *Stream) Float64() float64 {
	a := s.src.Uint32() >> 5
	b := s.src.Uint32() >> 6
	s.draws++
	return (float64(a)*67108864.0 + float64(b)) / 9007199254740992.0
}

// Return a uniformly distributed value in [low, high).
func (s *Stream) Uniform(low, high float64) float64 {
	return low + (high-low)*s.Float64()
}

// Number of values drawn since the stream was last seeded.
func (s *Stream) Draws() uint64 {
	return s.draws
}
