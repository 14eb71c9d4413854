package augment

import (
	"math"
	"math/rand"

	"github.com/jopo666/StrongAugment/internal/xslices"
	"github.com/pkg/errors"
)

// AppliedOp is one realized step of a policy: the operation plus its frozen
// magnitude arguments. Boolean operations carry no arguments; tone carries
// two; noise carries its magnitude plus the seed of its noise pattern, so a
// replay reproduces the exact same pixels.
type AppliedOp struct {
	Op   Op
	Args []float64
}

// Strategy decides how many operations one run applies and which ones. The
// two implementations, CountStrategy and IncrementalStrategy, are distinct
// policies and are never mixed.
type Strategy interface {
	// plan produces the ordered list of operations with frozen magnitudes.
	// keys is the sorted key set of space.
	plan(rng *rand.Rand, space Space, keys []Op) []AppliedOp
}

// sampleArgs draws the magnitude arguments for op from its bounds.
func sampleArgs(op Op, b Bounds, rng *rand.Rand) []float64 {
	switch {
	case op == Tone:
		// Two independent draws, fixed order.
		return []float64{b.sample(rng), b.sample(rng)}
	case op == Noise:
		// The second argument seeds the noise pattern.
		return []float64{b.sample(rng), float64(rng.Int63())}
	case b.Kind == Bool:
		return nil
	default:
		return []float64{b.sample(rng)}
	}
}

// CountStrategy draws the operation count from a categorical distribution and
// then that many distinct operations uniformly without replacement. The pick
// order is the application order.
//
// Boolean operations always fire once selected; there is no extra coin flip.
type CountStrategy struct {
	counts []int
	probs  []float64
}

// NewCountStrategy builds a CountStrategy from candidate operation counts and
// their selection probabilities. Both slices must have the same (non-zero)
// length and probs must form a categorical distribution.
func NewCountStrategy(counts []int, probs []float64) (*CountStrategy, error) {
	if len(counts) != len(probs) {
		return nil, errors.Wrapf(ErrConfig,
			"operation counts length (%d) does not match probabilities length (%d)",
			len(counts), len(probs))
	}
	if len(counts) == 0 {
		return nil, errors.Wrap(ErrConfig, "operation counts are empty")
	}
	var sum float64
	for i, p := range probs {
		if p < 0 {
			return nil, errors.Wrapf(ErrConfig, "probability #%d is negative (%g)", i, p)
		}
		if counts[i] < 0 {
			return nil, errors.Wrapf(ErrConfig, "operation count #%d is negative (%d)", i, counts[i])
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return nil, errors.Wrapf(ErrConfig, "probabilities sum to %g, expected 1", sum)
	}
	return &CountStrategy{
		counts: append([]int(nil), counts...),
		probs:  append([]float64(nil), probs...),
	}, nil
}

func (s *CountStrategy) plan(rng *rand.Rand, space Space, keys []Op) []AppliedOp {
	k := s.counts[categorical(rng, s.probs)]
	if k > len(keys) {
		k = len(keys)
	}
	// Partial Fisher-Yates: the first k entries end up being k distinct
	// operations in pick order.
	pool := append([]Op(nil), keys...)
	plan := make([]AppliedOp, 0, k)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		op := pool[i]
		plan = append(plan, AppliedOp{Op: op, Args: sampleArgs(op, space[op], rng)})
	}
	return plan
}

// categorical draws an index from the distribution given by probs.
func categorical(rng *rand.Rand, probs []float64) int {
	r := rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}

// IncrementalStrategy pops operations one at a time from a shrinking pool.
// Distortion-group operations beyond the MaxDistortion quota are skipped, and
// boolean operations flip a fair coin to decide whether they fire. After each
// applied operation the run stops once at least MinOps have been applied and
// either MaxOps is reached or a continuation flip against P fails.
//
// Termination is structural: skipped operations still leave the pool, so the
// loop always ends even with P == 1.
type IncrementalStrategy struct {
	p              float64
	minOps, maxOps int
	maxDistortion  int
}

// NewIncrementalStrategy builds an IncrementalStrategy. All constraints are
// enforced here; sampling itself never fails.
func NewIncrementalStrategy(p float64, minOps, maxOps, maxDistortion int) (*IncrementalStrategy, error) {
	if p < 0 || p > 1 {
		return nil, errors.Wrapf(ErrConfig, "continuation probability %g outside [0, 1]", p)
	}
	if minOps < 0 {
		return nil, errors.Wrapf(ErrConfig, "minimum operation count is negative (%d)", minOps)
	}
	if minOps > maxOps {
		return nil, errors.Wrapf(ErrConfig,
			"minimum operation count (%d) above maximum (%d)", minOps, maxOps)
	}
	if maxDistortion < 0 {
		return nil, errors.Wrapf(ErrConfig, "distortion cap is negative (%d)", maxDistortion)
	}
	return &IncrementalStrategy{p: p, minOps: minOps, maxOps: maxOps, maxDistortion: maxDistortion}, nil
}

func (s *IncrementalStrategy) plan(rng *rand.Rand, space Space, keys []Op) []AppliedOp {
	if s.maxOps == 0 {
		return nil
	}
	pool := append([]Op(nil), keys...)
	applied, distorted := 0, 0
	var plan []AppliedOp
	for len(pool) > 0 {
		i := rng.Intn(len(pool))
		pool[i], pool[len(pool)-1] = pool[len(pool)-1], pool[i]
		var op Op
		op, pool = xslices.Pop(pool)
		b := space[op]
		if distortionOps[op] && distorted >= s.maxDistortion {
			continue
		}
		if b.Kind == Bool && rng.Intn(2) == 0 {
			// Coin flip decided the boolean operation does not fire.
			continue
		}
		plan = append(plan, AppliedOp{Op: op, Args: sampleArgs(op, b, rng)})
		if distortionOps[op] {
			distorted++
		}
		applied++
		if applied >= s.minOps && (applied >= s.maxOps || rng.Float64() >= s.p) {
			break
		}
	}
	return plan
}
