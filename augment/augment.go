// Package augment implements randomized image augmentation for training data
// diversification: each call samples a policy -- an ordered sequence of
// operations with magnitudes drawn from a configurable space -- and applies
// it to the image. The last sampled policy is kept so it can be replayed
// verbatim on another image.
package augment

import (
	"image"
	"image/draw"
	"math/rand"
	"slices"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// StrongAugment samples and applies augmentation policies. Augment like
// there's no tomorrow!
//
// A StrongAugment is not safe for concurrent use: Apply overwrites the
// recorded policy that Replay reads. Callers that augment in parallel should
// create one instance per worker (see the shift package).
type StrongAugment struct {
	space    Space
	keys     []Op
	strategy Strategy
	rng      *rand.Rand
	last     []AppliedOp
}

// Option configures a StrongAugment at construction.
type Option func(*StrongAugment)

// WithSeed makes the instance's random draws reproducible: the same seed and
// call order produce bit-for-bit identical policies.
func WithSeed(seed int64) Option {
	return func(sa *StrongAugment) {
		sa.rng = rand.New(rand.NewSource(seed))
	}
}

// New builds a StrongAugment over the given space and strategy. A nil space
// selects DefaultSpace(); a nil strategy selects CountStrategy with counts
// (2, 3, 4) and probabilities (0.5, 0.3, 0.2). The space is validated here
// and construction fails atomically on any violation.
func New(space Space, strategy Strategy, opts ...Option) (*StrongAugment, error) {
	if space == nil {
		space = DefaultSpace()
	}
	if err := space.Validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		var err error
		strategy, err = NewCountStrategy([]int{2, 3, 4}, []float64{0.5, 0.3, 0.2})
		if err != nil {
			return nil, err
		}
	}
	keys := maps.Keys(space)
	slices.Sort(keys)
	sa := &StrongAugment{
		space:    space,
		keys:     keys,
		strategy: strategy,
		rng:      rand.New(rand.NewSource(time.Now().UTC().UnixNano())),
	}
	for _, opt := range opts {
		opt(sa)
	}
	return sa, nil
}

// Apply augments the image with a freshly sampled policy. The input buffer is
// never mutated. Grayscale inputs (*image.Gray or *image.Gray16) are promoted
// to RGB for the kernels and demoted back on exit, so a gray image comes back
// as *image.Gray; color inputs come back as *image.NRGBA.
//
// The sampled policy replaces the one recorded by the previous call.
func (sa *StrongAugment) Apply(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, errors.Wrap(ErrImage, "Apply called with a nil image")
	}
	plan := sa.strategy.plan(sa.rng, sa.space, sa.keys)
	out := run(img, plan)
	sa.last = plan
	return out, nil
}

// Replay re-applies the policy recorded by the most recent Apply to img, with
// no new sampling. Given the same input image it produces pixel-identical
// output to the original run.
func (sa *StrongAugment) Replay(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, errors.Wrap(ErrImage, "Replay called with a nil image")
	}
	if len(sa.last) == 0 {
		return nil, errors.Wrap(ErrNoHistory, "Replay requires a previous Apply call")
	}
	return run(img, sa.last), nil
}

// LastRun returns a copy of the policy applied by the most recent Apply call,
// in application order. Empty before the first call.
func (sa *StrongAugment) LastRun() []AppliedOp {
	out := make([]AppliedOp, len(sa.last))
	for i, step := range sa.last {
		out[i] = AppliedOp{Op: step.Op, Args: append([]float64(nil), step.Args...)}
	}
	return out
}

// run threads the image through the plan: each kernel consumes the previous
// kernel's output.
func run(img image.Image, plan []AppliedOp) image.Image {
	gray := isGrayscale(img)
	buf := imaging.Clone(img)
	for _, step := range plan {
		buf = dispatch(buf, step)
	}
	if gray {
		return toGray(buf)
	}
	return buf
}

func isGrayscale(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}
	return false
}

func toGray(img *image.NRGBA) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
