package augment

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Kind tags the primitive type of a bound pair.
type Kind uint8

const (
	Float Kind = iota
	Int
	Bool
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Bool:
		return "bool"
	}
	return "invalid"
}

// Bounds is the (low, high) magnitude range for one operation. Low and High
// share the same Kind; boolean operations carry no numeric range at all.
type Bounds struct {
	Kind      Kind
	Low, High float64
}

// FloatBounds builds a continuous uniform range [low, high].
func FloatBounds(low, high float64) Bounds {
	return Bounds{Kind: Float, Low: low, High: high}
}

// IntBounds builds an inclusive integer range {low, ..., high}.
func IntBounds(low, high int) Bounds {
	return Bounds{Kind: Int, Low: float64(low), High: float64(high)}
}

// BoolBounds declares a boolean operation: selected means eligible to fire,
// no magnitude is sampled.
func BoolBounds() Bounds {
	return Bounds{Kind: Bool}
}

// sample draws one magnitude from the bounds. Must not be called for Bool
// bounds, which have no magnitude.
func (b Bounds) sample(rng *rand.Rand) float64 {
	if b.Kind == Int {
		low, high := int(b.Low), int(b.High)
		return float64(low + rng.Intn(high-low+1))
	}
	return b.Low + rng.Float64()*(b.High-b.Low)
}

// Space maps each operation to the bounds its magnitudes are sampled from.
// A Space is validated once at construction of a StrongAugment and treated as
// immutable afterward.
type Space map[Op]Bounds

// Per-operation range ceilings and floors.
const (
	hueMin       = -0.5
	hueMax       = 0.5
	solarizeMax  = 256
	posterizeMin = 1
	posterizeMax = 8
	jpegMax      = 100
	toneMax      = 1.0
)

// Validate checks every entry of the space against the per-operation type and
// range rules. It is pure: no side effects, no mutation.
func (s Space) Validate() error {
	if len(s) == 0 {
		return errors.Wrap(ErrConfig, "augmentation space is empty")
	}
	for op, b := range s {
		if op >= numOps {
			return errors.Wrapf(ErrUnsupportedOp,
				"operation #%d not supported, select from: %s", op, allowedOps())
		}
		if err := checkBounds(op, b); err != nil {
			return err
		}
	}
	return nil
}

func checkBounds(op Op, b Bounds) error {
	switch {
	case boolBoundOps[op]:
		if b.Kind != Bool {
			return errors.Wrapf(ErrConfig,
				"bounds for operation %q should be bool, not %s", op, b.Kind)
		}
		return nil
	case intBoundOps[op]:
		if b.Kind != Int {
			return errors.Wrapf(ErrConfig,
				"bounds for operation %q should be int, not %s", op, b.Kind)
		}
	default:
		// Float operations also accept integer bounds.
		if b.Kind != Float && b.Kind != Int {
			return errors.Wrapf(ErrConfig,
				"bounds for operation %q should be float, not %s", op, b.Kind)
		}
	}
	if b.Low > b.High {
		return errors.Wrapf(ErrConfig,
			"bounds for operation %q should have low <= high, got (%g, %g)",
			op, b.Low, b.High)
	}
	if b.Low < 0 && nonNegativeOps[op] {
		return errors.Wrapf(ErrConfig,
			"negative values are not allowed for operation %q", op)
	}
	switch op {
	case Hue:
		if b.Low < hueMin || b.High > hueMax {
			return rangeError(op, hueMin, hueMax)
		}
	case Solarize:
		if b.High > solarizeMax {
			return rangeError(op, 0, solarizeMax)
		}
	case Posterize:
		if b.Low < posterizeMin || b.High > posterizeMax {
			return rangeError(op, posterizeMin, posterizeMax)
		}
	case Jpeg:
		if b.High > jpegMax {
			return rangeError(op, 0, jpegMax)
		}
	case Tone:
		if b.High > toneMax {
			return rangeError(op, 0, toneMax)
		}
	}
	return nil
}

func rangeError(op Op, low, high float64) error {
	return errors.Wrapf(ErrConfig,
		"bounds for operation %q should be between [%g, %g]", op, low, high)
}

// DefaultSpace returns a fresh copy of the default augmentation space used
// with CountStrategy. Every call returns an independent map, so callers can
// tweak it without affecting other instances.
func DefaultSpace() Space {
	return Space{
		Red:          FloatBounds(0.0, 2.0),
		Green:        FloatBounds(0.0, 2.0),
		Blue:         FloatBounds(0.0, 2.0),
		Hue:          FloatBounds(-0.5, 0.5),
		Saturation:   FloatBounds(0.0, 2.0),
		Brightness:   FloatBounds(0.1, 2.0),
		Contrast:     FloatBounds(0.1, 2.0),
		Gamma:        FloatBounds(0.1, 2.0),
		Solarize:     IntBounds(0, 255),
		Posterize:    IntBounds(1, 8),
		Sharpen:      FloatBounds(0.0, 1.0),
		Emboss:       FloatBounds(0.0, 1.0),
		Blur:         FloatBounds(0.0, 3.0),
		Noise:        FloatBounds(0.0, 0.2),
		Jpeg:         IntBounds(0, 100),
		Tone:         FloatBounds(0.0, 1.0),
		Autocontrast: BoolBounds(),
		Equalize:     BoolBounds(),
		Grayscale:    BoolBounds(),
	}
}

// DistortionSpace extends DefaultSpace with the geometric warps and the
// remaining parameterless operations. It is the space meant for
// IncrementalStrategy, whose distortion cap applies to the warps.
// Shear and rotation bounds are in degrees, translations in pixels.
func DistortionSpace() Space {
	s := DefaultSpace()
	s[Invert] = BoolBounds()
	s[Identity] = BoolBounds()
	s[ShearX] = FloatBounds(-30.0, 30.0)
	s[ShearY] = FloatBounds(-30.0, 30.0)
	s[TranslateX] = FloatBounds(-32.0, 32.0)
	s[TranslateY] = FloatBounds(-32.0, 32.0)
	s[Rotate] = FloatBounds(-45.0, 45.0)
	return s
}
