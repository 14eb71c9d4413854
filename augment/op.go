package augment

import (
	"strings"

	"github.com/pkg/errors"
)

// Op identifies one augmentation operation. The set of operations is closed:
// dispatch is keyed on the enum value, so an Op outside the declared constants
// can only be produced by an invalid conversion.
type Op uint8

const (
	Red Op = iota
	Green
	Blue
	Hue
	Saturation
	Brightness
	Contrast
	Gamma
	Solarize
	Posterize
	Sharpen
	Emboss
	Blur
	Noise
	Jpeg
	Tone
	Autocontrast
	Equalize
	Grayscale
	Invert
	Identity
	ShearX
	ShearY
	TranslateX
	TranslateY
	Rotate

	numOps
)

var opNames = [numOps]string{
	Red:          "red",
	Green:        "green",
	Blue:         "blue",
	Hue:          "hue",
	Saturation:   "saturation",
	Brightness:   "brightness",
	Contrast:     "contrast",
	Gamma:        "gamma",
	Solarize:     "solarize",
	Posterize:    "posterize",
	Sharpen:      "sharpen",
	Emboss:       "emboss",
	Blur:         "blur",
	Noise:        "noise",
	Jpeg:         "jpeg",
	Tone:         "tone",
	Autocontrast: "autocontrast",
	Equalize:     "equalize",
	Grayscale:    "grayscale",
	Invert:       "invert",
	Identity:     "identity",
	ShearX:       "shearx",
	ShearY:       "sheary",
	TranslateX:   "translatex",
	TranslateY:   "translatey",
	Rotate:       "rotate",
}

func (op Op) String() string {
	if op >= numOps {
		return "invalid"
	}
	return opNames[op]
}

// ParseOp converts an operation name (case-insensitive) to its Op value.
func ParseOp(name string) (Op, error) {
	lower := strings.ToLower(name)
	for op, opName := range opNames {
		if opName == lower {
			return Op(op), nil
		}
	}
	return numOps, errors.Wrapf(ErrUnsupportedOp,
		"operation %q not supported, select from: %s", name, allowedOps())
}

// allowedOps returns the comma-separated list of all operation names, used in
// error messages.
func allowedOps() string {
	return strings.Join(opNames[:], ", ")
}

type opSet [numOps]bool

func newOpSet(ops ...Op) (s opSet) {
	for _, op := range ops {
		s[op] = true
	}
	return
}

var (
	// boolBoundOps fire without a magnitude: their bounds only declare
	// membership in the space.
	boolBoundOps = newOpSet(Autocontrast, Equalize, Grayscale, Invert, Identity)

	// intBoundOps sample from an inclusive integer range.
	intBoundOps = newOpSet(Solarize, Posterize, Jpeg)

	// nonNegativeOps reject a negative low bound.
	nonNegativeOps = newOpSet(Red, Green, Blue, Saturation, Brightness, Contrast,
		Gamma, Solarize, Sharpen, Emboss, Blur, Noise, Jpeg, Tone)

	// distortionOps is the exclusive group of geometric warps: the incremental
	// strategy caps how many of these may fire in one run.
	distortionOps = newOpSet(ShearX, ShearY, TranslateX, TranslateY, Rotate)
)

// IsDistortion reports whether op belongs to the exclusive group of geometric
// warps capped by IncrementalStrategy.
func (op Op) IsDistortion() bool {
	return op < numOps && distortionOps[op]
}
