package augment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSpacesValidate(t *testing.T) {
	require.NoError(t, DefaultSpace().Validate())
	require.NoError(t, DistortionSpace().Validate())
}

func TestDefaultSpaceIsIndependent(t *testing.T) {
	a := DefaultSpace()
	a[Red] = FloatBounds(0, 1)
	b := DefaultSpace()
	assert.Equal(t, FloatBounds(0.0, 2.0), b[Red])
}

func TestSpaceValidation(t *testing.T) {
	tests := []struct {
		name  string
		space Space
		want  error
	}{
		{"int bounds ok for float op", Space{Red: IntBounds(1, 2)}, nil},
		{"bool bounds rejected for float op", Space{Red: BoolBounds()}, ErrConfig},
		{"bool bounds rejected for int op", Space{Posterize: BoolBounds()}, ErrConfig},
		{"float bounds rejected for int op", Space{Solarize: FloatBounds(0, 100)}, ErrConfig},
		{"int bounds rejected for bool op", Space{Autocontrast: IntBounds(1, 2)}, ErrConfig},
		{"posterize below range", Space{Posterize: IntBounds(0, 2)}, ErrConfig},
		{"posterize above range", Space{Posterize: IntBounds(1, 9)}, ErrConfig},
		{"solarize above range", Space{Solarize: IntBounds(0, 257)}, ErrConfig},
		{"jpeg above range", Space{Jpeg: IntBounds(0, 101)}, ErrConfig},
		{"tone above range", Space{Tone: FloatBounds(0, 1.5)}, ErrConfig},
		{"hue outside range", Space{Hue: FloatBounds(-0.6, 0.5)}, ErrConfig},
		{"hue may be negative", Space{Hue: FloatBounds(-0.5, 0.5)}, nil},
		{"negative bound on non-negative op", Space{Brightness: FloatBounds(-0.1, 1.0)}, ErrConfig},
		{"negative shear allowed", Space{ShearX: FloatBounds(-30, 30)}, nil},
		{"low above high", Space{Red: FloatBounds(2, 1)}, ErrConfig},
		{"unknown operation", Space{Op(200): FloatBounds(0, 1)}, ErrUnsupportedOp},
		{"empty space", Space{}, ErrConfig},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.space.Validate()
			if test.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, test.want)
			}
		})
	}
}

func TestValidationHappensAtConstruction(t *testing.T) {
	_, err := New(Space{Posterize: IntBounds(0, 2)}, nil)
	require.ErrorIs(t, err, ErrConfig)
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp("RED")
	require.NoError(t, err)
	assert.Equal(t, Red, op)

	op, err = ParseOp("translatey")
	require.NoError(t, err)
	assert.Equal(t, TranslateY, op)

	_, err = ParseOp("posterizzzzzzzzze")
	require.ErrorIs(t, err, ErrUnsupportedOp)
	assert.Contains(t, err.Error(), "posterize") // The message lists the allowed set.
}

func TestOpString(t *testing.T) {
	for op := Red; op < numOps; op++ {
		assert.NotEmpty(t, op.String())
		assert.NotEqual(t, "invalid", op.String())
	}
	assert.Equal(t, "invalid", Op(200).String())
}

func TestIsDistortion(t *testing.T) {
	assert.True(t, Rotate.IsDistortion())
	assert.True(t, ShearX.IsDistortion())
	assert.False(t, Red.IsDistortion())
	assert.False(t, Op(200).IsDistortion())
}
