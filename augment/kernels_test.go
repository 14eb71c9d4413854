package augment

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage builds a deterministic color gradient.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			img.Pix[i+0] = uint8((x*7 + y*3) % 256)
			img.Pix[i+1] = uint8((x*5 + y*11) % 256)
			img.Pix[i+2] = uint8((x*13 + y) % 256)
			img.Pix[i+3] = 255
		}
	}
	return img
}

func flatImage(w, h int, r, g, b uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
	}
	return img
}

func apply(img *image.NRGBA, op Op, args ...float64) *image.NRGBA {
	return dispatch(img, AppliedOp{Op: op, Args: args})
}

func TestIdentityMagnitudes(t *testing.T) {
	img := testImage(37, 29)
	tests := []struct {
		name string
		op   Op
		args []float64
	}{
		{"red 1", Red, []float64{1.0}},
		{"green 1", Green, []float64{1.0}},
		{"blue 1", Blue, []float64{1.0}},
		{"hue 0", Hue, []float64{0.0}},
		{"saturation 1", Saturation, []float64{1.0}},
		{"brightness 1", Brightness, []float64{1.0}},
		{"contrast 1", Contrast, []float64{1.0}},
		{"gamma 1", Gamma, []float64{1.0}},
		{"sharpen 0", Sharpen, []float64{0.0}},
		{"emboss 0", Emboss, []float64{0.0}},
		{"blur 0", Blur, []float64{0.0}},
		{"noise 0", Noise, []float64{0.0, 12345}},
		{"solarize 256", Solarize, []float64{256}},
		{"posterize 8", Posterize, []float64{8}},
		{"tone linear", Tone, []float64{1.0 / 3.0, 2.0 / 3.0}},
		{"rotate 0", Rotate, []float64{0.0}},
		{"identity", Identity, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out := apply(img, test.op, test.args...)
			assert.Equal(t, img.Pix, out.Pix)
		})
	}
}

func TestZeroMagnitudes(t *testing.T) {
	img := testImage(41, 23)

	out := apply(img, Brightness, 0.0)
	for i := 0; i < len(out.Pix); i += 4 {
		require.Zero(t, out.Pix[i+0])
		require.Zero(t, out.Pix[i+1])
		require.Zero(t, out.Pix[i+2])
	}

	out = apply(img, Gamma, 0.0)
	for i := 0; i < len(out.Pix); i += 4 {
		require.EqualValues(t, 255, out.Pix[i+0])
		require.EqualValues(t, 255, out.Pix[i+1])
		require.EqualValues(t, 255, out.Pix[i+2])
	}
}

func TestChannelZeroTouchesOnlyItsChannel(t *testing.T) {
	img := testImage(16, 16)
	for channel, op := range []Op{Red, Green, Blue} {
		out := apply(img, op, 0.0)
		for i := 0; i < len(out.Pix); i += 4 {
			for c := 0; c < 3; c++ {
				if c == channel {
					require.Zero(t, out.Pix[i+c])
				} else {
					require.Equal(t, img.Pix[i+c], out.Pix[i+c])
				}
			}
		}
	}
}

func TestKernelsDoNotMutateInput(t *testing.T) {
	img := testImage(19, 17)
	before := append([]uint8(nil), img.Pix...)
	for op := Red; op < numOps; op++ {
		b := DistortionSpace()[op]
		var args []float64
		switch {
		case op == Tone:
			args = []float64{0.2, 0.8}
		case op == Noise:
			args = []float64{0.5, 99}
		case b.Kind == Bool:
			args = nil
		default:
			args = []float64{(b.Low + b.High) / 2}
		}
		apply(img, op, args...)
		require.Equal(t, before, img.Pix, "operation %s mutated its input", op)
	}
}

func TestGrayscaleKernel(t *testing.T) {
	out := apply(testImage(12, 12), Grayscale)
	for i := 0; i < len(out.Pix); i += 4 {
		require.Equal(t, out.Pix[i+0], out.Pix[i+1])
		require.Equal(t, out.Pix[i+1], out.Pix[i+2])
	}
}

func TestInvertTwiceIsIdentity(t *testing.T) {
	img := testImage(12, 12)
	out := apply(apply(img, Invert), Invert)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestSolarizeZeroInvertsEverything(t *testing.T) {
	img := testImage(12, 12)
	assert.Equal(t, apply(img, Invert).Pix, apply(img, Solarize, 0).Pix)
}

func TestNoiseIsSeeded(t *testing.T) {
	img := testImage(12, 12)
	a := apply(img, Noise, 0.2, 42)
	b := apply(img, Noise, 0.2, 42)
	c := apply(img, Noise, 0.2, 43)
	assert.Equal(t, a.Pix, b.Pix)
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestTranslateFillsExposedRegion(t *testing.T) {
	img := testImage(10, 10)
	out := apply(img, TranslateX, 4)
	// The exposed strip on the left is mid-gray.
	for y := 0; y < 10; y++ {
		for x := 0; x < 4; x++ {
			i := y*out.Stride + x*4
			require.EqualValues(t, 128, out.Pix[i+0])
			require.EqualValues(t, 128, out.Pix[i+1])
			require.EqualValues(t, 128, out.Pix[i+2])
		}
	}
	// The rest is the shifted original.
	for y := 0; y < 10; y++ {
		for x := 4; x < 10; x++ {
			di := y*out.Stride + x*4
			si := y*img.Stride + (x-4)*4
			require.Equal(t, img.Pix[si:si+3], out.Pix[di:di+3])
		}
	}
}

func TestGeometricOpsPreserveCanvas(t *testing.T) {
	img := testImage(33, 21)
	for _, op := range []Op{ShearX, ShearY, TranslateX, TranslateY, Rotate} {
		out := apply(img, op, 15.0)
		assert.Equal(t, 33, out.Rect.Dx(), "%s changed width", op)
		assert.Equal(t, 21, out.Rect.Dy(), "%s changed height", op)
	}
}

func TestAutocontrastOnFlatImage(t *testing.T) {
	img := flatImage(8, 8, 70, 120, 200)
	out := apply(img, Autocontrast)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestEqualizeIsDeterministic(t *testing.T) {
	img := testImage(24, 24)
	a := apply(img, Equalize)
	b := apply(img, Equalize)
	assert.Equal(t, a.Pix, b.Pix)
	assert.Equal(t, img.Rect, a.Rect)
}

func TestJpegPreservesShape(t *testing.T) {
	img := testImage(24, 16)
	out := apply(img, Jpeg, 50)
	assert.Equal(t, img.Rect, out.Rect)
	// Near-max quality stays close to the input.
	outHQ := apply(img, Jpeg, 100)
	assert.Equal(t, img.Rect, outHQ.Rect)
}

func TestDispatchPanicsOnUnknownOp(t *testing.T) {
	img := testImage(4, 4)
	require.Panics(t, func() { dispatch(img, AppliedOp{Op: Op(200)}) })
}
