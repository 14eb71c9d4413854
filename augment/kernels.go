package augment

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	. "github.com/gomlx/exceptions"
)

// kernel is one pixel transform. It treats its input as borrowed-immutable
// and returns a new buffer; args are the frozen magnitudes of an AppliedOp.
type kernel func(img *image.NRGBA, args []float64) *image.NRGBA

// kernels is the operation registry: a fixed table keyed by the Op enum.
var kernels = [numOps]kernel{
	Red:        func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustChannel(img, args[0], 0) },
	Green:      func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustChannel(img, args[0], 1) },
	Blue:       func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustChannel(img, args[0], 2) },
	Hue:        func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustHue(img, args[0]) },
	Saturation: func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustSaturation(img, args[0]) },
	Brightness: func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustBrightness(img, args[0]) },
	Contrast:   func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustContrast(img, args[0]) },
	Gamma:      func(img *image.NRGBA, args []float64) *image.NRGBA { return adjustGamma(img, args[0]) },
	Solarize:   func(img *image.NRGBA, args []float64) *image.NRGBA { return solarize(img, int(math.Round(args[0]))) },
	Posterize:  func(img *image.NRGBA, args []float64) *image.NRGBA { return posterize(img, int(math.Round(args[0]))) },
	Sharpen:    func(img *image.NRGBA, args []float64) *image.NRGBA { return sharpen(img, args[0]) },
	Emboss:     func(img *image.NRGBA, args []float64) *image.NRGBA { return emboss(img, args[0]) },
	Blur:       func(img *image.NRGBA, args []float64) *image.NRGBA { return gaussianBlur(img, args[0]) },
	Noise:      func(img *image.NRGBA, args []float64) *image.NRGBA { return addNoise(img, args[0], int64(args[1])) },
	Jpeg:       func(img *image.NRGBA, args []float64) *image.NRGBA { return jpegCompress(img, int(math.Round(args[0]))) },
	Tone:       func(img *image.NRGBA, args []float64) *image.NRGBA { return toneShift(img, args[0], args[1]) },

	Autocontrast: func(img *image.NRGBA, _ []float64) *image.NRGBA { return autocontrast(img) },
	Equalize:     func(img *image.NRGBA, _ []float64) *image.NRGBA { return equalize(img) },
	Grayscale:    func(img *image.NRGBA, _ []float64) *image.NRGBA { return toGrayRGB(img) },
	Invert:       func(img *image.NRGBA, _ []float64) *image.NRGBA { return invert(img) },
	Identity:     func(img *image.NRGBA, _ []float64) *image.NRGBA { return imaging.Clone(img) },

	ShearX:     func(img *image.NRGBA, args []float64) *image.NRGBA { return shearX(img, args[0]) },
	ShearY:     func(img *image.NRGBA, args []float64) *image.NRGBA { return shearY(img, args[0]) },
	TranslateX: func(img *image.NRGBA, args []float64) *image.NRGBA { return translate(img, int(math.Round(args[0])), 0) },
	TranslateY: func(img *image.NRGBA, args []float64) *image.NRGBA { return translate(img, 0, int(math.Round(args[0]))) },
	Rotate:     func(img *image.NRGBA, args []float64) *image.NRGBA { return rotate(img, args[0]) },
}

// dispatch looks up the registry and applies one step. An operation outside
// the registry can only be reached through an invalid Op conversion, so it is
// a contract violation, not a recoverable condition.
func dispatch(img *image.NRGBA, step AppliedOp) *image.NRGBA {
	if step.Op >= numOps || kernels[step.Op] == nil {
		Panicf("operation #%d is not in the registry, allowed operations are: %s",
			step.Op, allowedOps())
	}
	return kernels[step.Op](img, step.Args)
}

func clampU8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func scaleU8(v uint8, m float64) uint8 {
	return clampU8(math.Round(float64(v) * m))
}

// luminance of one pixel, using the usual Rec. 601 weights.
func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func adjustChannel(img *image.NRGBA, m float64, channel int) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		switch channel {
		case 0:
			c.R = scaleU8(c.R, m)
		case 1:
			c.G = scaleU8(c.G, m)
		default:
			c.B = scaleU8(c.B, m)
		}
		return c
	})
}

func adjustBrightness(img *image.NRGBA, m float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R, c.G, c.B = scaleU8(c.R, m), scaleU8(c.G, m), scaleU8(c.B, m)
		return c
	})
}

// adjustSaturation blends the image with its grayscale version: 0 is fully
// gray, 1 is the identity, above 1 oversaturates.
func adjustSaturation(img *image.NRGBA, m float64) *image.NRGBA {
	if m == 0 {
		return toGrayRGB(img)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		gray := math.Round(luminance(c.R, c.G, c.B))
		c.R = clampU8(math.Round(m*float64(c.R) + (1-m)*gray))
		c.G = clampU8(math.Round(m*float64(c.G) + (1-m)*gray))
		c.B = clampU8(math.Round(m*float64(c.B) + (1-m)*gray))
		return c
	})
}

// adjustContrast blends the image with its mean luminance: 0 is a flat image,
// 1 is the identity.
func adjustContrast(img *image.NRGBA, m float64) *image.NRGBA {
	mean := meanLuminance(img)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R = clampU8(math.Round(m*float64(c.R) + (1-m)*mean))
		c.G = clampU8(math.Round(m*float64(c.G) + (1-m)*mean))
		c.B = clampU8(math.Round(m*float64(c.B) + (1-m)*mean))
		return c
	})
}

func meanLuminance(img *image.NRGBA) float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			sum += math.Round(luminance(row[x*4], row[x*4+1], row[x*4+2]))
		}
	}
	return sum / float64(w*h)
}

func adjustHue(img *image.NRGBA, m float64) *image.NRGBA {
	// The HSV round-trip is lossy, skip it entirely for a zero shift.
	if m == 0 {
		return imaging.Clone(img)
	}
	shift := m * 360.0
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		h, s, v := rgbToHSV(c.R, c.G, c.B)
		h = math.Mod(h+shift+360.0, 360.0)
		c.R, c.G, c.B = hsvToRGB(h, s, v)
		return c
	})
}

func rgbToHSV(r8, g8, b8 uint8) (h, s, v float64) {
	r, g, b := float64(r8)/255, float64(g8)/255, float64(b8)/255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max > 0 {
		s = d / max
	}
	if d == 0 {
		return 0, s, v
	}
	switch max {
	case r:
		h = 60 * math.Mod((g-b)/d, 6)
	case g:
		h = 60 * ((b-r)/d + 2)
	default:
		h = 60 * ((r-g)/d + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

func hsvToRGB(h, s, v float64) (r8, g8, b8 uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return clampU8(math.Round((r + m) * 255)),
		clampU8(math.Round((g + m) * 255)),
		clampU8(math.Round((b + m) * 255))
}

func adjustGamma(img *image.NRGBA, m float64) *image.NRGBA {
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampU8(math.Round(math.Pow(float64(i)/255, m) * 255))
	}
	return applyLUT(img, &lut)
}

func solarize(img *image.NRGBA, threshold int) *image.NRGBA {
	var lut [256]uint8
	for i := range lut {
		if i < threshold {
			lut[i] = uint8(i)
		} else {
			lut[i] = uint8(255 - i)
		}
	}
	return applyLUT(img, &lut)
}

func posterize(img *image.NRGBA, bits int) *image.NRGBA {
	if bits < 1 {
		bits = 1
	}
	if bits > 8 {
		bits = 8
	}
	mask := uint8(0xFF) << (8 - bits)
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(i) & mask
	}
	return applyLUT(img, &lut)
}

func applyLUT(img *image.NRGBA, lut *[256]uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R, c.G, c.B = lut[c.R], lut[c.G], lut[c.B]
		return c
	})
}

// identityKernel3x3 leaves the image unchanged under convolution; sharpen and
// emboss interpolate between it and their effect kernel, so magnitude 0 is an
// exact no-op.
var identityKernel3x3 = [9]float64{0, 0, 0, 0, 1, 0, 0, 0, 0}

func sharpen(img *image.NRGBA, m float64) *image.NRGBA {
	effect := [9]float64{-1, -1, -1, -1, 9, -1, -1, -1, -1}
	return convolveBlend(img, m, effect)
}

func emboss(img *image.NRGBA, m float64) *image.NRGBA {
	effect := [9]float64{-2, -1, 0, -1, 1, 1, 0, 1, 2}
	return convolveBlend(img, m, effect)
}

func convolveBlend(img *image.NRGBA, m float64, effect [9]float64) *image.NRGBA {
	var k [9]float64
	for i := range k {
		k[i] = (1-m)*identityKernel3x3[i] + m*effect[i]
	}
	return imaging.Convolve3x3(img, k, nil)
}

func gaussianBlur(img *image.NRGBA, sigma float64) *image.NRGBA {
	if sigma <= 0 {
		return imaging.Clone(img)
	}
	return imaging.Blur(img, sigma)
}

// addNoise blends uniform noise into the image. The same noise value is used
// for all three channels of a pixel, and the pattern comes from the seeded
// source recorded in the policy, so replays are bit-exact.
func addNoise(img *image.NRGBA, m float64, seed int64) *image.NRGBA {
	out := imaging.Clone(img)
	rng := rand.New(rand.NewSource(seed))
	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*out.Stride + x*4
			n := float64(rng.Intn(255))
			for c := 0; c < 3; c++ {
				v := float64(out.Pix[i+c])
				out.Pix[i+c] = clampU8(math.Round((1-m)*v + m*n))
			}
		}
	}
	return out
}

// jpegCompress runs the image through a JPEG encode/decode cycle at the given
// quality, introducing the codec's artifacts.
func jpegCompress(img *image.NRGBA, quality int) *image.NRGBA {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		Panicf("jpeg operation failed to encode: %v", err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		Panicf("jpeg operation failed to decode its own output: %v", err)
	}
	return imaging.Clone(decoded)
}

// toneShift remaps pixel values through a cubic Bezier curve with control
// points m0 and m1.
func toneShift(img *image.NRGBA, m0, m1 float64) *image.NRGBA {
	var lut [256]uint8
	for i := range lut {
		t := float64(i) / 255
		bez := 3*(1-t)*(1-t)*t*m0 + 3*(1-t)*t*t*m1 + t*t*t
		lut[i] = clampU8(math.Round(bez * 255))
	}
	return applyLUT(img, &lut)
}

// autocontrast stretches each channel to the full [0, 255] range.
func autocontrast(img *image.NRGBA) *image.NRGBA {
	var lo, hi [3]uint8
	for c := 0; c < 3; c++ {
		lo[c], hi[c] = 255, 0
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			for c := 0; c < 3; c++ {
				v := img.Pix[i+c]
				if v < lo[c] {
					lo[c] = v
				}
				if v > hi[c] {
					hi[c] = v
				}
			}
		}
	}
	var luts [3][256]uint8
	for c := 0; c < 3; c++ {
		if hi[c] <= lo[c] {
			for i := range luts[c] {
				luts[c][i] = uint8(i)
			}
			continue
		}
		scale := 255 / float64(hi[c]-lo[c])
		for i := range luts[c] {
			luts[c][i] = clampU8(math.Round(float64(i-int(lo[c])) * scale))
		}
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R, c.G, c.B = luts[0][c.R], luts[1][c.G], luts[2][c.B]
		return c
	})
}

// equalize applies per-channel histogram equalization.
func equalize(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	total := w * h
	if total == 0 {
		return imaging.Clone(img)
	}
	var luts [3][256]uint8
	for c := 0; c < 3; c++ {
		var hist [256]int
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				hist[img.Pix[y*img.Stride+x*4+c]]++
			}
		}
		var cdf [256]int
		sum := 0
		for i, n := range hist {
			sum += n
			cdf[i] = sum
		}
		cdfMin := 0
		for _, n := range cdf {
			if n > 0 {
				cdfMin = n
				break
			}
		}
		if total == cdfMin {
			// Flat channel, nothing to redistribute.
			for i := range luts[c] {
				luts[c][i] = uint8(i)
			}
			continue
		}
		for i := range luts[c] {
			luts[c][i] = clampU8(math.Round(255 * float64(cdf[i]-cdfMin) / float64(total-cdfMin)))
		}
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R, c.G, c.B = luts[0][c.R], luts[1][c.G], luts[2][c.B]
		return c
	})
}

// toGrayRGB replaces every pixel with its luminance, keeping three channels.
func toGrayRGB(img *image.NRGBA) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		gray := clampU8(math.Round(luminance(c.R, c.G, c.B)))
		c.R, c.G, c.B = gray, gray, gray
		return c
	})
}

func invert(img *image.NRGBA) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R, c.G, c.B = 255-c.R, 255-c.G, 255-c.B
		return c
	})
}
