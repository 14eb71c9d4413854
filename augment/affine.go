package augment

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// affineFill is the color exposed by geometric warps, a mid-gray.
var affineFill = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// shearX shears horizontally by the given angle in degrees, about the image
// center, keeping the canvas size.
func shearX(img *image.NRGBA, degrees float64) *image.NRGBA {
	f := math.Tan(degrees * math.Pi / 180)
	return affineNearest(img, func(x, y, cx, cy float64) (float64, float64) {
		return x + f*(y-cy), y
	})
}

// shearY shears vertically by the given angle in degrees.
func shearY(img *image.NRGBA, degrees float64) *image.NRGBA {
	f := math.Tan(degrees * math.Pi / 180)
	return affineNearest(img, func(x, y, cx, cy float64) (float64, float64) {
		return x, y + f*(x-cx)
	})
}

// affineNearest applies an inverse-mapped affine warp with nearest-neighbor
// sampling: inv maps each destination pixel to its source coordinates, and
// destinations falling outside the source get the fill color.
func affineNearest(img *image.NRGBA, inv func(x, y, cx, cy float64) (sx, sy float64)) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := imaging.New(w, h, affineFill)
	cx, cy := float64(w-1)/2, float64(h-1)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := inv(float64(x), float64(y), cx, cy)
			ix, iy := int(math.Round(sx)), int(math.Round(sy))
			if ix < 0 || ix >= w || iy < 0 || iy >= h {
				continue
			}
			di := y*out.Stride + x*4
			si := iy*img.Stride + ix*4
			copy(out.Pix[di:di+4], img.Pix[si:si+4])
		}
	}
	return out
}

// translate shifts the image by (dx, dy) pixels, filling the exposed strip.
func translate(img *image.NRGBA, dx, dy int) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	bg := imaging.New(w, h, affineFill)
	return imaging.Paste(bg, img, image.Pt(dx, dy))
}

// rotate turns the image counter-clockwise by the given angle in degrees.
// imaging.Rotate grows the canvas to fit, so the result is cropped back to
// the original size around the center.
func rotate(img *image.NRGBA, degrees float64) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rotated := imaging.Rotate(img, degrees, affineFill)
	return imaging.CropCenter(rotated, w, h)
}
