package media

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Fixed parameters of the pixel operations.
const (
	// BlurSigma is the standard deviation of the Gaussian blur kernel.
	BlurSigma = 3.0
	// BrightenFactor is the multiplicative channel gain of brighten.
	BrightenFactor = 1.4
	// PixelBlockSize is the edge length of a pixelate block.
	PixelBlockSize = 10
	// WhiteThreshold is the minimum value of every channel for a pixel to
	// count as background in remove-white-background.
	WhiteThreshold = 240
	// EnhanceContrast is the contrast boost (percent) applied after levels.
	EnhanceContrast = 10
)

// grayscale desaturates using Rec. 601 luma. Alpha is left untouched.
func grayscale(img image.Image) *image.NRGBA {
	return imaging.Grayscale(img)
}

// rotate90 rotates clockwise. imaging rotates counter-clockwise.
func rotate90(img image.Image) *image.NRGBA {
	return imaging.Rotate270(img)
}

// blur convolves with a Gaussian kernel. Samples outside the image take the
// value of the nearest edge pixel. imaging.Blur alone drops those samples
// and renormalizes, so the source is padded with replicated edges first.
func blur(img image.Image, sigma float64) *image.NRGBA {
	if sigma <= 0 {
		return imaging.Clone(img)
	}
	r := blurRadius(sigma)
	b := img.Bounds()
	padded := padEdges(imaging.Clone(img), r)
	return imaging.Crop(imaging.Blur(padded, sigma), image.Rect(r, r, r+b.Dx(), r+b.Dy()))
}

// blurRadius is the kernel reach imaging.Blur uses for sigma.
func blurRadius(sigma float64) int {
	return int(math.Ceil(sigma * 3))
}

// padEdges grows src by r pixels on every side, copying the nearest edge pixel.
func padEdges(src *image.NRGBA, r int) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w+2*r, h+2*r))
	for y := 0; y < h+2*r; y++ {
		sy := min(max(y-r, 0), h-1)
		for x := 0; x < w+2*r; x++ {
			sx := min(max(x-r, 0), w-1)
			si := sy*src.Stride + sx*4
			di := y*dst.Stride + x*4
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// brighten multiplies each color channel by factor and clamps at 255.
func brighten(img image.Image, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampChannel(float64(c.R) * factor),
			G: clampChannel(float64(c.G) * factor),
			B: clampChannel(float64(c.B) * factor),
			A: c.A,
		}
	})
}

// pixelate replaces every block×block tile with the average of its pixels.
// Partial tiles on the right and bottom edges average what they cover.
func pixelate(img image.Image, block int) *image.NRGBA {
	dst := imaging.Clone(img)
	if block <= 1 {
		return dst
	}

	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	for by := 0; by < h; by += block {
		for bx := 0; bx < w; bx += block {
			x1 := min(bx+block, w)
			y1 := min(by+block, h)

			var r, g, b, a, n int
			for y := by; y < y1; y++ {
				i := y*dst.Stride + bx*4
				for x := bx; x < x1; x++ {
					r += int(dst.Pix[i])
					g += int(dst.Pix[i+1])
					b += int(dst.Pix[i+2])
					a += int(dst.Pix[i+3])
					n++
					i += 4
				}
			}

			avg := [4]uint8{
				uint8((r + n/2) / n),
				uint8((g + n/2) / n),
				uint8((b + n/2) / n),
				uint8((a + n/2) / n),
			}
			for y := by; y < y1; y++ {
				i := y*dst.Stride + bx*4
				for x := bx; x < x1; x++ {
					copy(dst.Pix[i:i+4], avg[:])
					i += 4
				}
			}
		}
	}

	return dst
}

// removeWhite zeroes the alpha of every pixel whose channels are all at or
// above threshold.
func removeWhite(img image.Image, threshold uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		if c.R >= threshold && c.G >= threshold && c.B >= threshold {
			c.A = 0
		}
		return c
	})
}

// enhance stretches each color channel to the full range (auto levels) and
// then applies a fixed contrast boost. The result depends only on the input.
func enhance(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)

	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{0, 0, 0}
	for i := 0; i < len(src.Pix); i += 4 {
		if src.Pix[i+3] == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			v := src.Pix[i+c]
			lo[c] = min(lo[c], v)
			hi[c] = max(hi[c], v)
		}
	}

	var lut [3][256]uint8
	for c := 0; c < 3; c++ {
		span := float64(hi[c]) - float64(lo[c])
		for v := 0; v < 256; v++ {
			if span <= 0 {
				lut[c][v] = uint8(v)
				continue
			}
			lut[c][v] = clampChannel((float64(v) - float64(lo[c])) * 255 / span)
		}
	}

	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i] = lut[0][src.Pix[i]]
		src.Pix[i+1] = lut[1][src.Pix[i+1]]
		src.Pix[i+2] = lut[2][src.Pix[i+2]]
	}

	return imaging.AdjustContrast(src, EnhanceContrast)
}

func clampChannel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
