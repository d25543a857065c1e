package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// DefaultKernelSize is the Gaussian kernel size used by the lane pipeline.
const DefaultKernelSize = 5

// Grayscale converts img to a single-channel luminance image using the
// BT.601 weights 0.299, 0.587 and 0.114. The result starts at (0,0).
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// GaussianBlur smooths img with a square Gaussian kernel.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - kernelSize: Width and height of the kernel in pixels. Must be a positive
//     odd number; 1 leaves the image untouched.
//
// Returns:
//   - *image.RGBA: The blurred image with bounds starting at (0,0).
//   - error: ErrInvalidKernelSize if kernelSize is even or not positive.
//
// # Kernel Weights
//
// The sigma is derived from the kernel size, so callers only pick a size.
// Sizes 1, 3, 5 and 7 use the fixed binomial tables, e.g. for 5:
//
//	1 4 6 4 1  (/16, applied horizontally and vertically)
//
// Larger sizes sample a Gaussian with sigma = 0.3*((k-1)*0.5 - 1) + 0.8.
// Border pixels use clamped (replicated) edge values. Channel values are
// rounded to the nearest level, so flat regions keep their value.
func GaussianBlur(img image.Image, kernelSize int) (*image.RGBA, error) {
	if kernelSize <= 0 || kernelSize%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKernelSize, kernelSize)
	}

	weights := gaussianWeights(kernelSize)
	k := convolution.NewKernel(kernelSize, kernelSize)
	for y := 0; y < kernelSize; y++ {
		for x := 0; x < kernelSize; x++ {
			k.Matrix[y*kernelSize+x] = weights[x] * weights[y]
		}
	}

	if img.Bounds().Min != (image.Point{}) {
		img = toRGBA(img)
	}

	// Bias 0.5 turns the truncating store into rounding
	return convolution.Convolve(img, k.Normalized(), &convolution.Options{
		Bias:      0.5,
		Wrap:      false,
		KeepAlpha: true,
	}), nil
}

// gaussianWeights returns the normalized 1D Gaussian kernel for size n.
func gaussianWeights(n int) []float64 {
	fixed := map[int][]float64{
		1: {1},
		3: {0.25, 0.5, 0.25},
		5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
		7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
	}
	if w, ok := fixed[n]; ok {
		out := make([]float64, n)
		copy(out, w)
		return out
	}

	sigma := 0.3*(float64(n-1)*0.5-1) + 0.8
	scale := -0.5 / (sigma * sigma)
	out := make([]float64, n)
	var sum float64
	for i := range out {
		x := float64(i) - float64(n-1)*0.5
		out[i] = math.Exp(scale * x * x)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
