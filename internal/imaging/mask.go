package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/parallel"
	"golang.org/x/image/vector"
)

// Polygon is a closed polygon given by its vertices in pixel coordinates.
// The last vertex connects back to the first.
type Polygon []image.Point

// DefaultRegion returns the lane region of interest for an image with the
// given bounds: a triangle from the bottom-left corner through the image
// center to the bottom-right corner, covering the lower half of the frame.
//
//	(W/2, H/2)
//	    /\
//	   /  \
//	  /____\
//	(0,H)  (W,H)
func DefaultRegion(bounds image.Rectangle) Polygon {
	w, h := bounds.Dx(), bounds.Dy()
	return Polygon{
		bounds.Min.Add(image.Pt(0, h)),
		bounds.Min.Add(image.Pt(w/2, h/2)),
		bounds.Min.Add(image.Pt(w, h)),
	}
}

// PolygonMask rasterizes poly into an alpha mask covering bounds.
//
// Vertices are treated as pixel centers. A pixel belongs to the polygon when
// at least half of its area is covered, so the result is strictly binary:
// 255 inside, 0 outside. Polygons with fewer than three vertices are empty.
// The mask bounds start at (0,0); poly is interpreted relative to bounds.Min.
func PolygonMask(bounds image.Rectangle, poly Polygon) *image.Alpha {
	w, h := bounds.Dx(), bounds.Dy()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if len(poly) < 3 || w == 0 || h == 0 {
		return mask
	}

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	for i, p := range poly {
		q := p.Sub(bounds.Min)
		fx, fy := float32(q.X)+0.5, float32(q.Y)+0.5
		if i == 0 {
			z.MoveTo(fx, fy)
		} else {
			z.LineTo(fx, fy)
		}
	}
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
			for x, a := range row {
				if a >= 128 {
					row[x] = 255
				} else {
					row[x] = 0
				}
			}
		}
	})

	return mask
}

// MaskGray keeps the pixels of img that fall inside poly and zeroes the rest.
//
// This is a bitwise AND of img with a mask that is 255 inside the polygon,
// so pixel values inside the polygon are returned unchanged. The result is a
// new image with bounds starting at (0,0); img is not modified.
func MaskGray(img *image.Gray, poly Polygon) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mask := PolygonMask(bounds, poly)
	result := image.NewGray(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			src := img.Pix[y*img.Stride : y*img.Stride+w]
			m := mask.Pix[y*mask.Stride : y*mask.Stride+w]
			dst := result.Pix[y*result.Stride : y*result.Stride+w]
			for x := range dst {
				dst[x] = src[x] & m[x]
			}
		}
	})

	return result
}

// toRGBA returns img as an *image.RGBA with bounds starting at (0,0).
// An *image.RGBA that already starts at the origin is returned as is.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
