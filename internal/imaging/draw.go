package imaging

import (
	"image"
	"image/color"
	"math"
)

// DrawLine strokes the segment p0-p1 onto dst.
//
// Every pixel whose center lies within thickness/2 of the segment is set to
// c, which yields round caps at both ends. Endpoints may lie outside dst;
// only the visible part is drawn. A thickness below 1 is treated as 1.
func DrawLine(dst *image.RGBA, p0, p1 image.Point, thickness int, c color.Color) {
	if thickness < 1 {
		thickness = 1
	}
	radius := float64(thickness) / 2.0
	col := color.RGBAModel.Convert(c).(color.RGBA)

	x0, y0 := float64(p0.X), float64(p0.Y)
	x1, y1 := float64(p1.X), float64(p1.Y)

	box := image.Rect(
		int(math.Floor(math.Min(x0, x1)-radius)),
		int(math.Floor(math.Min(y0, y1)-radius)),
		int(math.Ceil(math.Max(x0, x1)+radius))+1,
		int(math.Ceil(math.Max(y0, y1)+radius))+1,
	).Intersect(dst.Rect)
	if box.Empty() {
		return
	}

	dx, dy := x1-x0, y1-y0
	lengthSq := dx*dx + dy*dy
	limit := radius * radius

	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			px, py := float64(x), float64(y)

			// Project onto the segment and clamp to its ends
			t := 0.0
			if lengthSq > 0 {
				t = ((px-x0)*dx + (py-y0)*dy) / lengthSq
				t = math.Max(0, math.Min(1, t))
			}
			ex := px - (x0 + t*dx)
			ey := py - (y0 + t*dy)
			if ex*ex+ey*ey <= limit {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}
