package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// plane is an interleaved 8-bit pixel buffer without alpha, origin at (0,0).
// Grayscale images have one channel, everything else has three (R, G, B).
type plane struct {
	width    int
	height   int
	channels int
	pix      []uint8
}

func newPlane(img image.Image) *plane {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		p := &plane{width: width, height: height, channels: 1, pix: make([]uint8, width*height)}
		for y := 0; y < height; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+width]
			copy(p.pix[y*width:], row)
		}
		return p
	}

	src := imaging.Clone(img)
	p := &plane{width: width, height: height, channels: 3, pix: make([]uint8, width*height*3)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			s := y*src.Stride + x*4
			d := (y*width + x) * 3
			p.pix[d+0] = src.Pix[s+0]
			p.pix[d+1] = src.Pix[s+1]
			p.pix[d+2] = src.Pix[s+2]
		}
	}
	return p
}

// at returns channel c of pixel (x, y) with replicated borders.
func (p *plane) at(x, y, c int) int {
	x = clamp(x, 0, p.width-1)
	y = clamp(y, 0, p.height-1)
	return int(p.pix[(y*p.width+x)*p.channels+c])
}

// sobel returns the 3x3 Sobel X and Y responses of channel c at (x, y).
//
//	Gx = -1 0 1     Gy = -1 -2 -1
//	     -2 0 2           0  0  0
//	     -1 0 1           1  2  1
func (p *plane) sobel(x, y, c int) (int, int) {
	tl, tc, tr := p.at(x-1, y-1, c), p.at(x, y-1, c), p.at(x+1, y-1, c)
	ml, mr := p.at(x-1, y, c), p.at(x+1, y, c)
	bl, bc, br := p.at(x-1, y+1, c), p.at(x, y+1, c), p.at(x+1, y+1, c)

	gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
	gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
	return gx, gy
}
