package raster

import (
	"image"
	"image/color"
	"math"
)

// Vertex is a screen-space vertex: pixel X/Y, depth Z (larger is nearer) and texture
// coordinates with V running bottom to top.
type Vertex struct {
	X, Y, Z float64
	U, V    float64
}

// Paint fills a triangle: Tex when set, else the flat Color.
type Paint struct {
	Tex   *image.NRGBA
	Color color.NRGBA
}

// FillTriangle rasterizes one triangle with texture mapping, z-buffer and source-over
// blending. Either winding is accepted.
//
// This is the hot path: no allocation inside the pixel loop.
func FillTriangle(fb *FrameBuffer, a, b, c Vertex, p Paint) {
	x0, y0, z0 := a.X, a.Y, a.Z
	x1, y1, z1 := b.X, b.Y, b.Z
	x2, y2, z2 := c.X, c.Y, c.Z

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, fb.Width-1)
	maxY = min(maxY, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		// Sample at pixel centers.
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z < fb.ZBuf[zIdx] {
				continue
			}

			var cr, cg, cb, ca uint8
			if p.Tex != nil {
				u := w0*a.U + w1*b.U + w2*c.U
				v := w0*a.V + w1*b.V + w2*c.V
				cr, cg, cb, ca = SampleTexture(p.Tex, u, v)
			} else {
				cr, cg, cb, ca = p.Color.R, p.Color.G, p.Color.B, p.Color.A
			}

			// Skip transparent texels
			if ca < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			blendOver(fb.Color[zIdx*4:zIdx*4+4], cr, cg, cb, ca)
		}
	}
}

// blendOver composites a non-premultiplied source color over dst in place.
func blendOver(dst []uint8, r, g, b, a uint8) {
	if a == 255 || dst[3] == 0 {
		dst[0], dst[1], dst[2], dst[3] = r, g, b, a
		return
	}
	sa := float64(a) / 255
	da := float64(dst[3]) / 255 * (1 - sa)
	oa := sa + da
	dst[0] = clamp255((float64(r)*sa + float64(dst[0])*da) / oa)
	dst[1] = clamp255((float64(g)*sa + float64(dst[1])*da) / oa)
	dst[2] = clamp255((float64(b)*sa + float64(dst[2])*da) / oa)
	dst[3] = clamp255(oa * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
