package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/Hansen-L/TTS-Exporter/internal/mathutil"
)

// Mesh is a world-space triangle list with per-vertex UVs, drawn with one paint.
type Mesh struct {
	Positions []mathutil.Vec3
	UVs       [][2]float64
	Indices   []int
	Paint     Paint
}

// Ortho is a top-down orthographic camera looking along -Y: world X maps to pixel x,
// world Z to pixel y, and world Y is depth.
type Ortho struct {
	CenterX float64
	CenterZ float64
	Scale   float64 // pixels per world unit
	Width   int
	Height  int
}

// FitOrtho centers the X/Z extent of meshes in a w×h target, leaving margin pixels on
// every side.
func FitOrtho(meshes []Mesh, w, h, margin int) Ortho {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	for _, m := range meshes {
		for _, p := range m.Positions {
			minX = math.Min(minX, p[0])
			maxX = math.Max(maxX, p[0])
			minZ = math.Min(minZ, p[2])
			maxZ = math.Max(maxZ, p[2])
		}
	}
	if math.IsInf(minX, 1) {
		return Ortho{Scale: 1, Width: w, Height: h}
	}

	spanX := math.Max(maxX-minX, 0.001)
	spanZ := math.Max(maxZ-minZ, 0.001)
	availW := float64(max(w-2*margin, 1))
	availH := float64(max(h-2*margin, 1))

	return Ortho{
		CenterX: (minX + maxX) / 2,
		CenterZ: (minZ + maxZ) / 2,
		Scale:   math.Min(availW/spanX, availH/spanZ),
		Width:   w,
		Height:  h,
	}
}

// Project maps a world point to a screen-space vertex.
func (o Ortho) Project(p mathutil.Vec3, u, v float64) Vertex {
	return Vertex{
		X: float64(o.Width)/2 + (p[0]-o.CenterX)*o.Scale,
		Y: float64(o.Height)/2 + (p[2]-o.CenterZ)*o.Scale,
		Z: p[1],
		U: u,
		V: v,
	}
}

// Render draws meshes in order over a bg-filled target. Depth decides visibility; equal
// depths let later meshes win.
func Render(meshes []Mesh, o Ortho, bg color.NRGBA) *image.NRGBA {
	fb := NewFrameBuffer(o.Width, o.Height)
	fb.Fill(bg)

	for _, m := range meshes {
		np, nuv := len(m.Positions), len(m.UVs)
		vert := func(i int) (Vertex, bool) {
			if i < 0 || i >= np {
				return Vertex{}, false
			}
			var u, v float64
			if i < nuv {
				u, v = m.UVs[i][0], m.UVs[i][1]
			}
			return o.Project(m.Positions[i], u, v), true
		}
		for t := 0; t+2 < len(m.Indices); t += 3 {
			a, ok0 := vert(m.Indices[t])
			b, ok1 := vert(m.Indices[t+1])
			c, ok2 := vert(m.Indices[t+2])
			if !ok0 || !ok1 || !ok2 {
				continue
			}
			FillTriangle(fb, a, b, c, m.Paint)
		}
	}

	return fb.Image()
}
