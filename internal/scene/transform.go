package scene

import (
	"fmt"
	"strings"

	"github.com/Hansen-L/TTS-Exporter/internal/save"
)

// RotationMode selects which rotation axes survive the coordinate remap.
type RotationMode int

const (
	// RotationFull keeps all three Euler angles.
	RotationFull RotationMode = iota
	// RotationUpright keeps only the Y (yaw) angle, for pieces standing on the table.
	RotationUpright
)

func (m RotationMode) String() string {
	if m == RotationUpright {
		return "upright"
	}
	return "full"
}

// ParseRotationMode accepts "full" or "upright". Empty means full.
func ParseRotationMode(s string) (RotationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return RotationFull, nil
	case "upright":
		return RotationUpright, nil
	}
	return RotationFull, fmt.Errorf("scene: unknown rotation mode %q", s)
}

// transformFromState converts a save transform (left-handed) into the target scene's
// right-handed convention: X position is negated and the Y/Z scale axes swap.
func transformFromState(ts *save.TransformState, mode RotationMode) Transform {
	t := DefaultTransform()
	if ts == nil {
		return t
	}

	t.Position = Vec3{
		X: -value(ts.PosX, 0),
		Y: value(ts.PosY, 0),
		Z: value(ts.PosZ, 0),
	}
	t.Scale = Vec3{
		X: value(ts.ScaleX, 1),
		Y: value(ts.ScaleZ, 1),
		Z: value(ts.ScaleY, 1),
	}

	switch mode {
	case RotationUpright:
		t.Rotation = Vec3{Y: value(ts.RotY, 0)}
	default:
		t.Rotation = Vec3{
			X: value(ts.RotX, 0),
			Y: value(ts.RotY, 0),
			Z: value(ts.RotZ, 0),
		}
	}
	return t
}

// State converts t back into the save-file convention, undoing the axis remap.
func (t Transform) State() *save.TransformState {
	return &save.TransformState{
		PosX:   save.Float(-t.Position.X),
		PosY:   save.Float(t.Position.Y),
		PosZ:   save.Float(t.Position.Z),
		RotX:   save.Float(t.Rotation.X),
		RotY:   save.Float(t.Rotation.Y),
		RotZ:   save.Float(t.Rotation.Z),
		ScaleX: save.Float(t.Scale.X),
		ScaleY: save.Float(t.Scale.Z),
		ScaleZ: save.Float(t.Scale.Y),
	}
}

func colorFromState(cs *save.ColorState) ColorDiffuse {
	c := DefaultColor()
	if cs == nil {
		return c
	}
	c.R = value(cs.R, 1)
	c.G = value(cs.G, 1)
	c.B = value(cs.B, 1)
	return c
}

// State converts c back into the save-file ColorDiffuse block.
func (c ColorDiffuse) State() *save.ColorState {
	return &save.ColorState{
		R: save.Float(c.R),
		G: save.Float(c.G),
		B: save.Float(c.B),
	}
}

func value(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
