// Package backend defines the scene-authoring operations the build driver calls.
// Implementations live in the subpackages: gltfscene writes a glTF document, preview
// rasterizes a top-down image, record keeps a JSON manifest of every call.
package backend

import (
	"errors"

	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
)

// ObjectID identifies an object created by a backend.
type ObjectID int

// MaterialID identifies a material created by a backend.
type MaterialID int

var (
	// ErrUnknownObject is returned for an ObjectID the backend did not create.
	ErrUnknownObject = errors.New("unknown object")
	// ErrUnknownMaterial is returned for a MaterialID the backend did not create.
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrLoopCount is returned when SetUVs gets a different number of loops than the mesh has.
	ErrLoopCount = errors.New("uv loop count mismatch")
)

// Backend materializes geometry and materials. Paths are local files produced by a fetcher.
//
// SetTransform takes a scene.Transform as the parser produces it: position and rotation
// in the save's Y-up axes (X negated), scale in the Z-up target axes (Y and Z swapped).
// Backends that author a Y-up scene convert with YUp.
//
// NewImagePlane creates a unit square lying on the table (XZ plane, facing +Y) with a
// textured material; its four loops start with the UV layout of the full image in
// bottom-right, bottom-left, top-left, top-right order.
type Backend interface {
	ImportMesh(path string) (ObjectID, error)
	NewTexturedMaterial(imagePath string) (MaterialID, error)
	NewColorMaterial(c scene.ColorDiffuse) (MaterialID, error)
	NewImagePlane(imagePath string) (ObjectID, error)
	AssignMaterial(obj ObjectID, mat MaterialID) error
	SetTransform(obj ObjectID, t scene.Transform) error
	UVs(obj ObjectID) ([]spritesheet.UV, error)
	SetUVs(obj ObjectID, loops []spritesheet.UV) error
	ImageSize(path string) (width, height int, err error)
}

// YUp returns t with the scale moved back onto Y-up axes, so scale Y is the height above
// the table and scale Z the depth along it.
func YUp(t scene.Transform) scene.Transform {
	t.Scale.Y, t.Scale.Z = t.Scale.Z, t.Scale.Y
	return t
}

// Saver writes the built scene to path.
type Saver interface {
	Save(path string) error
}

// Namer is implemented by backends that can label an object with its save-file identity.
type Namer interface {
	SetName(obj ObjectID, name string) error
}

// PlaneLoops is the UV layout of a fresh image plane: the whole image.
func PlaneLoops() []spritesheet.UV {
	return []spritesheet.UV{{U: 1, V: 0}, {U: 0, V: 0}, {U: 0, V: 1}, {U: 1, V: 1}}
}

// PlaneCorners are the unit plane's vertex positions, matching PlaneLoops order.
// The plane lies in XZ; -Z is the far (top) edge.
func PlaneCorners() [][3]float32 {
	return [][3]float32{
		{0.5, 0, 0.5},
		{-0.5, 0, 0.5},
		{-0.5, 0, -0.5},
		{0.5, 0, -0.5},
	}
}

// PlaneIndices triangulates PlaneCorners counter-clockwise seen from +Y.
func PlaneIndices() []uint16 {
	return []uint16{0, 2, 1, 0, 3, 2}
}
