// Package record is a backend that keeps every scene-authoring call in memory and
// writes the resulting scene as a JSON manifest.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
	"github.com/Hansen-L/TTS-Exporter/internal/texture"
)

// Object is one created object.
type Object struct {
	ID        backend.ObjectID    `json:"id"`
	Name      string              `json:"name,omitempty"`
	Type      string              `json:"type"` // "mesh" or "image_plane"
	Source    string              `json:"source"`
	Material  *backend.MaterialID `json:"material,omitempty"`
	Transform *scene.Transform    `json:"transform,omitempty"`
	UVs       []spritesheet.UV    `json:"uvs,omitempty"`
}

// Material is one created material.
type Material struct {
	ID    backend.MaterialID  `json:"id"`
	Image string              `json:"image,omitempty"`
	Color *scene.ColorDiffuse `json:"color,omitempty"`
}

// Manifest is the document written by Save.
type Manifest struct {
	Objects   []*Object   `json:"objects"`
	Materials []*Material `json:"materials"`
}

// Backend records calls. The zero value is not usable; call New.
type Backend struct {
	manifest Manifest
	calls    []string

	// SizeFunc overrides texture.Size for ImageSize.
	SizeFunc func(path string) (int, int, error)
	// Fail, when set, is consulted before every operation; a non-nil error aborts it.
	Fail func(op string) error
}

var _ backend.Backend = (*Backend)(nil)

// New returns an empty recorder.
func New() *Backend {
	return &Backend{}
}

// Calls returns the operation names in call order.
func (b *Backend) Calls() []string {
	return append([]string(nil), b.calls...)
}

// Manifest returns the recorded scene.
func (b *Backend) Manifest() Manifest {
	return b.manifest
}

// Object returns a recorded object.
func (b *Backend) Object(id backend.ObjectID) (*Object, error) {
	if id < 0 || int(id) >= len(b.manifest.Objects) {
		return nil, fmt.Errorf("record: object %d: %w", id, backend.ErrUnknownObject)
	}
	return b.manifest.Objects[id], nil
}

func (b *Backend) begin(op string) error {
	b.calls = append(b.calls, op)
	if b.Fail != nil {
		if err := b.Fail(op); err != nil {
			return fmt.Errorf("record: %s: %w", op, err)
		}
	}
	return nil
}

func (b *Backend) addObject(typ, source string, uvs []spritesheet.UV) backend.ObjectID {
	id := backend.ObjectID(len(b.manifest.Objects))
	b.manifest.Objects = append(b.manifest.Objects, &Object{ID: id, Type: typ, Source: source, UVs: uvs})
	return id
}

func (b *Backend) addMaterial(m *Material) backend.MaterialID {
	m.ID = backend.MaterialID(len(b.manifest.Materials))
	b.manifest.Materials = append(b.manifest.Materials, m)
	return m.ID
}

func (b *Backend) ImportMesh(path string) (backend.ObjectID, error) {
	if err := b.begin("ImportMesh"); err != nil {
		return 0, err
	}
	return b.addObject("mesh", path, nil), nil
}

func (b *Backend) NewTexturedMaterial(imagePath string) (backend.MaterialID, error) {
	if err := b.begin("NewTexturedMaterial"); err != nil {
		return 0, err
	}
	return b.addMaterial(&Material{Image: imagePath}), nil
}

func (b *Backend) NewColorMaterial(c scene.ColorDiffuse) (backend.MaterialID, error) {
	if err := b.begin("NewColorMaterial"); err != nil {
		return 0, err
	}
	return b.addMaterial(&Material{Color: &c}), nil
}

func (b *Backend) NewImagePlane(imagePath string) (backend.ObjectID, error) {
	if err := b.begin("NewImagePlane"); err != nil {
		return 0, err
	}
	id := b.addObject("image_plane", imagePath, backend.PlaneLoops())
	mat := b.addMaterial(&Material{Image: imagePath})
	b.manifest.Objects[id].Material = &mat
	return id, nil
}

func (b *Backend) AssignMaterial(obj backend.ObjectID, mat backend.MaterialID) error {
	if err := b.begin("AssignMaterial"); err != nil {
		return err
	}
	o, err := b.Object(obj)
	if err != nil {
		return err
	}
	if mat < 0 || int(mat) >= len(b.manifest.Materials) {
		return fmt.Errorf("record: material %d: %w", mat, backend.ErrUnknownMaterial)
	}
	o.Material = &mat
	return nil
}

func (b *Backend) SetTransform(obj backend.ObjectID, t scene.Transform) error {
	if err := b.begin("SetTransform"); err != nil {
		return err
	}
	o, err := b.Object(obj)
	if err != nil {
		return err
	}
	o.Transform = &t
	return nil
}

func (b *Backend) UVs(obj backend.ObjectID) ([]spritesheet.UV, error) {
	if err := b.begin("UVs"); err != nil {
		return nil, err
	}
	o, err := b.Object(obj)
	if err != nil {
		return nil, err
	}
	return append([]spritesheet.UV(nil), o.UVs...), nil
}

func (b *Backend) SetUVs(obj backend.ObjectID, loops []spritesheet.UV) error {
	if err := b.begin("SetUVs"); err != nil {
		return err
	}
	o, err := b.Object(obj)
	if err != nil {
		return err
	}
	if len(loops) != len(o.UVs) {
		return fmt.Errorf("record: object %d has %d loops, got %d: %w", obj, len(o.UVs), len(loops), backend.ErrLoopCount)
	}
	o.UVs = append([]spritesheet.UV(nil), loops...)
	return nil
}

func (b *Backend) ImageSize(path string) (int, int, error) {
	if err := b.begin("ImageSize"); err != nil {
		return 0, 0, err
	}
	if b.SizeFunc != nil {
		return b.SizeFunc(path)
	}
	return texture.Size(path)
}

// SetName labels an object.
func (b *Backend) SetName(obj backend.ObjectID, name string) error {
	o, err := b.Object(obj)
	if err != nil {
		return err
	}
	o.Name = name
	return nil
}

// Save writes the manifest as indented JSON.
func (b *Backend) Save(path string) error {
	data, err := json.MarshalIndent(b.manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
