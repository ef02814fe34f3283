// Package preview is a backend that rasterizes the built scene seen from above and
// encodes it as WebP. Meshes are not decoded; each one is drawn as its unit footprint.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/charmbracelet/log"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/logging"
	"github.com/Hansen-L/TTS-Exporter/internal/mathutil"
	"github.com/Hansen-L/TTS-Exporter/internal/postprocess"
	"github.com/Hansen-L/TTS-Exporter/internal/raster"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
	"github.com/Hansen-L/TTS-Exporter/internal/texture"
)

// Untextured geometry without a material.
var defaultColor = color.NRGBA{160, 160, 170, 255}

// Options configures the rendered image.
type Options struct {
	Size        int // output edge in pixels
	Supersample int
	Background  color.NRGBA
	Textures    texture.Resolver // nil means a private texture.Cache
	Log         *log.Logger
}

type object struct {
	mesh      bool
	source    string
	material  int // -1 when unassigned
	transform scene.Transform
	uvs       []spritesheet.UV
}

type material struct {
	image string
	color scene.ColorDiffuse
}

// Backend collects objects and renders them on Save.
type Backend struct {
	opts      Options
	log       *log.Logger
	objects   []*object
	materials []*material
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Saver   = (*Backend)(nil)
)

// New returns an empty preview scene. Size defaults to 1024 and Supersample to 2.
func New(opts Options) *Backend {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 2
	}
	if opts.Textures == nil {
		opts.Textures = texture.NewCache()
	}
	return &Backend{opts: opts, log: logging.OrDiscard(opts.Log)}
}

func (b *Backend) object(id backend.ObjectID) (*object, error) {
	if id < 0 || int(id) >= len(b.objects) {
		return nil, fmt.Errorf("preview: object %d: %w", id, backend.ErrUnknownObject)
	}
	return b.objects[id], nil
}

func (b *Backend) addObject(o *object) backend.ObjectID {
	b.objects = append(b.objects, o)
	return backend.ObjectID(len(b.objects) - 1)
}

func (b *Backend) addMaterial(m *material) backend.MaterialID {
	b.materials = append(b.materials, m)
	return backend.MaterialID(len(b.materials) - 1)
}

func (b *Backend) ImportMesh(path string) (backend.ObjectID, error) {
	return b.addObject(&object{
		mesh:      true,
		source:    path,
		material:  -1,
		transform: scene.DefaultTransform(),
		uvs:       backend.PlaneLoops(),
	}), nil
}

func (b *Backend) NewTexturedMaterial(imagePath string) (backend.MaterialID, error) {
	return b.addMaterial(&material{image: imagePath, color: scene.DefaultColor()}), nil
}

func (b *Backend) NewColorMaterial(c scene.ColorDiffuse) (backend.MaterialID, error) {
	return b.addMaterial(&material{color: c}), nil
}

func (b *Backend) NewImagePlane(imagePath string) (backend.ObjectID, error) {
	mat := b.addMaterial(&material{image: imagePath, color: scene.DefaultColor()})
	return b.addObject(&object{
		source:    imagePath,
		material:  int(mat),
		transform: scene.DefaultTransform(),
		uvs:       backend.PlaneLoops(),
	}), nil
}

func (b *Backend) AssignMaterial(obj backend.ObjectID, mat backend.MaterialID) error {
	o, err := b.object(obj)
	if err != nil {
		return err
	}
	if mat < 0 || int(mat) >= len(b.materials) {
		return fmt.Errorf("preview: material %d: %w", mat, backend.ErrUnknownMaterial)
	}
	o.material = int(mat)
	return nil
}

func (b *Backend) SetTransform(obj backend.ObjectID, t scene.Transform) error {
	o, err := b.object(obj)
	if err != nil {
		return err
	}
	o.transform = t
	return nil
}

func (b *Backend) UVs(obj backend.ObjectID) ([]spritesheet.UV, error) {
	o, err := b.object(obj)
	if err != nil {
		return nil, err
	}
	return append([]spritesheet.UV(nil), o.uvs...), nil
}

func (b *Backend) SetUVs(obj backend.ObjectID, loops []spritesheet.UV) error {
	o, err := b.object(obj)
	if err != nil {
		return err
	}
	if len(loops) != len(o.uvs) {
		return fmt.Errorf("preview: object %d has %d loops, got %d: %w", obj, len(o.uvs), len(loops), backend.ErrLoopCount)
	}
	o.uvs = append([]spritesheet.UV(nil), loops...)
	return nil
}

func (b *Backend) ImageSize(path string) (int, int, error) {
	return texture.Size(path)
}

// Render rasterizes the scene at Size×Supersample and downsamples it to Size.
func (b *Backend) Render() *image.NRGBA {
	ss := b.opts.Supersample
	renderSize := b.opts.Size * ss

	meshes := make([]raster.Mesh, 0, len(b.objects))
	for _, o := range b.objects {
		meshes = append(meshes, b.footprint(o))
	}

	o := raster.FitOrtho(meshes, renderSize, renderSize, 16*ss)
	img := raster.Render(meshes, o, b.opts.Background)

	// Post-processing: supersample downsample
	if ss > 1 {
		img = postprocess.Downsample(img, b.opts.Size, b.opts.Size)
	}
	return img
}

// footprint places the unit plane with the object's transform.
func (b *Backend) footprint(o *object) raster.Mesh {
	t := backend.YUp(o.transform)
	place := mathutil.TRS(
		mathutil.Vec3{t.Position.X, t.Position.Y, t.Position.Z},
		mathutil.Vec3{t.Rotation.X, t.Rotation.Y, t.Rotation.Z},
		mathutil.Vec3{t.Scale.X, t.Scale.Y, t.Scale.Z},
	)

	corners := backend.PlaneCorners()
	m := raster.Mesh{
		Positions: make([]mathutil.Vec3, len(corners)),
		UVs:       make([][2]float64, len(o.uvs)),
		Paint:     b.paint(o),
	}
	for i, c := range corners {
		m.Positions[i] = place(mathutil.Vec3{float64(c[0]), float64(c[1]), float64(c[2])})
	}
	for i, uv := range o.uvs {
		m.UVs[i] = [2]float64{uv.U, uv.V}
	}
	for _, idx := range backend.PlaneIndices() {
		m.Indices = append(m.Indices, int(idx))
	}
	return m
}

func (b *Backend) paint(o *object) raster.Paint {
	if o.material < 0 {
		return raster.Paint{Color: defaultColor}
	}
	mat := b.materials[o.material]
	if mat.image != "" {
		tex, err := b.opts.Textures.Resolve(mat.image)
		if err == nil {
			return raster.Paint{Tex: tex}
		}
		b.log.Warn("texture unavailable, drawing flat", "path", mat.image, "err", err)
	}
	return raster.Paint{Color: color.NRGBA{
		R: unit8(mat.color.R),
		G: unit8(mat.color.G),
		B: unit8(mat.color.B),
		A: 255,
	}}
}

func unit8(v float64) uint8 {
	v = v*255 + 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Save renders the scene and writes it as lossless WebP.
func (b *Backend) Save(path string) error {
	img := b.Render()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("preview: webp encode: %w", err)
	}
	b.log.Info("preview written", "path", path, "objects", len(b.objects), "size", b.opts.Size)
	return f.Close()
}
