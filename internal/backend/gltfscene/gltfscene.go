// Package gltfscene is a backend that writes the built scene as a glTF 2.0 document.
//
// Image planes become textured quads. Imported meshes are referenced, not decoded: each
// one becomes a unit placeholder quad carrying its material, with the source file path in
// the node extras.
package gltfscene

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/logging"
	"github.com/Hansen-L/TTS-Exporter/internal/mathutil"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
	"github.com/Hansen-L/TTS-Exporter/internal/texture"
)

// Generator is written to the asset block.
const Generator = "TTS-Exporter"

type object struct {
	name      string
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

// Backend collects objects and encodes them on Save.
type Backend struct {
	log       *log.Logger
	objects   []*object
	materials []*material
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Saver   = (*Backend)(nil)
	_ backend.Namer   = (*Backend)(nil)
)

// New returns an empty scene.
func New(l *log.Logger) *Backend {
	return &Backend{log: logging.OrDiscard(l)}
}

func (b *Backend) object(id backend.ObjectID) (*object, error) {
	if id < 0 || int(id) >= len(b.objects) {
		return nil, fmt.Errorf("gltfscene: object %d: %w", id, backend.ErrUnknownObject)
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
		name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
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
		name:      strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath)),
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
		return fmt.Errorf("gltfscene: material %d: %w", mat, backend.ErrUnknownMaterial)
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
		return fmt.Errorf("gltfscene: object %d has %d loops, got %d: %w", obj, len(o.uvs), len(loops), backend.ErrLoopCount)
	}
	o.uvs = append([]spritesheet.UV(nil), loops...)
	return nil
}

func (b *Backend) ImageSize(path string) (int, int, error) {
	return texture.Size(path)
}

// SetName labels the node of obj.
func (b *Backend) SetName(obj backend.ObjectID, name string) error {
	o, err := b.object(obj)
	if err != nil {
		return err
	}
	o.name = name
	return nil
}

// Document encodes the collected scene. Images are embedded in the document's buffer.
func (b *Backend) Document() (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator
	doc.Samplers = []*gltf.Sampler{{
		MagFilter: gltf.MagLinear,
		MinFilter: gltf.MinLinearMipMapLinear,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	}}

	images := make(map[string]int) // image path → texture index
	for i, m := range b.materials {
		gm, err := b.encodeMaterial(doc, images, i, m)
		if err != nil {
			return nil, err
		}
		doc.Materials = append(doc.Materials, gm)
	}

	// Shared plane geometry; only texcoords differ per object.
	corners := backend.PlaneCorners()
	normals := make([][3]float32, len(corners))
	for i := range normals {
		normals[i] = [3]float32{0, 1, 0}
	}
	position := modeler.WritePosition(doc, corners)
	normal := modeler.WriteNormal(doc, normals)
	indices := modeler.WriteIndices(doc, backend.PlaneIndices())

	for _, o := range b.objects {
		prim := &gltf.Primitive{
			Attributes: map[string]int{
				gltf.POSITION:   position,
				gltf.NORMAL:     normal,
				gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, texcoords(o.uvs)),
			},
			Indices: gltf.Index(indices),
		}
		if o.material >= 0 {
			prim.Material = gltf.Index(o.material)
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: o.name, Primitives: []*gltf.Primitive{prim}})

		t := backend.YUp(o.transform)
		node := &gltf.Node{
			Name:        o.name,
			Mesh:        gltf.Index(len(doc.Meshes) - 1),
			Translation: [3]float64{t.Position.X, t.Position.Y, t.Position.Z},
			Rotation:    mathutil.EulerDegToQuat(t.Rotation.X, t.Rotation.Y, t.Rotation.Z),
			Scale:       [3]float64{t.Scale.X, t.Scale.Y, t.Scale.Z},
		}
		if o.mesh {
			node.Extras = map[string]any{"source": o.source, "placeholder": true}
		}
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	return doc, nil
}

func (b *Backend) encodeMaterial(doc *gltf.Document, images map[string]int, i int, m *material) (*gltf.Material, error) {
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{m.color.R, m.color.G, m.color.B, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	gm := &gltf.Material{
		Name:                 fmt.Sprintf("material_%d", i),
		PBRMetallicRoughness: pbr,
		DoubleSided:          true,
	}
	if m.image == "" {
		return gm, nil
	}

	tex, ok := images[m.image]
	if !ok {
		img, err := embedImage(doc, m.image)
		if err != nil {
			return nil, err
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Sampler: gltf.Index(0), Source: gltf.Index(img)})
		tex = len(doc.Textures) - 1
		images[m.image] = tex
	}
	gm.Name = filepath.Base(m.image)
	pbr.BaseColorFactor = &[4]float64{1, 1, 1, 1}
	pbr.BaseColorTexture = &gltf.TextureInfo{Index: tex}
	gm.AlphaMode = gltf.AlphaMask
	gm.AlphaCutoff = gltf.Float(0.5)
	return gm, nil
}

// embedImage stores PNG and JPEG files as they are; other formats are decoded and
// re-encoded as PNG, since core glTF only carries those two.
func embedImage(doc *gltf.Document, path string) (int, error) {
	format, err := texture.Format(path)
	if err != nil {
		return 0, err
	}
	name := filepath.Base(path)

	switch format {
	case "png", "jpeg":
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("gltfscene: %w", err)
		}
		idx, err := modeler.WriteImage(doc, name, "image/"+format, bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("gltfscene: embed %s: %w", path, err)
		}
		return idx, nil
	}

	img, err := texture.LoadTexture(path)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("gltfscene: re-encode %s: %w", path, err)
	}
	idx, err := modeler.WriteImage(doc, name, "image/png", &buf)
	if err != nil {
		return 0, fmt.Errorf("gltfscene: embed %s: %w", path, err)
	}
	return idx, nil
}

// texcoords converts V-up loops to glTF's top-left texture origin.
func texcoords(uvs []spritesheet.UV) [][2]float32 {
	out := make([][2]float32, len(uvs))
	for i, uv := range uvs {
		out[i] = [2]float32{float32(uv.U), float32(1 - uv.V)}
	}
	return out
}

// Save writes a binary .glb, or a .gltf with an embedded buffer when path ends in ".gltf".
func (b *Backend) Save(path string) error {
	doc, err := b.Document()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("gltfscene: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".gltf") {
		for _, buf := range doc.Buffers {
			buf.EmbeddedResource()
		}
		err = gltf.Save(doc, path)
	} else {
		err = gltf.SaveBinary(doc, path)
	}
	if err != nil {
		return fmt.Errorf("gltfscene: write %s: %w", path, err)
	}
	b.log.Info("gltf written", "path", path, "nodes", len(doc.Nodes), "textures", len(doc.Textures))
	return nil
}
