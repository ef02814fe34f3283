package gltfscene

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"golang.org/x/image/bmp"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/save"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
)

func writeImage(t *testing.T, dir, name string, enc func(*os.File, image.Image) error) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := enc(f, img); err != nil {
		t.Fatal(err)
	}
	return p
}

func encodePNG(f *os.File, img image.Image) error { return png.Encode(f, img) }
func encodeBMP(f *os.File, img image.Image) error { return bmp.Encode(f, img) }

func buildScene(t *testing.T) *Backend {
	t.Helper()
	dir := t.TempDir()
	sheet := writeImage(t, dir, "deck.png", encodePNG)
	tile := writeImage(t, dir, "tile.bmp", encodeBMP)

	b := New(nil)

	card, err := b.NewImagePlane(sheet)
	if err != nil {
		t.Fatal(err)
	}
	q, _ := spritesheet.Locate(3, 2, 2)
	if err := b.SetUVs(card, q.Loops()); err != nil {
		t.Fatal(err)
	}
	b.SetName(card, "Card c1")

	// A second card on the same sheet shares the texture.
	card2, _ := b.NewImagePlane(sheet)
	b.SetName(card2, "Card c2")

	plane, _ := b.NewImagePlane(tile)
	b.SetName(plane, "Custom_Tile p1")

	mesh, _ := b.ImportMesh("/cache/board.obj")
	mat, _ := b.NewColorMaterial(scene.ColorDiffuse{R: 0.5, G: 0.25, B: 1})
	if err := b.AssignMaterial(mesh, mat); err != nil {
		t.Fatal(err)
	}
	tr := scene.DefaultTransform()
	tr.Position = scene.Vec3{X: -1, Y: 2, Z: 3}
	tr.Rotation = scene.Vec3{Y: 90}
	tr.Scale = scene.Vec3{X: 2, Y: 1, Z: 1}
	if err := b.SetTransform(mesh, tr); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNodeScaleFollowsSaveAxes(t *testing.T) {
	doc, err := save.Decode(strings.NewReader(`{"ObjectStates": [{"GUID": "t1", "Name": "Custom_Tile",
	  "Transform": {"posX": 1, "posY": 1, "posZ": 2, "scaleX": 1, "scaleY": 0.2, "scaleZ": 3},
	  "CustomImage": {"ImageURL": "tile.png"}}]}`))
	if err != nil {
		t.Fatal(err)
	}
	entities, err := scene.Parse(doc, scene.Options{})
	if err != nil {
		t.Fatal(err)
	}

	b := New(nil)
	plane, err := b.NewImagePlane(writeImage(t, t.TempDir(), "tile.png", encodePNG))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetTransform(plane, entities[0].Plane.Transform); err != nil {
		t.Fatal(err)
	}
	out, err := b.Document()
	if err != nil {
		t.Fatal(err)
	}
	n := out.Nodes[0]
	if n.Scale != [3]float64{1, 0.2, 3} {
		t.Fatalf("scale = %v, want depth 3 along Z and thickness 0.2 along Y", n.Scale)
	}
	if n.Translation != [3]float64{-1, 1, 2} {
		t.Fatalf("translation = %v", n.Translation)
	}
}

func TestDocument(t *testing.T) {
	doc, err := buildScene(t).Document()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 4 || len(doc.Scenes[0].Nodes) != 4 {
		t.Fatalf("nodes = %d, scene nodes = %d", len(doc.Nodes), len(doc.Scenes[0].Nodes))
	}
	if doc.Nodes[0].Name != "Card c1" || doc.Nodes[3].Name != "board" {
		t.Fatalf("names = %q, %q", doc.Nodes[0].Name, doc.Nodes[3].Name)
	}
	if len(doc.Textures) != 2 || len(doc.Images) != 2 {
		t.Fatalf("textures = %d, images = %d, want the sheet shared", len(doc.Textures), len(doc.Images))
	}
	if doc.Images[0].MimeType != "image/png" || doc.Images[1].MimeType != "image/png" {
		t.Fatalf("mime types = %q, %q", doc.Images[0].MimeType, doc.Images[1].MimeType)
	}

	mesh := doc.Nodes[3]
	if mesh.Translation != [3]float64{-1, 2, 3} || mesh.Scale != [3]float64{2, 1, 1} {
		t.Fatalf("mesh node = %+v", mesh)
	}
	half := math.Sqrt(0.5)
	if math.Abs(mesh.Rotation[1]-half) > 1e-9 || math.Abs(mesh.Rotation[3]-half) > 1e-9 {
		t.Fatalf("rotation = %v, want 90 degrees about Y", mesh.Rotation)
	}
	extras, ok := mesh.Extras.(map[string]any)
	if !ok || extras["source"] != "/cache/board.obj" {
		t.Fatalf("extras = %#v", mesh.Extras)
	}

	prim := doc.Meshes[*mesh.Mesh].Primitives[0]
	m := doc.Materials[*prim.Material]
	if m.PBRMetallicRoughness.BaseColorTexture != nil {
		t.Fatalf("color material got a texture")
	}
	if *m.PBRMetallicRoughness.BaseColorFactor != [4]float64{0.5, 0.25, 1, 1} {
		t.Fatalf("base color = %v", *m.PBRMetallicRoughness.BaseColorFactor)
	}
}

func TestTexcoordsFlipV(t *testing.T) {
	q, _ := spritesheet.Locate(0, 2, 2)
	got := texcoords(q.Loops())
	want := [][2]float32{{0.5, 0.5}, {0, 0.5}, {0, 0}, {0.5, 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("texcoord %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	b := buildScene(t)
	dir := t.TempDir()
	for _, name := range []string{"scene.glb", "scene.gltf"} {
		path := filepath.Join(dir, name)
		if err := b.Save(path); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		doc, err := gltf.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		if len(doc.Nodes) != 4 || doc.Asset.Generator != Generator {
			t.Fatalf("%s: nodes = %d, generator = %q", name, len(doc.Nodes), doc.Asset.Generator)
		}
	}
}

func TestErrors(t *testing.T) {
	b := New(nil)
	if err := b.SetName(0, "x"); !errors.Is(err, backend.ErrUnknownObject) {
		t.Fatalf("err = %v", err)
	}
	obj, _ := b.ImportMesh("m.obj")
	if err := b.AssignMaterial(obj, 0); !errors.Is(err, backend.ErrUnknownMaterial) {
		t.Fatalf("err = %v", err)
	}
	if err := b.SetUVs(obj, make([]spritesheet.UV, 5)); !errors.Is(err, backend.ErrLoopCount) {
		t.Fatalf("err = %v", err)
	}

	missing := New(nil)
	missing.NewImagePlane(filepath.Join(t.TempDir(), "gone.png"))
	if _, err := missing.Document(); err == nil {
		t.Fatalf("expected error for a missing image")
	}
}
