package preview

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
)

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

// writeSplit writes an 8×8 PNG whose first half (top rows, or left columns) is red.
func writeSplit(t *testing.T, vertical bool) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := blue
			if (vertical && x < 4) || (!vertical && y < 4) {
				c = red
			}
			img.SetNRGBA(x, y, c)
		}
	}
	p := filepath.Join(t.TempDir(), "split.png")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestImagePlaneIsUpright(t *testing.T) {
	b := New(Options{Size: 64, Supersample: 1})
	if _, err := b.NewImagePlane(writeSplit(t, false)); err != nil {
		t.Fatal(err)
	}
	img := b.Render()
	if got := img.NRGBAAt(32, 20); got != red {
		t.Errorf("far half = %v, want red (top of image)", got)
	}
	if got := img.NRGBAAt(32, 44); got != blue {
		t.Errorf("near half = %v, want blue (bottom of image)", got)
	}
}

func TestCardUVsSelectCell(t *testing.T) {
	b := New(Options{Size: 64, Supersample: 1})
	obj, err := b.NewImagePlane(writeSplit(t, true))
	if err != nil {
		t.Fatal(err)
	}
	q, _ := spritesheet.Locate(1, 2, 1)
	if err := b.SetUVs(obj, q.Loops()); err != nil {
		t.Fatal(err)
	}
	img := b.Render()
	for _, x := range []int{24, 32, 44} {
		if got := img.NRGBAAt(x, 32); got != blue {
			t.Errorf("pixel %d = %v, want blue (second cell)", x, got)
		}
	}
}

func TestColorMaterialOnMesh(t *testing.T) {
	b := New(Options{Size: 64, Supersample: 1})
	obj, _ := b.ImportMesh("/nowhere/board.obj")
	mat, _ := b.NewColorMaterial(scene.ColorDiffuse{R: 1, G: 0, B: 0})
	if err := b.AssignMaterial(obj, mat); err != nil {
		t.Fatal(err)
	}
	if got := b.Render().NRGBAAt(32, 32); got != red {
		t.Fatalf("center = %v, want red", got)
	}
}

func TestMissingTextureDrawsFlat(t *testing.T) {
	b := New(Options{Size: 64, Supersample: 1})
	if _, err := b.NewImagePlane(filepath.Join(t.TempDir(), "gone.png")); err != nil {
		t.Fatal(err)
	}
	if got := b.Render().NRGBAAt(32, 32); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Fatalf("center = %v, want white fallback", got)
	}
}

func TestTransformPlacesObjects(t *testing.T) {
	b := New(Options{Size: 64, Supersample: 1})
	left, _ := b.ImportMesh("a.obj")
	right, _ := b.ImportMesh("b.obj")
	redMat, _ := b.NewColorMaterial(scene.ColorDiffuse{R: 1})
	blueMat, _ := b.NewColorMaterial(scene.ColorDiffuse{B: 1})
	b.AssignMaterial(left, redMat)
	b.AssignMaterial(right, blueMat)

	tr := scene.DefaultTransform()
	tr.Position.X = -1
	b.SetTransform(left, tr)
	tr.Position.X = 1
	b.SetTransform(right, tr)

	img := b.Render()
	if got := img.NRGBAAt(20, 32); got != red {
		t.Errorf("left = %v", got)
	}
	if got := img.NRGBAAt(44, 32); got != blue {
		t.Errorf("right = %v", got)
	}
}

func TestDepthScaleRunsAlongTable(t *testing.T) {
	b := New(Options{Size: 64, Supersample: 1})
	obj, _ := b.ImportMesh("a.obj")
	mat, _ := b.NewColorMaterial(scene.ColorDiffuse{R: 1})
	b.AssignMaterial(obj, mat)

	// Save scale (1, 0.2, 3) after the parser's Y/Z swap.
	tr := scene.DefaultTransform()
	tr.Scale = scene.Vec3{X: 1, Y: 3, Z: 0.2}
	b.SetTransform(obj, tr)

	img := b.Render()
	if got := img.NRGBAAt(32, 20); got != red {
		t.Errorf("far end = %v, want red: the piece is 3 deep", got)
	}
	if got := img.NRGBAAt(20, 32); got == red {
		t.Errorf("side = %v, want background: the piece is 1 wide", got)
	}
}

func TestErrors(t *testing.T) {
	b := New(Options{})
	if err := b.SetTransform(3, scene.DefaultTransform()); !errors.Is(err, backend.ErrUnknownObject) {
		t.Fatalf("err = %v", err)
	}
	obj, _ := b.ImportMesh("m.obj")
	if err := b.AssignMaterial(obj, 2); !errors.Is(err, backend.ErrUnknownMaterial) {
		t.Fatalf("err = %v", err)
	}
	if err := b.SetUVs(obj, nil); !errors.Is(err, backend.ErrLoopCount) {
		t.Fatalf("err = %v", err)
	}
}

func TestSaveWritesWebP(t *testing.T) {
	b := New(Options{Size: 64, Supersample: 2})
	if _, err := b.NewImagePlane(writeSplit(t, false)); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "out", "scene.webp")
	if err := b.Save(out); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := webp.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bnd := img.Bounds(); bnd.Dx() != 64 || bnd.Dy() != 64 {
		t.Fatalf("bounds = %v", bnd)
	}
}
