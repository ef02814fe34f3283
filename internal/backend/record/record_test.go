package record

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
)

func TestImagePlaneStartsWithPlaneLoops(t *testing.T) {
	b := New()
	obj, err := b.NewImagePlane("/tmp/sheet.png")
	if err != nil {
		t.Fatal(err)
	}
	loops, err := b.UVs(obj)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loops, backend.PlaneLoops()) {
		t.Fatalf("loops = %+v", loops)
	}
	o, _ := b.Object(obj)
	if o.Material == nil || b.Manifest().Materials[*o.Material].Image != "/tmp/sheet.png" {
		t.Fatalf("image plane material missing: %+v", o)
	}
}

func TestSetUVsChecksLoopCount(t *testing.T) {
	b := New()
	obj, _ := b.NewImagePlane("a.png")
	if err := b.SetUVs(obj, make([]spritesheet.UV, 3)); !errors.Is(err, backend.ErrLoopCount) {
		t.Fatalf("err = %v, want ErrLoopCount", err)
	}
	q, _ := spritesheet.Locate(3, 4, 2)
	if err := b.SetUVs(obj, q.Loops()); err != nil {
		t.Fatal(err)
	}
	got, _ := b.UVs(obj)
	if !reflect.DeepEqual(got, q.Loops()) {
		t.Fatalf("uvs = %+v", got)
	}
}

func TestUnknownHandles(t *testing.T) {
	b := New()
	if err := b.SetTransform(5, scene.DefaultTransform()); !errors.Is(err, backend.ErrUnknownObject) {
		t.Fatalf("err = %v, want ErrUnknownObject", err)
	}
	obj, _ := b.ImportMesh("m.obj")
	if err := b.AssignMaterial(obj, 9); !errors.Is(err, backend.ErrUnknownMaterial) {
		t.Fatalf("err = %v, want ErrUnknownMaterial", err)
	}
}

func TestFailHook(t *testing.T) {
	b := New()
	b.Fail = func(op string) error {
		if op == "ImportMesh" {
			return errors.New("nope")
		}
		return nil
	}
	if _, err := b.ImportMesh("m.obj"); err == nil {
		t.Fatalf("expected failure")
	}
	if len(b.Manifest().Objects) != 0 {
		t.Fatalf("failed call created an object")
	}
	if got := b.Calls(); !reflect.DeepEqual(got, []string{"ImportMesh"}) {
		t.Fatalf("calls = %v", got)
	}
}

func TestSaveWritesManifest(t *testing.T) {
	b := New()
	obj, _ := b.ImportMesh("board.obj")
	mat, _ := b.NewColorMaterial(scene.ColorDiffuse{R: 1, G: 0.5, B: 0})
	if err := b.AssignMaterial(obj, mat); err != nil {
		t.Fatal(err)
	}
	tr := scene.DefaultTransform()
	tr.Position.X = -2
	if err := b.SetTransform(obj, tr); err != nil {
		t.Fatal(err)
	}
	if err := b.SetName(obj, "Custom_Model abc"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out", "scene.json")
	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if len(m.Objects) != 1 || m.Objects[0].Name != "Custom_Model abc" || m.Objects[0].Type != "mesh" {
		t.Fatalf("manifest objects = %+v", m.Objects)
	}
	if m.Objects[0].Transform.Position.X != -2 {
		t.Fatalf("transform not saved: %+v", m.Objects[0].Transform)
	}
	if m.Materials[0].Color == nil || m.Materials[0].Color.G != 0.5 {
		t.Fatalf("material not saved: %+v", m.Materials[0])
	}
}
