// Package build walks parsed scene entities and materializes them through a backend.
package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/logging"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/spritesheet"
)

// Fetcher resolves an asset URL to a local file path.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Driver holds the collaborators of a build pass.
type Driver struct {
	Backend backend.Backend
	Fetcher Fetcher
	Log     *log.Logger
}

// Result holds the outcome of one entity.
type Result struct {
	GUID    string
	Tag     string
	Kind    scene.Kind
	Object  backend.ObjectID
	Built   bool
	Skipped bool
	Error   string
}

// Report summarizes a build pass.
type Report struct {
	Session uuid.UUID
	Results []Result
	Built   int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

// Run builds entities strictly in order. A card whose index falls outside its sheet is
// recorded as failed and the pass goes on; Run then returns an error wrapping the first
// such failure. Any other error aborts the pass; entities built before it stay in the
// backend. The returned report covers everything attempted.
func (d *Driver) Run(ctx context.Context, entities []scene.Entity) (Report, error) {
	l := logging.OrDiscard(d.Log)
	rep := Report{Session: uuid.New()}
	start := time.Now()
	var firstFailure error

	l.Info("build started", "session", rep.Session, "entities", len(entities))

	for i, e := range entities {
		if err := ctx.Err(); err != nil {
			rep.Elapsed = time.Since(start)
			return rep, fmt.Errorf("build: %w", err)
		}

		res := Result{GUID: e.GUID, Tag: e.Tag, Kind: e.Kind}
		if !e.Kind.Buildable() {
			res.Skipped = true
			rep.Skipped++
			rep.Results = append(rep.Results, res)
			d.logSkip(l, e)
			continue
		}

		obj, err := d.buildEntity(ctx, e)
		if errors.Is(err, spritesheet.ErrIndexOutOfRange) {
			res.Error = err.Error()
			rep.Failed++
			rep.Results = append(rep.Results, res)
			l.Error("entity failed", "index", i, "tag", e.Tag, "guid", e.GUID, "err", err)
			if firstFailure == nil {
				firstFailure = fmt.Errorf("%s %s: %w", e.Tag, e.GUID, err)
			}
			continue
		}
		if err != nil {
			res.Error = err.Error()
			rep.Results = append(rep.Results, res)
			rep.Elapsed = time.Since(start)
			l.Error("build failed", "index", i, "tag", e.Tag, "guid", e.GUID, "err", err)
			return rep, fmt.Errorf("build: %s %s: %w", e.Tag, e.GUID, err)
		}

		if n, ok := d.Backend.(backend.Namer); ok {
			if err := n.SetName(obj, objectName(e)); err != nil {
				l.Warn("naming failed", "tag", e.Tag, "guid", e.GUID, "err", err)
			}
		}

		res.Object = obj
		res.Built = true
		rep.Built++
		rep.Results = append(rep.Results, res)
		l.Debug("built", "kind", e.Kind, "tag", e.Tag, "guid", e.GUID, "object", obj)
	}

	rep.Elapsed = time.Since(start)
	l.Info("build finished", "built", rep.Built, "skipped", rep.Skipped, "failed", rep.Failed,
		"took", rep.Elapsed.Round(time.Millisecond))
	if firstFailure != nil {
		return rep, fmt.Errorf("build: %d entities failed, first %w", rep.Failed, firstFailure)
	}
	return rep, nil
}

func (d *Driver) logSkip(l *log.Logger, e scene.Entity) {
	switch e.Kind {
	case scene.KindDeck:
		l.Warn("deck not expanded into cards", "tag", e.Tag, "guid", e.GUID, "cards", len(e.Deck.CardIDs))
	case scene.KindUnhandled:
		l.Debug("unhandled object", "tag", e.Tag, "guid", e.GUID)
	}
}

func (d *Driver) buildEntity(ctx context.Context, e scene.Entity) (backend.ObjectID, error) {
	switch e.Kind {
	case scene.KindCustomModel:
		return d.buildModel(ctx, e.Model)
	case scene.KindPlane:
		return d.buildPlane(ctx, e.Plane)
	case scene.KindCard:
		return d.buildCard(ctx, e.Card)
	}
	return 0, fmt.Errorf("kind %v is not buildable", e.Kind)
}

func (d *Driver) buildModel(ctx context.Context, m *scene.CustomModel) (backend.ObjectID, error) {
	meshPath, err := d.Fetcher.Fetch(ctx, m.MeshURL)
	if err != nil {
		return 0, err
	}
	obj, err := d.Backend.ImportMesh(meshPath)
	if err != nil {
		return 0, err
	}

	var mat backend.MaterialID
	if m.Textured() {
		texPath, err := d.Fetcher.Fetch(ctx, m.DiffuseURL)
		if err != nil {
			return obj, err
		}
		if mat, err = d.Backend.NewTexturedMaterial(texPath); err != nil {
			return obj, err
		}
	} else {
		if mat, err = d.Backend.NewColorMaterial(m.Color); err != nil {
			return obj, err
		}
	}
	if err := d.Backend.AssignMaterial(obj, mat); err != nil {
		return obj, err
	}

	return obj, d.Backend.SetTransform(obj, m.Transform)
}

func (d *Driver) buildPlane(ctx context.Context, p *scene.Plane) (backend.ObjectID, error) {
	imgPath, err := d.Fetcher.Fetch(ctx, p.ImageURL)
	if err != nil {
		return 0, err
	}
	pw, ph, err := d.Backend.ImageSize(imgPath)
	if err != nil {
		return 0, err
	}
	obj, err := d.Backend.NewImagePlane(imgPath)
	if err != nil {
		return 0, err
	}

	t := p.Transform
	t.Scale.X *= spritesheet.XScale(pw, ph, 1, 1) * p.WidthScale * p.ImageScalar
	t.Scale.Y *= p.ImageScalar
	return obj, d.Backend.SetTransform(obj, t)
}

func (d *Driver) buildCard(ctx context.Context, c *scene.Card) (backend.ObjectID, error) {
	quad, err := spritesheet.Locate(c.Index, c.SheetWidth, c.SheetHeight)
	if err != nil {
		return 0, err
	}
	sheetPath, err := d.Fetcher.Fetch(ctx, c.FaceURL)
	if err != nil {
		return 0, err
	}
	pw, ph, err := d.Backend.ImageSize(sheetPath)
	if err != nil {
		return 0, err
	}
	obj, err := d.Backend.NewImagePlane(sheetPath)
	if err != nil {
		return 0, err
	}

	loops, err := d.Backend.UVs(obj)
	if err != nil {
		return obj, err
	}
	if len(loops) != 4 {
		return obj, fmt.Errorf("card plane has %d uv loops, want 4: %w", len(loops), backend.ErrLoopCount)
	}
	if err := d.Backend.SetUVs(obj, quad.Loops()); err != nil {
		return obj, err
	}

	t := c.Transform
	t.Scale.X *= spritesheet.XScale(pw, ph, c.SheetWidth, c.SheetHeight)
	return obj, d.Backend.SetTransform(obj, t)
}

func objectName(e scene.Entity) string {
	if e.GUID == "" {
		return e.Tag
	}
	return e.Tag + " " + e.GUID
}
