// Package importer runs one save-file import end to end: parse, prefetch, build, save.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Hansen-L/TTS-Exporter/internal/backend"
	"github.com/Hansen-L/TTS-Exporter/internal/backend/gltfscene"
	"github.com/Hansen-L/TTS-Exporter/internal/backend/preview"
	"github.com/Hansen-L/TTS-Exporter/internal/backend/record"
	"github.com/Hansen-L/TTS-Exporter/internal/batch"
	"github.com/Hansen-L/TTS-Exporter/internal/build"
	"github.com/Hansen-L/TTS-Exporter/internal/config"
	"github.com/Hansen-L/TTS-Exporter/internal/fetch"
	"github.com/Hansen-L/TTS-Exporter/internal/logging"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
	"github.com/Hansen-L/TTS-Exporter/internal/texture"
)

// SceneBackend is a backend that can also write its result.
type SceneBackend interface {
	backend.Backend
	backend.Saver
}

// NewBackend returns the backend for cfg.Format.
func NewBackend(cfg config.Config, textures *texture.Cache, l *log.Logger) (SceneBackend, error) {
	switch cfg.Format {
	case config.FormatGLB, config.FormatGLTF:
		return gltfscene.New(l), nil
	case config.FormatWebP:
		return preview.New(preview.Options{
			Size:        cfg.PreviewSize,
			Supersample: cfg.Supersample,
			Textures:    textures,
			Log:         l,
		}), nil
	case config.FormatJSON:
		return record.New(), nil
	}
	return nil, fmt.Errorf("importer: unknown format %q", cfg.Format)
}

// Importer holds what survives between runs in watch mode: the fetch cache and the
// decoded textures.
type Importer struct {
	cfg      config.Config
	log      *log.Logger
	fetcher  *fetch.Fetcher
	textures *texture.Cache
}

// New prepares the cache directory. cfg must already be resolved and validated.
func New(cfg config.Config, l *log.Logger) (*Importer, error) {
	l = logging.OrDiscard(l)
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	f, err := fetch.New(cfg.CacheDir, fetch.WithTimeout(timeout), fetch.WithLogger(l))
	if err != nil {
		return nil, err
	}
	return &Importer{cfg: cfg, log: l, fetcher: f, textures: texture.NewCache()}, nil
}

// Fetcher returns the shared asset fetcher.
func (im *Importer) Fetcher() *fetch.Fetcher {
	return im.fetcher
}

// Run imports the save file once and writes cfg.OutputPath. Objects built before a
// failure are still written.
func (im *Importer) Run(ctx context.Context) (build.Report, error) {
	start := time.Now()

	mode, err := im.cfg.RotationMode()
	if err != nil {
		return build.Report{}, err
	}
	doc, entities, err := scene.ParseFile(im.cfg.SavePath, scene.Options{Rotation: mode})
	if err != nil {
		return build.Report{}, err
	}
	counts := scene.Counts(entities)
	im.log.Info("save parsed",
		"name", doc.SaveName,
		"game", doc.GameMode,
		"objects", len(entities),
		"models", counts[scene.KindCustomModel],
		"cards", counts[scene.KindCard],
		"planes", counts[scene.KindPlane],
		"decks", counts[scene.KindDeck],
		"unhandled", counts[scene.KindUnhandled],
	)

	urls := batch.Assets(entities)
	fetched := batch.Prefetch(ctx, batch.Config{Fetcher: im.fetcher, Workers: im.cfg.Workers, Log: im.log}, urls)

	be, err := NewBackend(im.cfg, im.textures, im.log)
	if err != nil {
		return build.Report{}, err
	}
	d := &build.Driver{Backend: be, Fetcher: batch.Settled(im.fetcher, fetched), Log: im.log}
	rep, runErr := d.Run(ctx, entities)

	if rep.Built > 0 || runErr == nil {
		if err := be.Save(im.cfg.OutputPath); err != nil {
			if runErr != nil {
				return rep, fmt.Errorf("%w (and save: %v)", runErr, err)
			}
			return rep, err
		}
		im.log.Info("scene written", "output", im.cfg.OutputPath, "format", im.cfg.Format,
			"took", time.Since(start).Round(time.Millisecond))
	}
	return rep, runErr
}
