package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hansen-L/TTS-Exporter/internal/config"
	"github.com/Hansen-L/TTS-Exporter/internal/importer"
	"github.com/Hansen-L/TTS-Exporter/internal/logging"
	"github.com/Hansen-L/TTS-Exporter/internal/watch"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a config file (.json or .toml)")
	savePath := flag.String("save", "", "Tabletop Simulator save file (JSON)")
	output := flag.String("output", "", "Output file (default: next to the save file)")
	format := flag.String("format", "", "Output format: glb, gltf, webp or json (default: glb)")
	cacheDir := flag.String("cache", "", "Asset cache directory (default: user cache dir)")
	rotation := flag.String("rotation", "", "Rotation mode: full or upright (default: full)")
	size := flag.Int("size", 0, "Preview edge in pixels for webp output (default: 1024)")
	workers := flag.Int("workers", 0, "Concurrent asset downloads (default: NumCPU)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn or error (default: info)")
	watchSave := flag.Bool("watch", false, "Rebuild whenever the save file changes")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// A bare argument is the save file.
	if *savePath == "" && flag.NArg() > 0 {
		*savePath = flag.Arg(0)
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		SavePath:    *savePath,
		OutputPath:  *output,
		CacheDir:    *cacheDir,
		Format:      *format,
		Rotation:    *rotation,
		LogLevel:    *logLevel,
		PreviewSize: *size,
		Workers:     *workers,
		Watch:       *watchSave,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	im, err := importer.New(cfg, logger)
	if err != nil {
		logger.Fatal("setup failed", "err", err)
	}
	logger.Info("cache ready", "dir", cfg.CacheDir, "entries", im.Fetcher().Cached())

	rep, err := im.Run(ctx)
	if err != nil {
		logger.Error("import failed", "err", err, "built", rep.Built, "failed", rep.Failed)
		if !cfg.Watch {
			os.Exit(1)
		}
	}

	if !cfg.Watch {
		return
	}

	w, err := watch.New(cfg.SavePath, watch.DefaultDebounce, logger)
	if err != nil {
		logger.Fatal("watch failed", "err", err)
	}
	defer w.Close()

	logger.Info("watching for changes", "save", cfg.SavePath)
	err = w.Run(ctx, func(ctx context.Context) error {
		_, err := im.Run(ctx)
		return err
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("watch stopped", "err", err)
		os.Exit(1)
	}
}
