// Package main provides the CLI entrypoint for the anonymization
// camera pipeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anoncam/core/internal/capture"
	"github.com/anoncam/core/internal/compositor"
	"github.com/anoncam/core/internal/config"
	"github.com/anoncam/core/internal/detector"
	"github.com/anoncam/core/internal/extension"
	"github.com/anoncam/core/internal/pipeline"
	"github.com/anoncam/core/internal/pose"
	"github.com/anoncam/core/internal/ring"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	cameraID := flag.Int("camera", -1, "Camera device ID (overrides config)")
	preset := flag.String("preset", "", "Capture preset: low, medium, high (overrides config width/height)")
	noMirror := flag.Bool("no-mirror", false, "Disable horizontal flip (mirror mode)")
	preview := flag.Bool("preview", false, "Show a debug preview window of the composited output")
	software := flag.Bool("software", false, "Force the software (CPU) renderer instead of the GPU path")
	heartbeatAddr := flag.String("heartbeat-addr", "", "UDP address to publish ring liveness heartbeats to")
	heartbeatPort := flag.Int("heartbeat-port", 0, "UDP port for the liveness heartbeat")
	verbose := flag.Bool("verbose", false, "Enable verbose status logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "anoncam - realtime camera anonymization pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                       # Run with default settings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config config.toml   # Run with a custom config\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -preview              # Show the composited preview window\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -preset high          # Capture at 1920x1080\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("anoncam version %s\n", version)
		os.Exit(0)
	}

	// The pipeline is constructed up front, in Idle state, so that any
	// setup failure below can transition it to Errored and notify the
	// status callback (spec.md §7's configuration-error contract)
	// instead of just crashing the process. Its collaborators are
	// wired in via setters as each one comes up.
	statusLog := log.Default()
	p := pipeline.New(nil, nil, nil, pipeline.Callbacks{
		OnStatus: func(s string) {
			if *verbose || strings.HasPrefix(s, "Error:") {
				statusLog.Println(s)
			}
		},
	})
	defer p.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		p.Fail(pipeline.ErrorConfiguration, err)
		log.Fatalf("Failed to load config: %v", err)
	}

	if *cameraID >= 0 {
		cfg.Camera.DeviceID = *cameraID
	}
	if *preset != "" {
		res, err := capture.ResolveResolution(capture.Preset(*preset))
		if err != nil {
			p.Fail(pipeline.ErrorConfiguration, err)
			log.Fatalf("Invalid preset: %v", err)
		}
		cfg.Camera.Width, cfg.Camera.Height = res.Width, res.Height
	}

	if *verbose {
		log.Printf("Configuration:")
		log.Printf("  Camera: device=%d, %dx%d@%dfps", cfg.Camera.DeviceID, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
		log.Printf("  Mask: enabled=%v style=%s pixelate=%v scale=%.2f", cfg.Mask.Enabled, cfg.Mask.Style, cfg.Mask.Pixelate, cfg.Mask.Scale)
		log.Printf("  Ring: path=%s buffers=%d", cfg.Ring.Path, cfg.Ring.BufferCount)
	}

	producer, err := ring.Create(cfg.Ring.Path, cfg.Camera.Width, cfg.Camera.Height, cfg.Ring.BufferCount)
	if err != nil {
		p.Fail(pipeline.ErrorConfiguration, err)
		log.Fatalf("Failed to create ring buffer: %v", err)
	}
	defer producer.Close()
	p.SetProducer(producer)

	landmarkDetector, err := newLandmarkDetector()
	if err != nil {
		p.Fail(pipeline.ErrorConfiguration, err)
		log.Fatalf("Failed to initialize face detector: %v", err)
	}
	p.SetDetector(detector.NewAnalyzer(landmarkDetector))

	var renderer compositor.Renderer
	if *software {
		renderer = compositor.NewSoftware(cfg.Camera.Width, cfg.Camera.Height)
	} else {
		gpu, err := compositor.NewGPU(cfg.Camera.Width, cfg.Camera.Height)
		if err != nil {
			log.Printf("GPU renderer unavailable (%v), falling back to software", err)
			renderer = compositor.NewSoftware(cfg.Camera.Width, cfg.Camera.Height)
		} else {
			renderer = gpu
		}
	}
	defer renderer.Close()
	p.SetRenderer(renderer)

	if *preview {
		previewWindow := capture.NewPreviewWindow("anoncam preview")
		defer previewWindow.Close()
		p.SetOnPreview(previewWindow.Show)
	}

	pixelSize := 0.0
	if cfg.Mask.Pixelate {
		pixelSize = cfg.Mask.PixelSize
	}

	p.SetSmoother(pose.NewSmoother(0.3))
	p.SetSettings(pipeline.Settings{
		Style:       cfg.Mask.Style,
		MaskEnabled: cfg.Mask.Enabled,
		PixelSize:   pixelSize,
		Debug:       cfg.Mask.Debug,
		HeadScale:   cfg.Mask.Scale,
		Sticker:     cfg.Mask.Sticker,
	})

	mirror := !*noMirror
	camera := capture.NewOpenCVCamera(mirror, capture.Callbacks{
		OnFrame: p.HandleFrame,
		OnError: p.HandleCaptureError,
	})
	if err := camera.Open(cfg.Camera.DeviceID, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS); err != nil {
		p.Fail(pipeline.ErrorConfiguration, err)
		log.Fatalf("Failed to open camera: %v", err)
	}
	defer camera.Close()

	if err := p.Start(fmt.Sprintf("%d", cfg.Camera.DeviceID)); err != nil {
		p.Fail(pipeline.ErrorConfiguration, err)
		log.Fatalf("Failed to start pipeline: %v", err)
	}

	identity := extension.NewIdentity()
	var heartbeat *extension.Heartbeat
	if *heartbeatAddr != "" {
		heartbeat, err = extension.NewHeartbeat(*heartbeatAddr, *heartbeatPort)
		if err != nil {
			log.Fatalf("Failed to start heartbeat: %v", err)
		}
		defer heartbeat.Close()
	}

	consumer := ring.NewLocalConsumer(producer)
	dequeue := extension.NewDequeueLoop(consumer, nil, func() {
		if heartbeat != nil {
			heartbeat.Send(identity, producer.FrameCount(), p.FPS())
		}
	})
	dequeue.Start()
	defer dequeue.Stop()

	log.Printf("Pipeline started: %dx%d@%dfps, mirror=%v", cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS, mirror)
	log.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	statusTicker := time.NewTicker(5 * time.Second)
	defer statusTicker.Stop()

	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down...", sig)
			p.Stop()
			return
		case <-statusTicker.C:
			if *verbose {
				backpressure, transient, resourceExhaustion, ringDetachment := p.DroppedCounts()
				log.Printf("fps=%.1f dropped_backpressure=%d dropped_transient=%d dropped_resource_exhaustion=%d dropped_ring_detachment=%d",
					p.FPS(), backpressure, transient, resourceExhaustion, ringDetachment)
			}
		}
	}
}
