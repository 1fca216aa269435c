package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cascadecv/cascade/internal/app"
	"github.com/cascadecv/cascade/internal/audio"
	"github.com/cascadecv/cascade/internal/capture"
	"github.com/cascadecv/cascade/internal/config"
	"github.com/cascadecv/cascade/internal/detect"
	"github.com/cascadecv/cascade/internal/judge"
	"github.com/cascadecv/cascade/internal/server"
	"github.com/cascadecv/cascade/internal/store"
	"github.com/cascadecv/cascade/internal/tray"
)

func main() {
	var (
		flagScale      = flag.Float64("scale", 0, "resize factor for the capture window")
		flagDebug      = flag.Bool("debug", false, "draw detection boxes, track IDs and FPS")
		flagTrackTime  = flag.Float64("tracktime", 0, "max seconds to reacquire a tracked ball")
		flagTrackRange = flag.Int("trackrange", 0, "max pixel range to reacquire a tracked ball")
		flagFramerate  = flag.Int("framerate", 0, "recording frames per second")
		flagReset      = flag.Bool("reset", false, "restore persisted settings to defaults and exit")
		flagCamera     = flag.Int("camera", 0, "camera device ID")
		flagDB         = flag.String("db", "", "path to the settings database")
		flagListen     = flag.String("listen", "", "address for the HTTP dashboard, e.g. :8080")
		flagTray       = flag.Bool("tray", false, "run with a system tray control")
		flagRecord     = flag.Bool("record", false, "record the rendered frames to a capture file")
		flagWeights    = flag.String("weights", "yolov3_training_last.weights", "YOLO weights file")
		flagModel      = flag.String("model", "yolov3_testing.cfg", "YOLO model configuration file")
	)
	flag.Parse()

	fmt.Println("Cascade - Juggling Throw-Height Trainer")

	// Resolve the data directory
	dataDir, err := dataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}

	dbPath := *flagDB
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "cascade.db")
	}

	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if *flagReset {
		if err := config.Reset(st); err != nil {
			log.Fatalf("Failed to reset settings: %v", err)
		}
		fmt.Println("Settings restored to defaults")
		return
	}

	settings, err := config.Load(st)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	// Flags explicitly set on the command line override stored settings for
	// this run.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scale":
			settings.Scale = *flagScale
		case "debug":
			settings.Debug = *flagDebug
		case "tracktime":
			settings.TrackTime = *flagTrackTime
		case "trackrange":
			settings.TrackRange = *flagTrackRange
		case "framerate":
			settings.Framerate = *flagFramerate
		}
	})

	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	fmt.Println("Loading... This could take a minute.")
	detector, err := detect.NewYOLODetector(*flagWeights, *flagModel, detect.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to load detection model: %v", err)
	}
	defer detector.Close()

	// Audio is best-effort: without a playback device the trainer still
	// tracks and shows verdicts on screen.
	sounds, err := audio.NewPlayer()
	if err != nil {
		log.Printf("Audio unavailable (%v), feedback tones disabled", err)
		sounds = nil
	} else {
		defer sounds.Close()
	}

	var hub *server.Hub
	var frames *server.FrameBuffer
	if *flagListen != "" {
		hub = server.NewHub()
		frames = server.NewFrameBuffer()
	}

	var trayCtl *tray.Tray
	if *flagTray {
		trayCtl = tray.New()
	}

	application := app.New(app.Config{
		Settings:   settings,
		Store:      st,
		Camera:     capture.NewCamera(*flagCamera),
		Detector:   detector,
		Sounds:     sounds,
		Hub:        hub,
		Frames:     frames,
		Record:     *flagRecord,
		CaptureDir: filepath.Join(dataDir, "captures"),
		ShowWindow: true,
		OnFeedback: func(fb judge.Feedback) {
			if trayCtl != nil {
				trayCtl.SetLastVerdict(fb.Verdict.String())
			}
		},
	})

	if *flagListen != "" {
		srv := server.New(server.Config{
			Store:    st,
			Settings: settings,
			Hub:      hub,
			Frames:   frames,
			Stats:    application.Stats,
		})
		go func() {
			fmt.Printf("Dashboard listening on %s\n", *flagListen)
			if err := srv.ListenAndServe(*flagListen); err != nil {
				log.Printf("Dashboard server failed: %v", err)
			}
		}()
	}

	// Ctrl-C stops the loop cleanly so the session statistics get saved.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		application.Stop()
	}()

	if trayCtl != nil {
		trayCtl.OnMute(func(muted bool) {
			if sounds != nil {
				sounds.SetMuted(muted)
			}
		})
		trayCtl.OnQuit(application.Stop)

		// systray owns the main thread; the frame loop moves to a goroutine.
		go func() {
			if err := application.Run(); err != nil {
				log.Printf("Pipeline failed: %v", err)
			}
			trayCtl.Quit()
		}()
		trayCtl.Run()
		return
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
}

// dataDir returns ~/.cascade, creating it if needed.
func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(homeDir, ".cascade")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return dir, nil
}
