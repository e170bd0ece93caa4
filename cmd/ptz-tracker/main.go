package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/ptz-tracker/internal/actuator"
	"github.com/banshee-data/ptz-tracker/internal/camera"
	"github.com/banshee-data/ptz-tracker/internal/config"
	"github.com/banshee-data/ptz-tracker/internal/db"
	"github.com/banshee-data/ptz-tracker/internal/detection"
	"github.com/banshee-data/ptz-tracker/internal/report"
	"github.com/banshee-data/ptz-tracker/internal/serialmux"
	"github.com/banshee-data/ptz-tracker/internal/servo"
	"github.com/banshee-data/ptz-tracker/internal/timeutil"
	"github.com/banshee-data/ptz-tracker/internal/version"
)

var (
	configPath   = flag.String("config", config.DefaultConfigPath, "Path to the JSON tuning file")
	port         = flag.String("port", "/dev/ttyACM0", "Serial port of the pan/tilt mount")
	disableMount = flag.Bool("disable-mount", false, "Log commands without opening the serial port")
	source       = flag.String("camera", "0", "Camera device ID or path to a video file")
	modelPath    = flag.String("model", "yolov4.weights", "YOLO model weights (or ONNX file)")
	modelConfig  = flag.String("model-config", "yolov4.cfg", "YOLO network config; empty for ONNX")
	useCUDA      = flag.Bool("cuda", false, "Run the detector on the CUDA backend")
	dbPath       = flag.String("db-path", "ptz_sessions.db", "Path to the session database")
	label        = flag.String("label", "", "Label stored with the recorded session")
	listen       = flag.String("listen", ":8080", "Listen address for the admin HTTP server; empty disables it")
	showVersion  = flag.Bool("version", false, "Print the version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n       %s migrate <up|down|status>\n\n", os.Args[0], os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println("ptz-tracker", version.String())
		return
	}
	if flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	tuning, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	log.Printf("ptz-tracker %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, tuning); err != nil {
		log.Fatalf("ptz-tracker: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

func run(ctx context.Context, tuning *config.TuningConfig) error {
	mount, err := openMount(serialmux.RealPortFactory{}, *port, *disableMount, tuning.GetSerial())
	if err != nil {
		return fmt.Errorf("failed to open mount: %w", err)
	}

	home := tuning.GetHome()
	link := actuator.NewLink(mount, actuator.Options{Home: &home, SettleDelay: tuning.GetSettleDelay()})
	defer link.Close()

	zb := camera.ZoomBounds{Min: tuning.GetZoomMin(), Max: tuning.GetZoomMax()}
	capture, err := camera.Open(*source, zb)
	if err != nil {
		return err
	}
	defer capture.Close()

	detector, err := detection.NewYOLODetector(*modelPath, *modelConfig, detection.Options{
		Filter: detection.Filter{ClassIDs: tuning.GetClassIDs(), MinConfidence: tuning.GetMinConfidence()},
		CUDA:   *useCUDA,
	})
	if err != nil {
		return err
	}
	defer detector.Close()

	store, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open session database: %w", err)
	}
	defer store.Close()

	clock := timeutil.RealClock{}
	configJSON, err := json.Marshal(tuning)
	if err != nil {
		return err
	}
	sessionID, err := store.StartSession(*label, string(configJSON), clock.Now())
	if err != nil {
		return err
	}
	log.Printf("recording session %s to %s", sessionID, *dbPath)
	defer func() {
		if err := store.EndSession(sessionID, clock.Now()); err != nil {
			log.Printf("failed to end session %s: %v", sessionID, err)
		}
	}()

	if err := link.Reset(); err != nil {
		log.Printf("failed to home mount: %v", err)
	}

	loop := &servo.Loop{
		Source:                      cameraSource{capture},
		Detector:                    yoloDetector{detector},
		Actuator:                    link,
		Controller:                  servo.NewController(tuning.ServoConfig(), clock, link),
		Recorder:                    store.NewSessionRecorder(sessionID),
		Clock:                       clock,
		DetectTimeout:               tuning.GetDetectTimeout(),
		MaxConsecutiveWriteFailures: tuning.GetMaxConsecutiveWriteFailures(),
	}

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// run the monitor routine to log replies from the mount
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mount.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	if *listen != "" {
		mux := http.NewServeMux()
		mount.AttachAdminRoutes(mux)
		store.AttachAdminRoutes(mux)
		loop.AttachAdminRoutes(mux)
		report.AttachAdminRoutes(mux, store)

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveAdmin(ctx, mux, *listen)
		}()
	}

	loopErr := loop.Run(ctx)
	if errors.Is(loopErr, context.Canceled) {
		loopErr = nil
	}

	cancel()
	wg.Wait()
	return loopErr
}

func serveAdmin(ctx context.Context, mux *http.ServeMux, addr string) {
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("admin server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("HTTP server routine stopped")
}
