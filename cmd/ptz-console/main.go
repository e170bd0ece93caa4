// Command ptz-console sends pan/tilt poses typed on stdin to the mount.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/ptz-tracker/internal/actuator"
	"github.com/banshee-data/ptz-tracker/internal/config"
	"github.com/banshee-data/ptz-tracker/internal/serialmux"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Path to the JSON tuning file")
	port       = flag.String("port", "/dev/ttyACM0", "Serial port of the pan/tilt mount")
	noHome     = flag.Bool("no-home", false, "Do not move the mount to its home pose on start")
)

func main() {
	flag.Parse()

	tuning, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	mount, err := serialmux.NewRealSerialMux(*port, tuning.GetSerial())
	if err != nil {
		log.Fatalf("failed to open mount: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := mount.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
	}()

	home := tuning.GetHome()
	link := actuator.NewLink(mount, actuator.Options{Home: &home, SettleDelay: tuning.GetSettleDelay()})
	defer link.Close()

	if !*noHome {
		if err := link.Reset(); err != nil {
			log.Printf("failed to home mount: %v", err)
		}
	}

	if err := actuator.RunConsole(ctx, os.Stdin, os.Stdout, link); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("console: %v", err)
	}
}
