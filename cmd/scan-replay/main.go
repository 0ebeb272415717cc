// Command scan-replay runs a recorded turntable scan through the scanner
// pipeline and writes the resulting point cloud as ASCII PLY.
//
// Usage:
//
//	go run ./cmd/scan-replay -manifest frames.json [flags]
//
// The manifest is a JSON list of frames, paths relative to the manifest:
//
//	[{"raw": "off_000.png", "laser": "on_000.png", "angle_deg": 0}, ...]
//
// Flags:
//
//	-config    Scan config JSON (default: built-in defaults)
//	-manifest  Frame manifest JSON (required)
//	-out       Output PLY path (default: scan.ply)
//	-db        SQLite database to record the session in (optional)
//	-listen    gRPC address to stream increments on (optional)
//	-linger    Keep serving increments this long after the replay
//	-masks     Directory to write per-frame binary masks (BMP) into
//	-v         Log verbosity: 0 ops, 1 diag, 2 trace
//	-version   Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/laserscan/internal/config"
	"github.com/banshee-data/laserscan/internal/db"
	"github.com/banshee-data/laserscan/internal/monitoring"
	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
	"github.com/banshee-data/laserscan/internal/scan/pipeline"
	"github.com/banshee-data/laserscan/internal/scan/storage/sqlite"
	"github.com/banshee-data/laserscan/internal/scan/stream"
	"github.com/banshee-data/laserscan/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Scan config JSON")
	manifestPath := flag.String("manifest", "", "Frame manifest JSON")
	outPath := flag.String("out", "scan.ply", "Output PLY path")
	dbPath := flag.String("db", "", "SQLite database to record the session in")
	listen := flag.String("listen", "", "gRPC address to stream increments on")
	linger := flag.Duration("linger", 0, "Keep serving increments this long after the replay")
	maskDir := flag.String("masks", "", "Directory to write per-frame binary masks (BMP) into")
	verbosity := flag.Int("v", monitoring.LevelOps, "Log verbosity: 0 ops, 1 diag, 2 trace")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("scan-replay"))
		return
	}
	log.Println(version.String("scan-replay"))

	if *manifestPath == "" {
		log.Fatalf("-manifest is required")
	}
	setupLogging(*verbosity)

	cfg := config.DefaultScanConfig()
	if *configPath != "" {
		loaded, err := config.LoadScanConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	settings, err := cfg.ToSettings()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	frames, err := loadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}
	log.Printf("Loaded %d frames from %s", len(frames), *manifestPath)

	opts := pipeline.Options{QueueCapacity: cfg.GetQueueCapacity()}
	if *dbPath != "" {
		database, err := db.OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()
		opts.Recorder = sqlite.NewSessionStore(database.DB)
	}

	engine := pipeline.NewEngine(opts)
	if err := engine.Configure(settings); err != nil {
		log.Fatalf("Failed to configure engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisherDone chan struct{}
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()
	if *listen != "" {
		pcfg := stream.DefaultConfig()
		pcfg.PollInterval = cfg.GetPollInterval()
		publisher := stream.NewPublisher(engine, pcfg)
		server := stream.NewServer(publisher)

		lis, err := net.Listen("tcp", *listen)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", *listen, err)
		}
		go func() {
			if err := server.Serve(lis); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
		defer server.GracefulStop()

		publisherDone = make(chan struct{})
		go func() {
			publisher.Run(pubCtx)
			close(publisherDone)
		}()
		log.Printf("Streaming increments on %s", *listen)
	}

	id, err := engine.StartScan()
	if err != nil {
		log.Fatalf("Failed to start scan: %v", err)
	}
	log.Printf("Scan %s started", id)

	if *maskDir != "" {
		if err := os.MkdirAll(*maskDir, 0o755); err != nil {
			log.Fatalf("Failed to create mask directory: %v", err)
		}
	}
	summary := replay(ctx, engine, frames, *maskDir)
	if err := engine.StopScan(); err != nil {
		log.Printf("Failed to finish scan: %v", err)
	}

	cloud := engine.FullCloud()
	if err := l5cloud.ExportPLY(*outPath, cloud); err != nil {
		log.Fatalf("Failed to write PLY: %v", err)
	}
	st := engine.Stats()
	log.Printf("Scan %s: frames=%d failed=%d points=%d dropped_increments=%d -> %s",
		id, summary.frames, summary.failed, cloud.Len(), st.Dropped, *outPath)

	if publisherDone != nil {
		if *linger > 0 {
			log.Printf("Serving increments for another %s", *linger)
			select {
			case <-ctx.Done():
			case <-time.After(*linger):
			}
		}
		stopPublisher()
		<-publisherDone
	}
}

func setupLogging(level int) {
	ops, diag, trace := monitoring.StreamWriters(level, os.Stderr)
	pipeline.SetLogWriters(ops, diag, trace)
	l5cloud.SetLogWriters(ops, diag, trace)
	stream.SetLogWriters(ops, diag, trace)
}
