// Command scan-tail subscribes to a scan-replay increment stream and prints
// one line per received delta.
//
// Usage:
//
//	go run ./cmd/tools/scan-tail [-addr localhost:50061]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
	"github.com/banshee-data/laserscan/internal/scan/stream"
	"github.com/banshee-data/laserscan/internal/version"
)

func main() {
	addr := flag.String("addr", "localhost:50061", "Increment stream address")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("scan-tail"))
		return
	}
	log.Println(version.String("scan-tail"))

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to create client for %s: %v", *addr, err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deltas, points int
	log.Printf("Subscribing to %s", *addr)
	err = stream.Subscribe(ctx, conn, func(d l5cloud.Delta) error {
		deltas++
		points += d.Len()
		log.Printf("delta %d: %d points (total %d)", deltas, d.Len(), points)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("Stream failed: %v", err)
	}
	log.Printf("Stream ended: %d deltas, %d points", deltas, points)
}
