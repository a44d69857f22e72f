// Command emberd runs the TCP front end over an embedded ember store.
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberkv/ember/internal/engineiface"
	"github.com/emberkv/ember/internal/netsrv"
	"github.com/emberkv/ember/pkg/logger"
	"github.com/emberkv/ember/pkg/options"
)

func main() {
	var (
		addr               = flag.String("addr", "127.0.0.1:4004", "listen address")
		dataDir            = flag.String("data-dir", "./emberdb", "data directory")
		segmentSizeBytes   = flag.Uint64("segment-size", options.DefaultSegmentSizeThreshold, "active segment size threshold in bytes")
		compactionInterval = flag.Duration("compaction-interval", options.DefaultCompactionCheckInterval, "compactor check interval")
	)
	flag.Parse()

	opts := []options.OptionFunc{
		options.WithDataDir(*dataDir),
		options.WithSegmentSizeThreshold(*segmentSizeBytes),
		options.WithCompactionCheckInterval(*compactionInterval),
	}

	engine, err := engineiface.Open(engineiface.NativeLog, "emberd", opts...)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer engine.Close()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", *addr, err)
	}

	srv := netsrv.New(ln, engine, logger.New("emberd"))
	go func() {
		if err := srv.Serve(); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()
	log.Printf("emberd listening on %s, data dir %s", ln.Addr(), *dataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down")
	srv.Close()
}
