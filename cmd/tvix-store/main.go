// tvix-store serves the three gRPC services (BlobService,
// DirectoryService, PathInfoService) backed by the in-memory reference
// stores.
package main

import (
	"net"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"tvix.dev/store-engine/blobservice"
	castorev1 "tvix.dev/store-engine/castore"
	"tvix.dev/store-engine/directoryservice"
	"tvix.dev/store-engine/pathinfoservice"
	storev1 "tvix.dev/store-engine/store"
)

var cli struct {
	LogLevel   string `enum:"trace,debug,info,warn,error,fatal,panic" help:"The log level to log with" default:"info"`
	ListenAddr string `name:"listen-addr" help:"The address this service listens on" type:"string" default:"[::]:8000"`                   //nolint:lll
	ChunkSize  int    `name:"chunk-size" help:"Cut blobs larger than this into chunks of this many bytes, 0 to disable" default:"262144"` //nolint:lll
}

func main() {
	_ = kong.Parse(&cli)

	logLevel, err := log.ParseLevel(cli.LogLevel)
	if err != nil {
		log.Panic("invalid log level")
		return
	}
	log.SetLevel(logLevel)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		for range c {
			log.Info("Received Signal, shutting down…")
			os.Exit(1)
		}
	}()

	blobStore := blobservice.NewMemoryStore(cli.ChunkSize)
	directoryStore := directoryservice.NewMemoryStore()

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	castorev1.RegisterBlobServiceServer(s, blobservice.NewGRPCServer(blobStore))
	castorev1.RegisterDirectoryServiceServer(s, directoryservice.NewGRPCServer(directoryStore))
	storev1.RegisterPathInfoServiceServer(s, pathinfoservice.NewMemoryServer(directoryStore, blobStore))

	listener, err := net.Listen("tcp", cli.ListenAddr)
	if err != nil {
		log.Fatalf("unable to listen on %v: %v", cli.ListenAddr, err)
	}

	log.Printf("Starting tvix-store at %v", cli.ListenAddr)
	if err := s.Serve(listener); err != nil {
		log.Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}
