// nar-bridge exposes a tvix-store gRPC endpoint as a Nix-compatible
// HTTP binary cache.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	log "github.com/sirupsen/logrus"

	narBridgeHttp "tvix.dev/store-engine/bridge/http"
	castorev1 "tvix.dev/store-engine/castore"
	"tvix.dev/store-engine/internal/grpcdial"
	storev1 "tvix.dev/store-engine/store"
)

var cli struct {
	LogLevel        string `enum:"trace,debug,info,warn,error,fatal,panic" help:"The log level to log with" default:"info"`
	ListenAddr      string `name:"listen-addr" help:"The address this service listens on" type:"string" default:"[::]:9000"`                    //nolint:lll
	EnableAccessLog bool   `name:"access-log" help:"Enable access logging" type:"bool" default:"true" negatable:""`                             //nolint:lll
	StoreAddr       string `name:"store-addr" help:"The address to the tvix-store RPC interface this will connect to" default:"localhost:8000"` //nolint:lll
	Priority        int    `name:"priority" help:"The priority to announce in nix-cache-info" default:"30"`
}

func main() {
	_ = kong.Parse(&cli)

	logLevel, err := log.ParseLevel(cli.LogLevel)
	if err != nil {
		log.Panic("invalid log level")
		return
	}
	log.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// connect to tvix-store
	log.Debugf("Dialing to %v", cli.StoreAddr)
	conn, err := grpcdial.Dial(ctx, cli.StoreAddr)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer conn.Close()

	s := narBridgeHttp.New(
		castorev1.NewDirectoryServiceClient(conn),
		castorev1.NewBlobServiceClient(conn),
		storev1.NewPathInfoServiceClient(conn),
		cli.EnableAccessLog,
		cli.Priority,
	)

	log.Printf("Starting nar-bridge at %v", cli.ListenAddr)
	go s.ListenAndServe(cli.ListenAddr) //nolint:errcheck

	// listen for the interrupt signal.
	<-ctx.Done()

	// Restore default behaviour on the interrupt signal
	stop()
	log.Info("Received Signal, shutting down, press Ctl+C again to force.")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Shutdown(timeoutCtx); err != nil {
		log.WithError(err).Warn("failed to shutdown")
		os.Exit(1)
	}
}
