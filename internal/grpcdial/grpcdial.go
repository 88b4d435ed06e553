// Package grpcdial provides the client-side dial helper used by
// cmd/nar-bridge: insecure transport (TLS termination is out of
// scope here), OpenTelemetry stats instrumentation, and an exponential
// backoff around the initial connection attempt.
package grpcdial

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dial connects to a gRPC endpoint, retrying with exponential backoff
// until the connection is established or ctx is cancelled.
func Dial(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	var conn *grpc.ClientConn

	op := func() error {
		var err error
		conn, err = grpc.DialContext(ctx, addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
			grpc.WithBlock(),
		)
		if err != nil {
			log.WithError(err).WithField("addr", addr).Warn("unable to connect, retrying")
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		return nil, err
	}

	return conn, nil
}
