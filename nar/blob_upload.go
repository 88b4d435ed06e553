package nar

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	castorev1 "tvix.dev/store-engine/castore"
)

// the maximum payload carried by a single BlobChunk message.
const chunkSize = 1024 * 1024

// chunkedBlobWriter adapts an open Put stream into an io.Writer,
// sending one BlobChunk per Write call.
type chunkedBlobWriter struct {
	stream castorev1.BlobService_PutClient
}

func (cw *chunkedBlobWriter) Write(p []byte) (int, error) {
	if err := cw.stream.Send(&castorev1.BlobChunk{Data: p}); err != nil {
		return 0, fmt.Errorf("sending blob chunk: %w", err)
	}
	return len(p), nil
}

// GenBlobUploaderCb returns a callback suitable as Import's blobCb,
// uploading every file body to the passed BlobServiceClient.
func GenBlobUploaderCb(ctx context.Context, blobServiceClient castorev1.BlobServiceClient) func(io.Reader) ([]byte, error) {
	return func(blobReader io.Reader) ([]byte, error) {
		stream, err := blobServiceClient.Put(ctx)
		if err != nil {
			return nil, fmt.Errorf("opening blob put stream: %w", err)
		}

		// io.CopyBuffer hands its buffer to chunkedBlobWriter.Write, so
		// no single message exceeds chunkSize.
		blobSize, err := io.CopyBuffer(&chunkedBlobWriter{stream: stream}, blobReader, make([]byte, chunkSize))
		if err != nil {
			return nil, fmt.Errorf("uploading blob contents: %w", err)
		}

		resp, err := stream.CloseAndRecv()
		if err != nil {
			return nil, fmt.Errorf("closing blob put stream: %w", err)
		}

		log.WithFields(log.Fields{
			"blob_digest": base64.StdEncoding.EncodeToString(resp.GetDigest()),
			"blob_size":   blobSize,
		}).Debug("uploaded blob")

		return resp.GetDigest(), nil
	}
}
