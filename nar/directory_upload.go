package nar

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	log "github.com/sirupsen/logrus"

	castorev1 "tvix.dev/store-engine/castore"
)

// DirectoriesUploader keeps one DirectoryService Put stream alive over
// the course of a NAR import. The stream is opened lazily on the first
// directory, and closed in Done, which cross-checks the root digest the
// backend announces against the last directory sent.
type DirectoriesUploader struct {
	ctx    context.Context
	client castorev1.DirectoryServiceClient

	stream castorev1.DirectoryService_PutClient
	// digest of the most recently sent directory. The importer seals
	// directories leaves-first, so after the last Put this holds the
	// root digest.
	expectedRootDigest []byte
	directoriesSent    int
}

func NewDirectoriesUploader(ctx context.Context, directoryServiceClient castorev1.DirectoryServiceClient) *DirectoriesUploader {
	return &DirectoriesUploader{
		ctx:    ctx,
		client: directoryServiceClient,
	}
}

// Put sends one Directory over the stream and returns its digest.
func (du *DirectoriesUploader) Put(directory *castorev1.Directory) ([]byte, error) {
	digest, err := directory.Digest()
	if err != nil {
		return nil, fmt.Errorf("calculating directory digest: %w", err)
	}

	if du.stream == nil {
		stream, err := du.client.Put(du.ctx)
		if err != nil {
			return nil, fmt.Errorf("opening directory put stream: %w", err)
		}
		du.stream = stream
	}

	if err := du.stream.Send(directory); err != nil {
		return nil, fmt.Errorf("sending directory: %w", err)
	}

	log.WithField("digest", base64.StdEncoding.EncodeToString(digest)).Debug("uploaded directory")

	du.expectedRootDigest = digest
	du.directoriesSent++

	return digest, nil
}

// Done closes the stream and returns the backend's response. Calling it
// a second time, or without ever having sent a directory, returns nil.
func (du *DirectoriesUploader) Done() (*castorev1.PutDirectoryResponse, error) {
	if du.stream == nil {
		return nil, nil
	}

	resp, err := du.stream.CloseAndRecv()
	du.stream = nil
	if err != nil {
		return nil, fmt.Errorf("closing directory put stream: %w", err)
	}

	// the backend must arrive at the same root digest; disagreement
	// means the two sides don't share a canonical Directory encoding.
	if !bytes.Equal(resp.GetRootDigest(), du.expectedRootDigest) {
		return nil, fmt.Errorf(
			"backend announced root digest %s, expected %s (%d directories sent)",
			base64.StdEncoding.EncodeToString(resp.GetRootDigest()),
			base64.StdEncoding.EncodeToString(du.expectedRootDigest),
			du.directoriesSent,
		)
	}

	return resp, nil
}
