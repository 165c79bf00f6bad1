package storage

import (
	"context"
	"io"
)

// PutOptions conveys upload destination metadata.
type PutOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service writes objects to remote object storage.
type Service interface {
	PutObject(ctx context.Context, body io.Reader, opts PutOptions) (string, error)
}
