// Package blobstore provides durable key-addressed storage for original
// document bytes. Two backends are available: local disk for single-node
// deployments and Google Cloud Storage for shared ones.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete when no blob exists under the
// requested key. Callers use it to distinguish a permanently missing blob
// (data-integrity fault) from a transient fetch failure.
var ErrNotFound = errors.New("blob not found")

// Store is the narrow mutation API for blob storage. All shared state lives
// behind it; no component touches another's files directly.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
