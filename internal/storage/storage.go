// Package storage persists the paper list as a single blob in a key-value
// store. Every mutation rewrites the whole list.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matsen/papershelf/internal/config"
	"github.com/matsen/papershelf/internal/paper"
)

// PapersKey is the fixed key the paper list is stored under.
const PapersKey = "papers"

// BlobStore is a key-value store of opaque blobs.
type BlobStore interface {
	// Get returns the blob for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the blob for key.
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open opens the backend named by store for the repository at root.
func Open(root, store string) (BlobStore, error) {
	switch store {
	case config.StoreFile, "":
		return NewFileStore(config.StorePath(root)), nil
	case config.StoreSQLite:
		return OpenSQLite(config.DBPath(root))
	}
	return nil, fmt.Errorf("unknown store backend %q", store)
}

// Papers reads and writes the paper list in a BlobStore.
type Papers struct {
	Blob BlobStore
}

// GetAll returns every stored paper in stored order. A missing blob reads as
// an empty list.
func (p Papers) GetAll(ctx context.Context) ([]paper.Paper, error) {
	data, ok, err := p.Blob.Get(ctx, PapersKey)
	if err != nil {
		return nil, fmt.Errorf("reading papers: %w", err)
	}
	if !ok || len(data) == 0 {
		return []paper.Paper{}, nil
	}

	var papers []paper.Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing papers: %w", err)
	}
	if papers == nil {
		papers = []paper.Paper{}
	}
	return papers, nil
}

// SetAll replaces the stored list with papers.
func (p Papers) SetAll(ctx context.Context, papers []paper.Paper) error {
	if papers == nil {
		papers = []paper.Paper{}
	}
	data, err := json.Marshal(papers)
	if err != nil {
		return fmt.Errorf("encoding papers: %w", err)
	}
	if err := p.Blob.Set(ctx, PapersKey, data); err != nil {
		return fmt.Errorf("writing papers: %w", err)
	}
	return nil
}
