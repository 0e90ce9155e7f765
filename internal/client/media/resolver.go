// Package media resolves local media references to file bytes before upload.
package media

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Resolver turns a device-local media URI into the file's bytes.
type Resolver interface {
	Resolve(ctx context.Context, uri string) ([]byte, error)
}

// FileResolver reads plain file paths and file:// URIs from the local disk.
type FileResolver struct{}

func (FileResolver) Resolve(_ context.Context, uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read media %s: %w", uri, err)
	}
	return data, nil
}
