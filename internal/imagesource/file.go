// Package imagesource supplies ticket images from local files and S3 objects.
package imagesource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaperdwarf/moover/internal/scanning"
	"github.com/reaperdwarf/moover/internal/ticket"
)

// File reads an image from the local filesystem
type File struct {
	path string
}

// NewFile creates a File source for path
func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

// GetImage reads the file; its MIME type is guessed from the extension
func (f *File) GetImage(ctx context.Context) (ticket.RawImage, error) {
	if err := ctx.Err(); err != nil {
		return ticket.RawImage{}, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return ticket.RawImage{}, fmt.Errorf("reading file: %w", err)
	}

	return ticket.RawImage{
		Data:        data,
		ContentType: scanning.NormalizeContentType("", f.path),
	}, nil
}

func (f *File) String() string {
	return f.path
}
