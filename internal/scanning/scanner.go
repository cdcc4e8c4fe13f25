package scanning

import (
	"context"
	"errors"
)

var (
	// ErrNoBarcode is returned when no supported barcode could be decoded.
	ErrNoBarcode = errors.New("no barcode found")
	// ErrNoText is returned when a backend answered but recognised no text.
	ErrNoText = errors.New("no text recognised")
)

// Recognizer turns a document image into raw text. Barcode, cloud and local
// OCR backends all implement it.
type Recognizer interface {
	// Recognize returns the text read from imageData
	Recognize(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases backend resources
	Close() error
}
