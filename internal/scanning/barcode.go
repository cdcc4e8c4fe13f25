package scanning

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Barcode reads the 2-D symbol printed on boarding passes. IATA BCBP allows
// PDF417, Aztec, QR and Data Matrix; gozxing has no PDF417 reader, so PDF417
// passes report ErrNoBarcode and are read by the text stages instead.
type Barcode struct {
	readers []namedReader
}

// gozxing readers keep decode state, so each scan builds its own.
type namedReader struct {
	name      string
	newReader func() gozxing.Reader
}

// NewBarcode creates a Barcode recognizer for Aztec, QR and Data Matrix
func NewBarcode() *Barcode {
	return &Barcode{
		readers: []namedReader{
			{name: "aztec", newReader: func() gozxing.Reader { return aztec.NewAztecReader() }},
			{name: "qrcode", newReader: func() gozxing.Reader { return qrcode.NewQRCodeReader() }},
			{name: "datamatrix", newReader: func() gozxing.Reader { return datamatrix.NewDataMatrixReader() }},
		},
	}
}

// Recognize returns the decoded barcode payload. A missing or unreadable
// symbol is reported as ErrNoBarcode, never as a decode error.
func (b *Barcode) Recognize(ctx context.Context, imageData []byte, contentType string) (string, error) {
	img, err := decodeImage(imageData, normalizeMime(contentType))
	if err != nil {
		return "", err
	}
	return b.scan(ctx, img)
}

func (b *Barcode) scan(ctx context.Context, img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("creating bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	for _, r := range b.readers {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		result, err := r.newReader().Decode(bmp, hints)
		if err != nil {
			continue
		}
		if text := result.GetText(); text != "" {
			slog.Debug("Barcode decoded", "symbology", r.name, "length", len(text))
			return text, nil
		}
	}

	return "", ErrNoBarcode
}

// Close is a no-op; gozxing readers hold no resources
func (b *Barcode) Close() error {
	return nil
}

func normalizeMime(contentType string) string {
	return NormalizeContentType(contentType, "")
}
