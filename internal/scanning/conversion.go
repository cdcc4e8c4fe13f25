package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// MIME types understood by every stage.
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeGIF  = "image/gif"
	MimeHEIC = "image/heic"
	MimeHEIF = "image/heif"
	MimePDF  = "application/pdf"
)

// NormalizeContentType lowercases a declared MIME type and, when it is
// missing or generic, guesses it from the filename extension.
func NormalizeContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return MimeJPEG
	case ".png":
		return MimePNG
	case ".gif":
		return MimeGIF
	case ".pdf":
		return MimePDF
	case ".heic":
		return MimeHEIC
	case ".heif":
		return MimeHEIF
	default:
		return "application/octet-stream"
	}
}

// decodeImage turns document bytes into an image. PDFs are rendered from
// their first page, which is where e-tickets carry the itinerary and barcode.
func decodeImage(data []byte, mimeType string) (image.Image, error) {
	switch {
	case mimeType == MimePDF:
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("opening PDF: %w", err)
		}
		defer doc.Close()

		img, err := doc.Image(0)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page: %w", err)
		}
		return img, nil

	case isHEICFormat(data) || isHEICMimeType(mimeType):
		// Go's standard image package doesn't support HEIC
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil

	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				return nil, fmt.Errorf("unsupported image format %q. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF: %w", mimeType, err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		return img, nil
	}
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// toPNG returns data as PNG bytes, converting PDFs and other image formats.
// Already-PNG input is returned unchanged.
func toPNG(data []byte, mimeType string) ([]byte, error) {
	if mimeType == MimePNG && !isHEICFormat(data) {
		return data, nil
	}

	img, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// prepareImageData normalizes the MIME type and converts the document to PNG,
// the one format every recognition backend accepts.
func prepareImageData(data []byte, contentType string) ([]byte, error) {
	mimeType := MimeJPEG
	if strings.TrimSpace(contentType) != "" {
		mimeType = NormalizeContentType(contentType, "")
	}
	return toPNG(data, mimeType)
}
