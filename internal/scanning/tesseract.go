package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface with an on-device Tesseract
// engine. It needs no network and no credentials.
type Tesseract struct {
	language string
}

// NewTesseract creates a local OCR recognizer for the given Tesseract language
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}
}

type ocrResult struct {
	text string
	err  error
}

// Recognize runs OCR on its own goroutine so a cancelled context returns
// at once; the engine finishes in the background and its result is dropped.
func (t *Tesseract) Recognize(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pngData, err := prepareImageData(imageData, contentType)
	if err != nil {
		return "", err
	}

	done := make(chan ocrResult, 1)
	go func() {
		text, err := t.run(pngData)
		done <- ocrResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		text := strings.TrimSpace(res.text)
		if text == "" {
			return "", ErrNoText
		}
		return text, nil
	}
}

// run uses a fresh client per call; gosseract clients are not safe for
// concurrent use.
func (t *Tesseract) run(pngData []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("setting tesseract language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("loading image into tesseract: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("running tesseract: %w", err)
	}
	return text, nil
}

// Close is a no-op; clients are released after every call
func (t *Tesseract) Close() error {
	return nil
}
