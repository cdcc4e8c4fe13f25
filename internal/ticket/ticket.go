// Package ticket turns a photographed boarding pass or e-ticket into a
// best-effort origin, destination and departure date.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoImage is returned when the caller supplies no image bytes at all.
// It is the only error a readable-or-not document can produce.
var ErrNoImage = errors.New("no image provided")

// DateLayout is the ISO 8601 calendar date used for departure dates
const DateLayout = "2006-01-02"

// RawImage is a still image as supplied by an ImageSource
type RawImage struct {
	Data        []byte
	ContentType string
}

// ParsedTicket is the pipeline's output. Origin and Destination are directory
// names ("city, country") or empty; DepartureDate is always set.
type ParsedTicket struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

// ImageSource supplies the image to parse
type ImageSource interface {
	GetImage(ctx context.Context) (RawImage, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// StageError records why a pipeline stage produced no usable text
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
