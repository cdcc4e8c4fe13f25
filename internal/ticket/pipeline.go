package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reaperdwarf/moover/internal/scanning"
)

// Stage names, in the order they are tried.
const (
	StageBarcode = "barcode"
	StageCloud   = "cloud"
	StageLocal   = "local"
)

// DefaultCloudTimeout bounds a single cloud recognition call
const DefaultCloudTimeout = 30 * time.Second

var errTooFewCodes = errors.New("fewer than two location codes in payload")

// Config selects the recognizers for each stage. A nil recognizer removes its
// stage; a nil Cloud is how a missing credential is expressed.
type Config struct {
	Barcode      scanning.Recognizer
	Cloud        scanning.Recognizer
	Local        scanning.Recognizer
	CloudTimeout time.Duration
}

type stage struct {
	name       string
	recognizer scanning.Recognizer
	timeout    time.Duration
	minCodes   int
}

// Pipeline runs the stages in order until one yields usable text, then
// resolves the route and date from it. A Pipeline holds no per-scan state and
// may be used by many goroutines at once.
type Pipeline struct {
	extractor  *Extractor
	stages     []stage
	timeSource TimeSource
}

// Result is a parsed ticket plus how it was obtained
type Result struct {
	Ticket ParsedTicket `json:"ticket"`
	// Stage is the stage whose text was used, or "" when every stage failed
	Stage string   `json:"stage"`
	Codes []string `json:"codes"`
}

// NewPipeline creates a new Pipeline with the system clock
func NewPipeline(extractor *Extractor, cfg Config) *Pipeline {
	return NewPipelineWithDeps(extractor, cfg, &defaultTimeSource{})
}

// NewPipelineWithDeps creates a new Pipeline with a custom time source for testing
func NewPipelineWithDeps(extractor *Extractor, cfg Config, timeSrc TimeSource) *Pipeline {
	timeout := cfg.CloudTimeout
	if timeout <= 0 {
		timeout = DefaultCloudTimeout
	}

	candidates := []stage{
		{name: StageBarcode, recognizer: cfg.Barcode, minCodes: 2},
		{name: StageCloud, recognizer: cfg.Cloud, timeout: timeout},
		{name: StageLocal, recognizer: cfg.Local},
	}

	var stages []stage
	for _, st := range candidates {
		if st.recognizer == nil {
			slog.Info("Recognition stage disabled", "stage", st.name)
			continue
		}
		stages = append(stages, st)
	}

	return &Pipeline{
		extractor:  extractor,
		stages:     stages,
		timeSource: timeSrc,
	}
}

// Stages returns the enabled stage names in the order they are tried
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.name
	}
	return names
}

// Parse returns the best-effort ticket for img. Unreadable documents are not
// an error; only a missing image or a cancelled context is.
func (p *Pipeline) Parse(ctx context.Context, img RawImage) (ParsedTicket, error) {
	res, err := p.Run(ctx, img)
	if err != nil {
		return ParsedTicket{}, err
	}
	return res.Ticket, nil
}

// Scan fetches the image from src and runs the pipeline over it
func (p *Pipeline) Scan(ctx context.Context, src ImageSource) (*Result, error) {
	img, err := src.GetImage(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return p.Run(ctx, img)
}

// Run is Parse with the stage trace attached
func (p *Pipeline) Run(ctx context.Context, img RawImage) (*Result, error) {
	if len(img.Data) == 0 {
		return nil, ErrNoImage
	}

	logger := loggerFrom(ctx)
	var text, used string

	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := p.attempt(ctx, st, img)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, scanning.ErrNoBarcode) {
				logger.Debug("No barcode found", "stage", st.name)
			} else {
				logger.Warn("Recognition stage failed", "stage", st.name, "error", err)
			}
			continue
		}

		text, used = t, st.name
		break
	}

	codes := p.extractor.Codes(text)
	origin, destination := ResolveRoute(codes)

	res := &Result{
		Ticket: ParsedTicket{
			Origin:        p.extractor.Name(origin),
			Destination:   p.extractor.Name(destination),
			DepartureDate: ResolveDate(text, p.timeSource.Now()),
		},
		Stage: used,
		Codes: codes,
	}

	logger.Info("Ticket parsed",
		"stage", used,
		"codes", codes,
		"origin", origin,
		"destination", destination,
		"departure_date", res.Ticket.DepartureDate,
	)
	return res, nil
}

// attempt runs one stage and decides whether its output is usable
func (p *Pipeline) attempt(ctx context.Context, st stage, img RawImage) (string, error) {
	if st.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.timeout)
		defer cancel()
	}

	text, err := st.recognizer.Recognize(ctx, img.Data, img.ContentType)
	if err != nil {
		return "", &StageError{Stage: st.name, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &StageError{Stage: st.name, Err: scanning.ErrNoText}
	}
	if st.minCodes > 0 && len(p.extractor.Codes(text)) < st.minCodes {
		return "", &StageError{Stage: st.name, Err: errTooFewCodes}
	}
	return text, nil
}

// Close closes every stage's recognizer
func (p *Pipeline) Close() error {
	var errs []error
	for _, st := range p.stages {
		if err := st.recognizer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s recognizer: %w", st.name, err))
		}
	}
	return errors.Join(errs...)
}

type scanIDKey struct{}

// WithScanID tags ctx so pipeline log lines carry the scan identifier
func WithScanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scanIDKey{}, id)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if id, ok := ctx.Value(scanIDKey{}).(string); ok && id != "" {
		return slog.With("scan_id", id)
	}
	return slog.Default()
}
