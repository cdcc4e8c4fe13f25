package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/reaperdwarf/moover/internal/airports"
	"github.com/reaperdwarf/moover/internal/imagesource"
	"github.com/reaperdwarf/moover/internal/scanning"
	"github.com/reaperdwarf/moover/internal/ticket"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

type options struct {
	port          int
	backend       string
	geminiKey     string
	geminiModel   string
	ollamaURL     string
	ollamaModel   string
	cloudTimeout  time.Duration
	tesseractLang string
	airportsPath  string
	cacheDB       string
	s3Region      string
	s3Endpoint    string
	authUser      string
	authPass      string
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("ticket-scan")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		backend       = fs.StringLong("backend", "gemini", "Cloud text backend: 'gemini', 'ollama' or 'none'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var); empty disables cloud recognition")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "", "Ollama API base URL; empty disables cloud recognition")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, llama3.2-vision, qwen2-vl)")
		cloudTimeout  = fs.DurationLong("cloud-timeout", ticket.DefaultCloudTimeout, "Timeout for a single cloud recognition call")
		tesseractLang = fs.StringLong("tesseract-lang", "eng", "Tesseract language for local OCR")
		airportsPath  = fs.StringLong("airports", "", "TOML airport dataset replacing the built-in one (optional)")
		cacheDB       = fs.StringLong("cache-db", "", "BoltDB file caching cloud recognition results (optional)")
		s3Region      = fs.StringLong("s3-region", "", "AWS region for s3:// images")
		s3Endpoint    = fs.StringLong("s3-endpoint", "", "S3-compatible endpoint for s3:// images (optional)")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("TICKET_SCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	opts := options{
		port:          *port,
		backend:       *backend,
		geminiKey:     *geminiKey,
		geminiModel:   *geminiModel,
		ollamaURL:     *ollamaURL,
		ollamaModel:   *ollamaModel,
		cloudTimeout:  *cloudTimeout,
		tesseractLang: *tesseractLang,
		airportsPath:  *airportsPath,
		cacheDB:       *cacheDB,
		s3Region:      *s3Region,
		s3Endpoint:    *s3Endpoint,
		authUser:      *authUser,
		authPass:      *authPass,
	}

	slog.Info("Loading airport dataset...")
	dataset, err := loadDataset(opts.airportsPath)
	if err != nil {
		slog.Error("Failed to load airport dataset", "error", err)
		os.Exit(1)
	}
	slog.Info("Airport dataset loaded", "airports", dataset.Directory.Len(), "blocked", dataset.Blocklist.Len())

	var cache *scanning.BoltCache
	if opts.cacheDB != "" {
		slog.Info("Initializing recognition cache...", "path", opts.cacheDB)
		cache, err = scanning.NewBoltCache(opts.cacheDB)
		if err != nil {
			slog.Error("Failed to initialize recognition cache", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
	}

	cloud, err := newCloudRecognizer(opts, cache)
	if err != nil {
		slog.Error("Failed to initialize cloud recognition", "error", err)
		os.Exit(1)
	}

	extractor := ticket.NewExtractor(dataset.Directory, dataset.Blocklist)
	pipeline := ticket.NewPipeline(extractor, ticket.Config{
		Barcode:      scanning.NewBarcode(),
		Cloud:        cloud,
		Local:        scanning.NewTesseract(opts.tesseractLang),
		CloudTimeout: opts.cloudTimeout,
	})
	defer pipeline.Close()

	if args := fs.GetArgs(); len(args) > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		failed := scanArgs(ctx, pipeline, opts, args)
		stop()
		if failed {
			pipeline.Close()
			os.Exit(1)
		}
		return
	}

	basicAuth := ticket.BasicAuth{
		Username: opts.authUser,
		Password: opts.authPass,
	}
	server := ticket.NewServer(pipeline, extractor, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", opts.port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if opts.authUser != "" || opts.authPass != "" {
		slog.Info("Basic auth enabled", "user", opts.authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

func loadDataset(path string) (*airports.Dataset, error) {
	if path == "" {
		return airports.Default()
	}
	return airports.LoadFile(path)
}

// newCloudRecognizer returns nil, not an error, when no credential or endpoint
// is configured.
func newCloudRecognizer(opts options, cache *scanning.BoltCache) (scanning.Recognizer, error) {
	var (
		cloud scanning.Recognizer
		err   error
	)

	switch opts.backend {
	case "gemini":
		apiKey := opts.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Info("No Gemini API key configured, cloud text recognition disabled")
			return nil, nil
		}
		slog.Info("Initializing Gemini recognizer...", "model", opts.geminiModel)
		cloud, err = scanning.NewGemini(apiKey, opts.geminiModel)
	case "ollama":
		if opts.ollamaURL == "" {
			slog.Info("No Ollama URL configured, cloud text recognition disabled")
			return nil, nil
		}
		slog.Info("Initializing Ollama recognizer...", "url", opts.ollamaURL, "model", opts.ollamaModel)
		cloud, err = scanning.NewOllama(opts.ollamaURL, opts.ollamaModel)
	case "none":
		slog.Info("Cloud text recognition disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid backend %q: valid values are gemini, ollama or none", opts.backend)
	}
	if err != nil {
		return nil, err
	}

	if cache != nil {
		return scanning.NewCached(cache, opts.backend, cloud), nil
	}
	return cloud, nil
}

// scanArgs parses each file or s3:// argument and prints one JSON ticket per
// line. It reports whether any argument failed.
func scanArgs(ctx context.Context, pipeline *ticket.Pipeline, opts options, args []string) bool {
	var (
		s3Client *imagesource.S3Client
		failed   bool
	)
	enc := json.NewEncoder(os.Stdout)

	for _, arg := range args {
		var src ticket.ImageSource
		if imagesource.IsS3URI(arg) {
			bucket, key, err := imagesource.ParseS3URI(arg)
			if err != nil {
				slog.Error("Invalid S3 URI", "uri", arg, "error", err)
				failed = true
				continue
			}
			if s3Client == nil {
				s3Client, err = imagesource.NewS3Client(ctx, imagesource.S3Config{
					Region:   opts.s3Region,
					Endpoint: opts.s3Endpoint,
				})
				if err != nil {
					slog.Error("Failed to initialize S3 client", "error", err)
					return true
				}
			}
			src = s3Client.Object(bucket, key)
		} else {
			src = imagesource.NewFile(arg)
		}

		res, err := pipeline.Scan(ctx, src)
		if err != nil {
			slog.Error("Failed to scan ticket", "source", arg, "error", err)
			failed = true
			if ctx.Err() != nil {
				return true
			}
			continue
		}
		if err := enc.Encode(res.Ticket); err != nil {
			slog.Error("Error encoding ticket", "error", err)
			failed = true
		}
	}

	return failed
}
