package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reaperdwarf/moover/internal/scanning"
)

// maxUploadSize covers full-resolution phone photos and multi-page PDFs
const maxUploadSize = int64(50 << 20)

// corsError sends an error response with CORS headers
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Expose-Headers", "X-Scan-ID, X-Scan-Stage")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleScanTicket parses an uploaded boarding pass or e-ticket
func (s *Server) handleScanTicket(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			corsError(w, "File is too large. Maximum size is 50MB.", http.StatusRequestEntityTooLarge)
			return
		}
		corsError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		corsError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		corsError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	scanID := uuid.NewString()
	w.Header().Set("X-Scan-ID", scanID)

	img := RawImage{
		Data:        data,
		ContentType: scanning.NormalizeContentType(header.Header.Get("Content-Type"), header.Filename),
	}
	slog.Info("Scanning ticket",
		"scan_id", scanID,
		"filename", header.Filename,
		"content_type", img.ContentType,
		"file_size", len(data),
	)

	res, err := s.pipeline.Run(WithScanID(r.Context(), scanID), img)
	switch {
	case errors.Is(err, ErrNoImage):
		corsError(w, "The uploaded file is empty", http.StatusBadRequest)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Warn("Scan abandoned", "scan_id", scanID, "error", err)
		corsError(w, "Scan cancelled", http.StatusServiceUnavailable)
		return
	case err != nil:
		slog.Error("Error scanning ticket", "scan_id", scanID, "error", err)
		corsError(w, "Error scanning ticket", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("X-Scan-Stage", res.Stage)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res.Ticket); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

type airportResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
	// Candidate is false for known codes the blocklist suppresses
	Candidate bool `json:"candidate"`
}

// handleGetAirport looks up a location code in the directory
func (s *Server) handleGetAirport(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	name := s.extractor.Name(code)
	if name == "" {
		corsError(w, "Unknown location code", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(airportResponse{
		Code:      code,
		Name:      name,
		Candidate: s.extractor.valid(code),
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
