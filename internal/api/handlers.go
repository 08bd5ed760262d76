package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/invoicebot/invoicebot/internal/invoice"
	"github.com/invoicebot/invoicebot/internal/report"
)

const queryDateLayout = "2006-01-02"

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleSearchEmails searches the email source for invoice candidates.
// Query params: q, after, before (YYYY-MM-DD), max.
func (s *Server) handleSearchEmails(w http.ResponseWriter, r *http.Request) {
	opts := invoice.SearchOptions{Query: r.URL.Query().Get("q")}

	if after := r.URL.Query().Get("after"); after != "" {
		t, err := time.Parse(queryDateLayout, after)
		if err != nil {
			corsError(w, "Invalid after date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		opts.After = t
	}
	if before := r.URL.Query().Get("before"); before != "" {
		t, err := time.Parse(queryDateLayout, before)
		if err != nil {
			corsError(w, "Invalid before date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		opts.Before = t
	}
	if max := r.URL.Query().Get("max"); max != "" {
		n, err := strconv.ParseInt(max, 10, 64)
		if err != nil || n <= 0 {
			corsError(w, "Invalid max results", http.StatusBadRequest)
			return
		}
		opts.MaxResults = n
	}

	emails, err := s.service.SearchEmails(r.Context(), opts)
	if err != nil {
		slog.Error("Error searching emails", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if emails == nil {
		emails = []invoice.Email{}
	}
	writeJSON(w, http.StatusOK, emails)
}

// handleProcess processes the attachments of the selected messages
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageIDs []string `json:"message_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.MessageIDs) == 0 {
		corsError(w, "No message IDs provided", http.StatusBadRequest)
		return
	}

	processed, err := s.service.ProcessMessages(r.Context(), req.MessageIDs)
	if err != nil {
		slog.Error("Error processing messages", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, processed)
}

// handleListProcessed returns every processed email in the store
func (s *Server) handleListProcessed(w http.ResponseWriter, r *http.Request) {
	processed, err := s.service.ListProcessed()
	if err != nil {
		slog.Error("Error listing processed emails", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if processed == nil {
		processed = []*invoice.ProcessedEmail{}
	}
	writeJSON(w, http.StatusOK, processed)
}

// handleDeleteProcessed removes one email's stored results
func (s *Server) handleDeleteProcessed(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Email ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteProcessed(id); err != nil {
		corsError(w, "Error deleting processed email", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadBatch reads the stored results as a value slice for aggregation
func (s *Server) loadBatch() ([]invoice.ProcessedEmail, error) {
	stored, err := s.service.ListProcessed()
	if err != nil {
		return nil, err
	}
	batch := make([]invoice.ProcessedEmail, 0, len(stored))
	for _, pe := range stored {
		batch = append(batch, *pe)
	}
	return batch, nil
}

// handleSummary returns the aggregate over all stored results
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	batch, err := s.loadBatch()
	if err != nil {
		slog.Error("Error loading processed emails", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report.Aggregate(batch))
}

// handleReport returns the rendered accountant email
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	batch, err := s.loadBatch()
	if err != nil {
		slog.Error("Error loading processed emails", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	content, err := report.BuildEmail(report.Aggregate(batch), batch, time.Now())
	if err != nil {
		slog.Error("Error rendering report", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// handleExportCSV returns the CSV export and keeps a copy in storage
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	batch, err := s.loadBatch()
	if err != nil {
		slog.Error("Error loading processed emails", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := []byte(report.ExportCSV(batch))
	filename := fmt.Sprintf("invoices-%s.csv", uuid.New().String())
	if _, err := s.storage.Save(filename, data); err != nil {
		slog.Error("Error saving export", "filename", filename, "error", err)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.csv"`)
	w.Write(data)
}

// handleExportXLSX returns the XLSX export and keeps a copy in storage
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	batch, err := s.loadBatch()
	if err != nil {
		slog.Error("Error loading processed emails", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := report.ExportXLSX(batch)
	if err != nil {
		slog.Error("Error building xlsx export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("invoices-%s.xlsx", uuid.New().String())
	if _, err := s.storage.Save(filename, data); err != nil {
		slog.Error("Error saving export", "filename", filename, "error", err)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.Write(data)
}
