// Package api provides the HTTP handlers and router for the data cleaning
// service REST API.
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/karthik2365/data-cleaning/internal/domain"
	"github.com/karthik2365/data-cleaning/internal/ingest"
	"github.com/karthik2365/data-cleaning/internal/service/transform"
)

// Output formats accepted by the execute endpoint.
const (
	outputStructured = "structured"
	outputFlatText   = "flat-text"
)

// Handler serves the pipeline API. All routes delegate to the transform
// service; the handler owns only HTTP concerns.
type Handler struct {
	svc       *transform.Service
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *transform.Service, maxUpload int64, logger *slog.Logger) *Handler {
	if maxUpload <= 0 {
		maxUpload = ingest.DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, maxUpload: maxUpload, logger: logger.With("component", "api")}
}

// CreateDataset ingests an upload and opens a session. Accepts either
// multipart form data (field "file", optional field "format") or a raw body
// with ?format=. With no declared format the filename and content decide.
func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	raw, format, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	preview, err := h.svc.Ingest(r.Context(), raw, format)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, previewToAPI(preview))
}

// readUpload extracts the upload bytes and declared format from the request.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload + 1); err != nil {
			return nil, "", uploadReadError(err, h.maxUpload)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", domain.ErrValidation("multipart upload requires a %q file field", "file")
		}
		defer file.Close()
		raw, err := io.ReadAll(file)
		if err != nil {
			return nil, "", uploadReadError(err, h.maxUpload)
		}
		format := r.FormValue("format")
		if format == "" {
			format = ingest.DetectFormat(header.Filename, raw)
		}
		return raw, format, nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", uploadReadError(err, h.maxUpload)
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = ingest.DetectFormat("", raw)
	}
	return raw, format, nil
}

// uploadReadError separates the size guard tripping from a body that simply
// could not be read: only the former maps to 413.
func uploadReadError(err error, maxUpload int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.ErrParse("file-too-large", "upload exceeds %d bytes", maxUpload)
	}
	return domain.ErrValidation("could not read upload: %v", err)
}

// GetSession returns the session preview: schema, statistics, sample rows,
// and history.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	preview, err := h.svc.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewToAPI(preview))
}

// Generate asks the collaborator for transformation code.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	candidate, err := h.svc.Generate(r.Context(), chi.URLParam(r, "id"), req.Instruction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Code:       candidate.Source,
		Provenance: string(candidate.Provenance),
	})
}

// Approve marks code as ready to execute.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	state, err := h.svc.Approve(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approveResponse{State: string(state)})
}

// Execute runs approved code. output_format selects the rendering:
// "structured" (default) returns the JSON result; "flat-text" streams the
// result table as CSV. A validator rejection maps to 422; runtime and
// resource failures are part of the result body, not transport errors.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.OutputFormat == "" {
		req.OutputFormat = outputStructured
	}
	if req.OutputFormat != outputStructured && req.OutputFormat != outputFlatText {
		writeError(w, domain.ErrValidation("unknown output_format %q", req.OutputFormat))
		return
	}

	result, err := h.svc.Execute(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeExecution(w, result, req.OutputFormat)
}

// ExecuteTransform runs a fixed recipe from the registry.
func (h *Handler) ExecuteTransform(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ExecuteFixed(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeExecution(w, result, outputStructured)
}

// ListTransforms returns the fixed recipe registry.
func (h *Handler) ListTransforms(w http.ResponseWriter, r *http.Request) {
	recipes := h.svc.Recipes().List()
	out := make([]recipeDTO, len(recipes))
	for i, rec := range recipes {
		out[i] = recipeDTO{Name: rec.Name, Description: rec.Description}
	}
	writeJSON(w, http.StatusOK, out)
}

// Export downloads the session's current table as CSV (default) or JSON.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	table, stats, err := h.svc.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		writeTableCSV(w, table, stats.TotalRows, stats.TotalRows)
	case "json":
		rows := make([][]any, table.NumRows())
		for i := range rows {
			rows[i] = table.Row(i)
		}
		setCountHeaders(w, stats.TotalRows, stats.TotalRows)
		writeJSON(w, http.StatusOK, map[string]any{
			"columns": table.ColumnNames(),
			"rows":    rows,
		})
	default:
		writeError(w, domain.ErrValidation("unknown export format %q", format))
	}
}

// Audit returns the session's audit trail, newest first.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, domain.ErrValidation("invalid limit %q", v))
			return
		}
		limit = n
	}
	entries, err := h.svc.AuditTrail(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]auditEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = auditEntryToAPI(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteSession tears a session down. 204 either way: deletion is
// idempotent.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeExecution renders an execution result. Validation rejections map to
// 422; everything else is 200 with the outcome in the body. Flat-text
// rendering applies only to successful table results.
func (h *Handler) writeExecution(w http.ResponseWriter, result *domain.ExecutionResult, outputFormat string) {
	if result.Outcome == domain.OutcomeValidationRejected {
		writeJSON(w, http.StatusUnprocessableEntity, executionToAPI(result))
		return
	}
	if outputFormat == outputFlatText && result.Outcome == domain.OutcomeSuccess && result.Table != nil {
		writeTableCSV(w, result.Table, result.TotalRows, result.ProcessedRows)
		return
	}
	writeJSON(w, http.StatusOK, executionToAPI(result))
}

// writeTableCSV streams a table as RFC 4180 CSV with the row-count headers.
func writeTableCSV(w http.ResponseWriter, table *domain.Table, totalRows, processedRows int) {
	setCountHeaders(w, totalRows, processedRows)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(table.ColumnNames())
	record := make([]string, table.NumColumns())
	for i := 0; i < table.NumRows(); i++ {
		for j, c := range table.Columns {
			record[j] = domain.FormatCell(c.Cells[i])
		}
		_ = cw.Write(record)
	}
	cw.Flush()
}

func setCountHeaders(w http.ResponseWriter, totalRows, processedRows int) {
	w.Header().Set("X-Total-Rows", strconv.Itoa(totalRows))
	w.Header().Set("X-Processed-Rows", strconv.Itoa(processedRows))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}
