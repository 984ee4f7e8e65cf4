package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/model"
	"github.com/sells-group/shell-match/internal/pipeline"
	"github.com/sells-group/shell-match/internal/report"
	"github.com/sells-group/shell-match/internal/sheet"
	"github.com/sells-group/shell-match/internal/store"
	"github.com/sells-group/shell-match/pkg/salesforce"
)

const defaultMaxUploadMB = 32

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": ServiceName,
		"version": Version,
		"status":  "running",
		"endpoints": map[string]string{
			"health":           "/health",
			"debug_config":     "/debug-config",
			"salesforce_test":  "/test-salesforce-connection",
			"llm_test":         "/test-llm-connection",
			"parse_excel":      "/excel/parse",
			"parse_customers":  "/excel/parse-customer-file",
			"parse_shells":     "/excel/parse-shell-file",
			"process_matching": "/matching/process-batch",
			"export_results":   "/export/matching-results",
			"runs":             "/runs",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// handleDebugConfig reports which settings are present. Secret values are
// never echoed.
func (s *Server) handleDebugConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.deps.Config
	writeJSON(w, http.StatusOK, map[string]any{
		"salesforce": map[string]any{
			"username_present":     cfg.Salesforce.Username != "",
			"password_present":     cfg.Salesforce.Password != "",
			"token_present":        cfg.Salesforce.SecurityToken != "",
			"access_token_present": cfg.Salesforce.AccessToken != "",
			"jwt_present":          cfg.Salesforce.ClientID != "" && cfg.Salesforce.KeyPath != "",
			"login_url":            cfg.Salesforce.LoginURL,
			"configured":           cfg.Salesforce.Configured(),
		},
		"assess": map[string]any{
			"enabled":               cfg.Assess.Enabled,
			"provider":              cfg.Assess.Provider,
			"max_tokens":            cfg.Assess.MaxTokens,
			"concurrency":           cfg.Assess.Concurrency,
			"batch_size":            cfg.Assess.BatchSize,
			"anthropic_key_present": cfg.Anthropic.Key != "",
			"anthropic_model":       cfg.Anthropic.Model,
			"openai_key_present":    cfg.OpenAI.Key != "",
			"openai_key_length":     len(cfg.OpenAI.Key),
			"openai_model":          cfg.OpenAI.Model,
		},
		"store": map[string]any{
			"driver":  cfg.Store.Driver,
			"enabled": s.deps.Store != nil,
		},
		"match": cfg.Match,
	})
}

func (s *Server) handleTestSalesforce(w http.ResponseWriter, r *http.Request) {
	if s.deps.Salesforce == nil {
		writeError(w, http.StatusServiceUnavailable, "Salesforce credentials are not configured")
		return
	}
	n, err := salesforce.TestConnection(r.Context(), s.deps.Salesforce)
	if err != nil {
		zap.L().Warn("server: salesforce connection test failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Salesforce connection failed: "+err.Error())
		return
	}
	writeOK(w, fmt.Sprintf("Successfully connected to Salesforce. Retrieved %d test records.", n), map[string]any{
		"login_url":        s.deps.Config.Salesforce.LoginURL,
		"records_returned": n,
	})
}

func (s *Server) handleTestLLM(w http.ResponseWriter, r *http.Request) {
	a := s.deps.Assessor
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, "LLM assessment is disabled")
		return
	}
	msg, err := a.TestConnection(r.Context())
	if err != nil {
		zap.L().Warn("server: llm connection test failed", zap.String("provider", a.Provider()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOK(w, msg, map[string]string{
		"provider": a.Provider(),
		"model":    a.Model(),
	})
}

// readUpload reads the "file" part of a multipart upload. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, ok bool) {
	limitMB := s.deps.Config.Server.MaxUploadMB
	if limitMB <= 0 {
		limitMB = defaultMaxUploadMB
	}
	limit := int64(limitMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB upload limit", limitMB))
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}
	defer f.Close() //nolint:errcheck
	if hdr.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return nil, "", false
	}

	data, err = io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error reading uploaded file: "+err.Error())
		return nil, "", false
	}
	return data, hdr.Filename, true
}

func (s *Server) handleParseExcel(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	preview, err := sheet.ParseFile(data, filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing Excel file: "+err.Error())
		return
	}
	writeOK(w, fmt.Sprintf("Parsed %d sheets", len(preview.SheetNames)), preview)
}

// handleParseIDFile extracts an ID column from an upload and validates the
// IDs against Salesforce.
func (s *Server) handleParseIDFile(kind salesforce.AccountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, filename, ok := s.readUpload(w, r)
		if !ok {
			return
		}
		sheetName := r.FormValue("sheet_name")
		column := r.FormValue("account_id_column")
		if sheetName == "" {
			writeError(w, http.StatusBadRequest, "Sheet name is required")
			return
		}
		if column == "" {
			writeError(w, http.StatusBadRequest, "Account ID column is required")
			return
		}

		wb, err := sheet.Open(data, filename)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Error parsing Excel file: "+err.Error())
			return
		}
		col, err := sheet.ExtractIDs(wb, sheetName, column)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(col.IDs) == 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("No valid Account IDs found in column %q", column))
			return
		}

		if s.deps.Salesforce == nil {
			writeError(w, http.StatusServiceUnavailable, "Salesforce credentials are not configured")
			return
		}
		v, err := salesforce.ValidateAccountIDs(r.Context(), s.deps.Salesforce, kind, col.IDs)
		if err != nil {
			zap.L().Error("server: validate account ids", zap.String("kind", string(kind)), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Error validating account IDs: "+err.Error())
			return
		}

		writeOK(w, v.Message(kind), map[string]any{
			"validation_summary": v,
			"excel_info": map[string]any{
				"sheet_name":        sheetName,
				"account_id_column": column,
				"file_name":         filename,
				"total_rows":        col.TotalRows,
			},
		})
	}
}

func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CustomerIDs == nil || req.ShellIDs == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields: customer_account_ids and shell_account_ids")
		return
	}
	if len(req.CustomerIDs) == 0 || len(req.ShellIDs) == 0 {
		writeError(w, http.StatusBadRequest, "At least one customer and one shell account ID must be provided")
		return
	}
	if s.deps.Pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "Salesforce credentials are not configured")
		return
	}

	res, err := s.deps.Pipeline.Process(r.Context(), req)
	if err != nil {
		zap.L().Error("server: matching batch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing matching batch: "+err.Error())
		return
	}
	writeOK(w, fmt.Sprintf("Matching completed successfully in %.2fs", res.Report.Summary.ExecutionSeconds), res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var rep report.Report
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if rep.Rows == nil {
		writeError(w, http.StatusBadRequest, "No matching results data provided for export")
		return
	}
	writeReport(w, rep, r.URL.Query().Get("format"))
}

// requireStore writes 503 when run history is disabled.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Run history is disabled")
		return false
	}
	return true
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Source: q.Get("source"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	runs, err := s.deps.Store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error listing runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeOK(w, fmt.Sprintf("%d runs", len(runs)), runs)
}

// loadRun fetches the run named in the URL, writing 404 or 500 on failure.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	id := chi.URLParam(r, "id")
	run, err := s.deps.Store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", id))
		return nil, false
	}
	if err != nil {
		zap.L().Error("server: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error loading run: "+err.Error())
		return nil, false
	}
	return run, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeOK(w, report.SummaryLine(run.Summary), run)
}

func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	if run.Status != model.RunStatusComplete {
		writeError(w, http.StatusConflict, fmt.Sprintf("Run %s did not complete and has no results", run.ID))
		return
	}
	writeReport(w, report.FromRun(*run), r.URL.Query().Get("format"))
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.deps.Store.DeleteRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error deleting run: "+err.Error())
		return
	}
	writeOK(w, fmt.Sprintf("Run %s deleted", id), nil)
}
