package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// envelope is the body of every JSON response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: "error", Message: message})
}

// writeReport streams r as an xlsx (default) or csv attachment.
func writeReport(w http.ResponseWriter, r report.Report, format string) {
	stamp := r.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
		ext         string
	)
	switch format {
	case "", "xlsx":
		err = report.WriteXLSX(&buf, r)
		contentType, ext = xlsxContentType, "xlsx"
	case "csv":
		err = report.WriteCSV(&buf, r)
		contentType, ext = "text/csv", "csv"
	default:
		writeError(w, http.StatusBadRequest, "format must be xlsx or csv")
		return
	}
	if err != nil {
		zap.L().Error("server: export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Export failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(stamp, ext)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
