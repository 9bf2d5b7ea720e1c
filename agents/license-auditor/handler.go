package licenseauditor

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	resultFileName = "license-analysis-results.xlsx"
	xlsxMediaType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes = 32 << 20
	uploadHint     = "Please upload an Excel file (.xlsx)"
)

// RegisterRoutes mounts the workbook upload endpoint.
func (a *LicenseAgent) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/analyze", a.handleAnalyze).Methods(http.MethodPost)
}

func (a *LicenseAgent) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	input, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Workbook too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, uploadHint, http.StatusBadRequest)
		return
	}

	out, b, err := a.processor.ProcessWorkbook(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("Failed to process uploaded workbook")
		http.Error(w, fmt.Sprintf("Error processing file: %v", err), http.StatusUnprocessableEntity)
		return
	}

	log.Info().Str("batch_id", b.ID).Int("rows", len(b.Rows)).Int("failed", b.Failed()).Msg("Uploaded workbook analyzed")

	w.Header().Set("Content-Type", xlsxMediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resultFileName))
	w.Header().Set("X-Batch-Id", b.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

// readUpload accepts either a multipart form with a "file" field or the raw
// workbook as the request body.
func readUpload(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
			return nil, fmt.Errorf("unsupported file %q", header.Filename)
		}
		return io.ReadAll(file)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty request body")
	}
	return data, nil
}
