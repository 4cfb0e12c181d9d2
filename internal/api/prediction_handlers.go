package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
)

// Temporal dataset sources.
const (
	SourceManual    = "manual"
	SourceCSV       = "csv"
	SourceXLSX      = "xlsx"
	SourceSynthetic = "synthetic"
)

// temporalRequest is the JSON form of a temporal prediction. Data is read
// for the manual source, Base for the synthetic one.
type temporalRequest struct {
	core.TemporalForm
	Source string               `json:"source"`
	Data   model.HistoricalData `json:"data"`
	Base   int                  `json:"base"`
}

func (h *Handler) PredictMortality(w http.ResponseWriter, r *http.Request) {
	var form core.MortalityForm
	if err := decodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.predictions.PredictMortality(r.Context(), form)
	h.respondPrediction(w, r, result, err)
}

func (h *Handler) PredictHospitalization(w http.ResponseWriter, r *http.Request) {
	var form core.HospitalizationForm
	if err := decodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.predictions.PredictHospitalization(r.Context(), form)
	h.respondPrediction(w, r, result, err)
}

func (h *Handler) PredictNewCases(w http.ResponseWriter, r *http.Request) {
	var form core.NewCasesForm
	if err := decodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.predictions.PredictNewCases(r.Context(), form)
	h.respondPrediction(w, r, result, err)
}

// PredictHospitalizationCSV takes a multipart upload with the file in "file"
// and the country in "pays". With preview=true only the parsed head of the
// file is returned.
func (h *Handler) PredictHospitalizationCSV(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readUpload(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if isTrue(r.FormValue("preview")) {
		preview, err := core.PreviewCSV(filename, content, core.HospitalizationCSVHeaders)
		h.respond(w, r, http.StatusOK, preview, err)
		return
	}
	country := r.FormValue("pays")
	if country == "" {
		country = r.FormValue("country")
	}
	result, err := h.predictions.PredictHospitalizationCSV(r.Context(), filename, content, country)
	h.respondPrediction(w, r, result, err)
}

func (h *Handler) HospitalizationTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.HospitalizationTemplateName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(core.HospitalizationTemplate()); err != nil {
		h.logger.Error("Failed to write template", "error", err)
	}
}

// PredictTemporal accepts JSON for the manual and synthetic sources and a
// multipart upload for csv and xlsx.
func (h *Handler) PredictTemporal(w http.ResponseWriter, r *http.Request) {
	form, producer, err := h.temporalInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.predictions.PredictTemporal(r.Context(), form, producer)
	h.respondPrediction(w, r, result, err)
}

func (h *Handler) temporalInput(r *http.Request) (core.TemporalForm, core.DatasetProducer, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.temporalUpload(r)
	}

	var req temporalRequest
	if err := decodeJSON(r, &req); err != nil {
		return core.TemporalForm{}, nil, err
	}
	switch strings.ToLower(req.Source) {
	case "", SourceManual:
		return req.TemporalForm, core.ManualDatasetFrom(req.Data), nil
	case SourceSynthetic:
		return req.TemporalForm, core.SyntheticDataset{End: h.now(), Base: req.Base}, nil
	case SourceCSV, SourceXLSX:
		return core.TemporalForm{}, nil, &core.ValidationError{Field: "source", Message: "File sources must be sent as multipart uploads"}
	}
	return core.TemporalForm{}, nil, &core.ValidationError{Field: "source", Message: fmt.Sprintf("Unknown data source %q", req.Source)}
}

func (h *Handler) temporalUpload(r *http.Request) (core.TemporalForm, core.DatasetProducer, error) {
	filename, content, err := readUpload(r)
	if err != nil {
		return core.TemporalForm{}, nil, err
	}
	horizon, err := strconv.Atoi(r.FormValue("horizon"))
	if err != nil {
		return core.TemporalForm{}, nil, &core.ValidationError{Field: "horizon", Message: "The prediction horizon must be 7 or 14 days"}
	}
	form := core.TemporalForm{
		Country:   r.FormValue("country"),
		ModelType: r.FormValue("modelType"),
		Horizon:   horizon,
	}

	source := strings.ToLower(r.FormValue("source"))
	if source == "" {
		source = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	}
	switch source {
	case SourceCSV:
		return form, core.CSVDataset{Content: content}, nil
	case SourceXLSX:
		return form, core.XLSXDataset{Content: content, Sheet: r.FormValue("sheet")}, nil
	}
	return core.TemporalForm{}, nil, &core.ValidationError{Field: "source", Message: "Uploads must be CSV or XLSX files"}
}

// respondPrediction also announces a computed result for screen readers.
func (h *Handler) respondPrediction(w http.ResponseWriter, r *http.Request, result model.PredictionResult, err error) {
	if err == nil {
		h.notices.Announce(result.Summary())
	}
	h.respond(w, r, http.StatusOK, result, err)
}

func readUpload(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, &core.ValidationError{Field: "file", Message: "Expected a multipart upload"}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, &core.ValidationError{Field: "file", Message: "Please select a file"}
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, content, nil
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
