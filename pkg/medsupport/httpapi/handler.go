// Package httpapi exposes MedService over HTTP with the JSON contract the web frontend expects.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

const (
	// ConfigKeyMaxUploadSize the largest multipart body accepted by the image endpoints (in bytes)
	ConfigKeyMaxUploadSize = "maxUploadSize"
	DefaultMaxUploadSize   = 32 << 20
)

// Service is what the handlers need from domain.MedService.
type Service interface {
	AnalyzeText(ctx context.Context, text string) (string, error)
	SimplifyReport(ctx context.Context, text string) (string, error)
	AnalyzeImage(ctx context.Context, imageData []byte, userPrompt string) (*domain.ImageAnalysis, error)
	AnalyzeNoteMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
	SimplifyReportMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
}

type textRequest struct {
	Text *string `json:"text"`
}

type analysisResponse struct {
	Result      string              `json:"result"`
	Annotations []domain.Annotation `json:"annotations"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type Handler struct {
	service       Service
	maxUploadSize int64
	logger        common.Logger
}

func NewHandler(service Service, config *common.Config, logger common.Logger) *Handler {
	return &Handler{
		service:       service,
		maxUploadSize: int64(config.GetIntOrDefault(ConfigKeyMaxUploadSize, DefaultMaxUploadSize)),
		logger:        logger,
	}
}

// Health never touches the model, so it answers even while the model is still loading (or failed to).
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	h.handleText(w, r, "Text analysis", h.service.AnalyzeText)
}

func (h *Handler) SimplifyReport(w http.ResponseWriter, r *http.Request) {
	h.handleText(w, r, "Report simplification", h.service.SimplifyReport)
}

func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	imageData, filename, prompt, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if prompt == "" {
		prompt = domain.DefaultImagePrompt
	}
	common.Logf(h.logger, "[%s] Received image analysis request. File: %s, Prompt: %s", requestID(r), filename, prompt)
	analysis, err := h.service.AnalyzeImage(r.Context(), imageData, prompt)
	if err != nil {
		h.writeFailure(w, r, "Image analysis", err)
		return
	}
	annotations := analysis.Annotations
	if annotations == nil {
		annotations = []domain.Annotation{}
	}
	writeJSON(w, http.StatusOK, analysisResponse{Result: analysis.Result, Annotations: annotations})
}

func (h *Handler) AnalyzeNoteMultimodal(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "Multimodal scribe", h.service.AnalyzeNoteMultimodal)
}

func (h *Handler) SimplifyReportMultimodal(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "Multimodal report simplification", h.service.SimplifyReportMultimodal)
}

func (h *Handler) handleText(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	respond func(ctx context.Context, text string) (string, error),
) {
	var request textRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if request.Text == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "text: field required"})
		return
	}
	common.Logf(h.logger, "[%s] %s request. Length: %d chars", requestID(r), operation, len(*request.Text))
	result, err := respond(r.Context(), *request.Text)
	if err != nil {
		h.writeFailure(w, r, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Result: result, Annotations: []domain.Annotation{}})
}

func (h *Handler) handleUpload(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	respond func(ctx context.Context, imageData []byte, userPrompt string) (string, error),
) {
	imageData, filename, prompt, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	common.Logf(h.logger, "[%s] %s request. File: %s, Prompt: %s", requestID(r), operation, filename, prompt)
	result, err := respond(r.Context(), imageData, prompt)
	if err != nil {
		h.writeFailure(w, r, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Result: result, Annotations: []domain.Annotation{}})
}

// readUpload returns the bytes of the "file" part and the optional "prompt" field. On failure, the response is
// already written.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (imageData []byte, filename, prompt string, ok bool) {
	tooLarge := errorResponse{Detail: fmt.Sprintf("upload exceeds %d bytes", h.maxUploadSize)}
	if r.ContentLength > h.maxUploadSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, tooLarge)
		return nil, "", "", false
	}
	// chunked uploads have no declared length
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, tooLarge)
			return nil, "", "", false
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: fmt.Sprintf("invalid multipart form: %v", err)})
		return nil, "", "", false
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "file: field required"})
		return nil, "", "", false
	}
	defer func() {
		_ = file.Close()
	}()
	imageData, err = io.ReadAll(file)
	if err != nil {
		h.writeFailure(w, r, "Upload", err)
		return nil, "", "", false
	}
	if values := r.MultipartForm.Value["prompt"]; len(values) > 0 {
		prompt = values[0]
	}
	return imageData, header.Filename, prompt, true
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, operation string, err error) {
	common.LogErrorf(h.logger, "[%s] %s failed: %v", requestID(r), operation, err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
