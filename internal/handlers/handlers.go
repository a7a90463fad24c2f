package handlers

import (
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/Brownie44l1/leafcare-api/internal/leafimage"
	"github.com/Brownie44l1/leafcare-api/internal/remedy"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

const (
	uploadField = "file"

	msgInvalidImage     = "Invalid image format"
	msgPredictionFailed = "Prediction failed"
)

// Classifier maps a decoded leaf image to one label of its fixed label set.
type Classifier interface {
	Classify(img image.Image) (string, error)
}

type PredictQuery struct {
	Lang string `schema:"lang"`
}

type PredictResponse struct {
	PredictedClass string `json:"predicted_class"`
	DiseaseName    string `json:"disease_name"`
	Remedy         string `json:"remedy"`
	Medicine       string `json:"medicine"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type Handler struct {
	classifier   Classifier
	catalog      *remedy.Catalog
	maxMemory    int64
	queryDecoder *schema.Decoder
}

func NewHandler(classifier Classifier, catalog *remedy.Catalog, maxMemory int64) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	// "?lang=" is an explicit empty language, not a request for the default.
	decoder.ZeroEmpty(true)

	return &Handler{
		classifier:   classifier,
		catalog:      catalog,
		maxMemory:    maxMemory,
		queryDecoder: decoder,
	}
}

func (h *Handler) AddRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/predict", h.Predict)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	query := PredictQuery{Lang: remedy.DefaultLanguage}
	if err := h.queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid query parameters")
		return
	}

	contents, err := h.readUpload(r)
	if err != nil {
		slog.Debug("rejected upload", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	img, err := leafimage.Decode(contents)
	if err != nil {
		if errors.Is(err, leafimage.ErrInvalidImageFormat) {
			slog.Debug("undecodable upload", "bytes", len(contents), "error", err)
			writeError(w, http.StatusBadRequest, msgInvalidImage)
			return
		}
		slog.Error("image decoding failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgPredictionFailed)
		return
	}

	label, err := h.classifier.Classify(img)
	if err != nil {
		slog.Error("prediction error", "error", err)
		writeError(w, http.StatusInternalServerError, msgPredictionFailed)
		return
	}

	rec := h.catalog.Lookup(label, query.Lang)
	slog.Debug("classified upload",
		"label", label, "lang", query.Lang,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	writeJSON(w, http.StatusOK, PredictResponse{
		PredictedClass: label,
		DiseaseName:    rec.Disease,
		Remedy:         rec.Remedy,
		Medicine:       rec.Medicine,
	})
}

func (h *Handler) readUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		return nil, errors.New("Expected a multipart/form-data body")
	}

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, errors.New("No image file provided. Use 'file' as the form field name")
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("Failed to read uploaded file")
	}
	return contents, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error serializing response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}
