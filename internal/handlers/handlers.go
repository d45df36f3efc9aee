package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Brownie44l1/flower-api/internal/imaging"
	"github.com/Brownie44l1/flower-api/internal/model"
	"github.com/gorilla/mux"
)

const (
	// FileField is the multipart part that carries the uploaded image.
	FileField = "file"

	maxUploadSize = 10 << 20
	maxBodySize   = 32 << 20
)

// Classifier runs a preprocessed image through the model.
type Classifier interface {
	Metadata() model.Metadata
	Predict(input []float32) (*model.Prediction, error)
}

// Handler serves the inference API.
type Handler struct {
	classifier Classifier
	version    string
}

func NewHandler(classifier Classifier, version string) *Handler {
	return &Handler{
		classifier: classifier,
		version:    version,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/info", h.Info).Methods(http.MethodGet)

	r.HandleFunc("/predict/", h.PredictFromImage).Methods(http.MethodPost)
	r.HandleFunc("/predict", h.PredictFromImage).Methods(http.MethodPost)
	r.HandleFunc("/predict/tensor", h.Predict).Methods(http.MethodPost)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Flower Classification API is running",
	})
}

// Info describes the loaded model.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	meta := h.classifier.Metadata()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":    h.version,
		"classes":    meta.Classes,
		"image_size": meta.ImageSize,
		"layout":     meta.TensorLayout(),
	})
}

// Predict classifies an already preprocessed tensor sent as JSON.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	expectedSize := h.classifier.Metadata().InputSize()
	if len(req.Image) != expectedSize {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Expected %d values, got %d", expectedSize, len(req.Image)))
		return
	}

	result, err := h.classifier.Predict(req.Image)
	if err != nil {
		log.Printf("Prediction error: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PredictFromImage classifies an uploaded image file.
func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	file, header, err := r.FormFile(FileField)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("No image file provided. Use '%s' as the form field name", FileField))
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		respondError(w, http.StatusBadRequest, "Only image files are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid image: %v", err))
		return
	}

	img, format, err := imaging.DecodeBytes(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid image: %v", err))
		return
	}

	log.Printf("Received %s (%s, %d bytes, %dx%d)",
		header.Filename, format, len(data), img.Bounds().Dx(), img.Bounds().Dy())

	meta := h.classifier.Metadata()
	inputData := imaging.ToTensor(imaging.Resize(img, meta.ImageSize), meta.TensorLayout())

	result, err := h.classifier.Predict(inputData)
	if err != nil {
		log.Printf("Prediction error: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}
