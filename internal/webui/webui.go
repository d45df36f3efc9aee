package webui

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log"
	"net/http"

	"github.com/Brownie44l1/flower-api/internal/chart"
	"github.com/Brownie44l1/flower-api/internal/client"
	"github.com/Brownie44l1/flower-api/internal/flower"
	"github.com/Brownie44l1/flower-api/internal/imaging"
	"github.com/gorilla/mux"
)

//go:embed static/*
var staticFS embed.FS

const (
	// ImageSize is the square size images are sent to the API at.
	ImageSize = 128

	ModeUpload = "upload"
	ModeDraw   = "draw"

	maxUploadSize = 10 << 20
)

// ErrBlankDrawing is returned for a canvas nobody has drawn on.
var ErrBlankDrawing = errors.New("the canvas is empty, draw a flower first")

// canvasBackground is the fill color of the drawing canvas.
var canvasBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Classifier is the part of the API client the UI needs.
type Classifier interface {
	Classify(ctx context.Context, jpegData []byte) (*client.Result, error)
	Health(ctx context.Context) (*client.HealthStatus, error)
}

// View is what the page renders after a successful classification.
type View struct {
	PredictedClass string      `json:"predicted_class"`
	DisplayLabel   string      `json:"display_label"`
	Bars           []chart.Bar `json:"bars"`
	Chart          string      `json:"chart,omitempty"`
}

// Handler serves the browser UI and proxies classifications to the API.
type Handler struct {
	classifier Classifier
	renderer   *chart.Renderer
	lang       flower.Lang
}

func NewHandler(classifier Classifier, renderer *chart.Renderer, lang flower.Lang) *Handler {
	return &Handler{
		classifier: classifier,
		renderer:   renderer,
		lang:       lang,
	}
}

// RegisterRoutes sets up the UI routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/classify", h.handleClassify).Methods(http.MethodPost)
	r.HandleFunc("/status", h.handleStatus).Methods(http.MethodGet)

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("Warning: Could not load embedded static files: %v", err)
		return
	}
	r.PathPrefix("/").Handler(http.FileServer(http.FS(staticContent)))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	respondJSON(w, status, body)
}

// PrepareImage turns any image into the JPEG bytes the API expects.
func PrepareImage(img image.Image) ([]byte, error) {
	return imaging.EncodeJPEG(imaging.Resize(imaging.ToRGB(img), ImageSize), 0)
}

// Classify prepares img, sends it to the API and builds the view.
func (h *Handler) Classify(ctx context.Context, img image.Image) (*View, error) {
	data, err := PrepareImage(img)
	if err != nil {
		return nil, err
	}

	result, err := h.classifier.Classify(ctx, data)
	if err != nil {
		return nil, err
	}

	return h.buildView(result)
}

func (h *Handler) buildView(result *client.Result) (*View, error) {
	display := func(label string) string {
		return flower.Display(label, h.lang)
	}

	view := &View{
		PredictedClass: result.PredictedClass,
		DisplayLabel:   display(result.PredictedClass),
		Bars:           chart.SortDescending(result.Probabilities, display),
	}

	if len(view.Bars) > 0 && h.renderer != nil {
		png, err := h.renderer.RenderPNG(view.Bars)
		if err != nil {
			return nil, err
		}
		view.Chart = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	}

	return view, nil
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("An error occurred: %v", err), "")
		return
	}

	mode := r.FormValue("mode")
	if mode != ModeUpload && mode != ModeDraw {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("An error occurred: unknown mode %q", mode), "")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "An error occurred: no image provided", "")
		return
	}
	defer file.Close()

	img, _, err := imaging.Decode(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("An error occurred: %v", err), "")
		return
	}

	if mode == ModeDraw && imaging.IsBlank(img, canvasBackground) {
		respondError(w, http.StatusBadRequest, ErrBlankDrawing.Error(), "")
		return
	}

	view, err := h.Classify(r.Context(), img)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			log.Printf("API returned %d: %s", apiErr.StatusCode, apiErr.Body)
			respondError(w, http.StatusBadGateway, "Error contacting API", apiErr.Body)
			return
		}
		log.Printf("Classification failed: %v", err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("An error occurred: %v", err), "")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.classifier.Health(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "API is unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}
