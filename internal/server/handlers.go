package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/versevideo/internal/job"
	"github.com/maauso/versevideo/internal/variant"
)

// maxBodyBytes bounds render request bodies.
const maxBodyBytes = 8 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.RenderService
	variants  *variant.Registry
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.RenderService, variants *variant.Registry, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		variants:  variants,
		validator: newValidator(),
		logger:    logger,
	}
}

// newValidator returns a validator with the "address" tag registered.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("address", validateAddress)
	_ = v.RegisterValidation("color", validateColor)
	return v
}

// validateColor accepts #RRGGBB[AA], 0xRRGGBB[AA] or a colour name.
func validateColor(fl validator.FieldLevel) bool {
	return variant.ValidColor(fl.Field().String())
}

// validateAddress accepts the remote schemes the engine can read on behalf
// of an HTTP caller: http, https and s3.
func validateAddress(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "s3":
		return u.Host != ""
	default:
		return false
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListVariants handles GET /variants requests.
func (h *Handlers) ListVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VariantsResponse{Variants: h.variants.List()})
}

// Render handles POST /render requests. On success the artifact is streamed
// as the response body and removed afterwards.
func (h *Handlers) Render(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRenderRequest(w, r)
	if !ok {
		return
	}

	artifact, err := h.service.Render(r.Context(), req.toJobRequest())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	w.Header().Set("X-Render-ID", artifact.ID)
	w.WriteHeader(http.StatusOK)

	// Headers are sent; a delivery failure can only be logged.
	if err := h.service.Deliver(r.Context(), artifact, w); err != nil {
		h.logger.Warn("render delivery failed",
			slog.String("job_id", artifact.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Timeline handles POST /timeline requests. It composes the timeline
// without rendering.
func (h *Handlers) Timeline(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRenderRequest(w, r)
	if !ok {
		return
	}

	tl, report, err := h.service.Preview(r.Context(), req.toJobRequest())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := TimelineResponse{
		Variant:         req.Variant,
		DurationSeconds: tl.DurationSeconds(),
		Timeline:        tl,
		Resolutions:     report,
	}
	if v, err := h.variants.Lookup(req.Variant); err == nil {
		resp.Variant = v.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRenders handles GET /renders requests.
func (h *Handlers) ListRenders(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list renders", "JOB_FETCH_FAILED")
		return
	}

	resp := JobListResponse{Renders: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Renders = append(resp.Renders, newJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRender handles GET /renders/{id} requests.
func (h *Handlers) GetRender(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "render ID is required", "MISSING_RENDER_ID")
		return
	}

	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "render not found", "RENDER_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get render", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, newJobResponse(found))
}

func (h *Handlers) decodeRenderRequest(w http.ResponseWriter, r *http.Request) (RenderRequest, bool) {
	var req RenderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return req, false
	}
	return req, true
}

// writeServiceError maps a stage-tagged service error to an HTTP response.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	stage, _ := job.StageOf(err)
	status, code := stageStatus(stage)
	writeJSON(w, status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
		Stage: string(stage),
	})
}

func stageStatus(stage job.Stage) (int, string) {
	switch stage {
	case job.StageValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case job.StageResolution:
		return http.StatusServiceUnavailable, "RESOLUTION_FAILED"
	case job.StageComposition:
		return http.StatusUnprocessableEntity, "COMPOSITION_FAILED"
	case job.StageRender:
		return http.StatusBadGateway, "RENDER_FAILED"
	case job.StageDelivery:
		return http.StatusInternalServerError, "DELIVERY_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
