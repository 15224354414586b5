package matching

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
	"github.com/trialbridge-health/platform/pkg/normalizer"
	"github.com/trialbridge-health/platform/pkg/observability/metrics"
)

type Handler struct {
	service    *Service
	normalizer *normalizer.Normalizer
}

func NewHandler(service *Service, normalizer *normalizer.Normalizer) *Handler {
	return &Handler{service: service, normalizer: normalizer}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/normalize", h.handleNormalize).Methods(http.MethodPost)
	r.HandleFunc("/match", h.handleMatch).Methods(http.MethodPost)
	r.HandleFunc("/catalog/{kind}", h.handleBrowse).Methods(http.MethodGet)
}

func (h *Handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	metrics.IncNormalizeRequests()
	var req models.NormalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	tags := h.normalizer.Normalize(req.Text)
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, models.NormalizeResponse{Tags: tags})
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	metrics.IncMatchRequests()
	var req models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	kind, err := models.ParseContentKind(req.Kind)
	if err != nil {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}

	// Tags are recomputed from the stored wording on every request; they
	// are never cached because the vocabulary may evolve.
	tags := h.deriveTags(req.Conditions)
	items, err := h.service.PersonalizedMatch(r.Context(), tags, kind)
	if err != nil {
		logger.Log.WithError(err).Error("personalized match failed")
		http.Error(w, "match failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "tags": tags})
}

func (h *Handler) handleBrowse(w http.ResponseWriter, r *http.Request) {
	metrics.IncBrowseRequests()
	kind, err := models.ParseContentKind(mux.Vars(r)["kind"])
	if err != nil {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}
	items, err := h.service.Browse(r.Context(), kind)
	if err != nil {
		logger.Log.WithError(err).Error("catalog browse failed")
		http.Error(w, "browse failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// deriveTags normalizes each stored condition entry, falling back to the
// patient's literal wording, and unions the results in first-discovered
// order.
func (h *Handler) deriveTags(conditions []string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, condition := range conditions {
		for _, tag := range h.normalizer.NormalizeOrFallback(condition) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
