package importer

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/trialbridge-health/platform/pkg/common/logger"
	"github.com/trialbridge-health/platform/pkg/common/models"
)

type Handler struct {
	pipeline *Pipeline
}

func NewHandler(pipeline *Pipeline) *Handler {
	return &Handler{pipeline: pipeline}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/imports", h.handleRunImport).Methods(http.MethodPost)
}

func (h *Handler) handleRunImport(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Terms) == 0 {
		http.Error(w, "terms are required", http.StatusBadRequest)
		return
	}
	kind, err := models.ParseContentKind(req.Kind)
	if err != nil {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}

	imported, err := h.pipeline.Run(r.Context(), req.Terms, kind)
	if err != nil {
		logger.Log.WithError(err).Error("import pipeline failed")
		http.Error(w, "import failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.ImportResponse{Imported: imported})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
